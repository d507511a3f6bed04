package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "with" and "and" only split as whole words so "sandwich" stays intact.
	separatorPattern = regexp.MustCompile(`\bwith\b|\band\b|[&,+]`)
	quantityPattern  = regexp.MustCompile(`(?s)^(\d+)\s+(\S.*)$`)
)

// ParseFoodMentions splits a free-text food query into ordered food mentions.
// Segments left empty by leading, trailing or doubled separators are dropped.
func ParseFoodMentions(query string) []FoodMention {
	segments := separatorPattern.Split(strings.ToLower(query), -1)

	mentions := make([]FoodMention, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		mentions = append(mentions, parseMention(segment))
	}
	return mentions
}

func parseMention(segment string) FoodMention {
	match := quantityPattern.FindStringSubmatch(segment)
	if match == nil {
		return FoodMention{Quantity: 1, Name: segment}
	}

	quantity, err := strconv.Atoi(match[1])
	if err != nil || quantity < 1 {
		return FoodMention{Quantity: 1, Name: segment}
	}

	return FoodMention{Quantity: quantity, Name: strings.TrimSpace(match[2])}
}
