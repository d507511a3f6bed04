package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

// Serving-size vocabulary. Normalized records only ever carry one of these labels.
const (
	ServingCup   = "1 cup"
	ServingBowl  = "1 bowl"
	ServingPlate = "1 plate"
	ServingPiece = "1 piece"
	ServingSlice = "1 slice"
	ServingSpoon = "1 spoon"
	ServingGlass = "1 glass"

	DefaultServingSize = ServingPlate
)

// ServingSizes lists the closed serving-size vocabulary.
var ServingSizes = []string{
	ServingCup,
	ServingBowl,
	ServingPlate,
	ServingPiece,
	ServingSlice,
	ServingSpoon,
	ServingGlass,
}

// IsServingSize reports whether s is exactly one of the vocabulary labels.
func IsServingSize(s string) bool {
	for _, allowed := range ServingSizes {
		if s == allowed {
			return true
		}
	}
	return false
}

type servingHint struct {
	serving  string
	keywords []string
}

// Checked in order; the first matching keyword wins.
var servingHints = []servingHint{
	{ServingGlass, []string{"glass", "juice", "milk", "lassi", "buttermilk", "chaas", "tea", "chai", "coffee", "shake", "smoothie", "soda", "water", "drink", "beer", "wine"}},
	{ServingBowl, []string{"bowl", "soup", "stew", "curry", "dal", "daal", "sambar", "rasam", "kheer", "porridge", "salad", "khichdi", "chili"}},
	{ServingSlice, []string{"slice", "bread", "toast", "roti", "chapati", "chapatti", "naan", "paratha", "phulka", "tortilla", "pizza", "cake"}},
	{ServingCup, []string{"cup", "rice", "biryani", "pulao", "pasta", "noodle", "spaghetti", "oats", "oatmeal", "quinoa", "poha", "upma", "cereal", "grain", "couscous"}},
	{ServingSpoon, []string{"spoon", "chutney", "pickle", "ghee", "butter", "sauce", "jam", "honey", "sugar", "ketchup", "mayonnaise"}},
	{ServingPiece, []string{"piece", "pc", "egg", "banana", "apple", "cookie", "biscuit", "samosa", "ladoo"}},
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

// NormalizeServingSize maps any serving text onto the closed vocabulary. An exact
// vocabulary label is kept as is; otherwise keyword hints are tried against the
// serving text and then the food name before falling back to DefaultServingSize.
func NormalizeServingSize(raw any, foodName string) string {
	text, _ := raw.(string)
	if IsServingSize(text) {
		return text
	}
	if serving, ok := servingFromKeywords(text); ok {
		return serving
	}
	if serving, ok := servingFromKeywords(foodName); ok {
		return serving
	}
	return DefaultServingSize
}

func servingFromKeywords(text string) (string, bool) {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return "", false
	}
	for _, hint := range servingHints {
		for _, keyword := range hint.keywords {
			for _, word := range words {
				if word == keyword || singular(word) == keyword {
					return hint.serving, true
				}
			}
		}
	}
	return "", false
}

func singular(word string) string {
	switch {
	case strings.HasSuffix(word, "es") && hasSibilantEnding(strings.TrimSuffix(word, "es")):
		return strings.TrimSuffix(word, "es")
	case strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss"):
		return strings.TrimSuffix(word, "s")
	default:
		return word
	}
}

var leadingCount = regexp.MustCompile(`^\d+\s+`)

// FormatServingSize renders a serving label for quantity servings of base, e.g.
// (1, "1 cup") -> "1 cup", (3, "1 cup") -> "3 cups", (2, "1 glass") -> "2 glasses".
func FormatServingSize(quantity int, base string) string {
	unit := strings.TrimSpace(leadingCount.ReplaceAllString(strings.TrimSpace(base), ""))
	if unit == "" {
		unit = strings.TrimPrefix(DefaultServingSize, "1 ")
	}
	if quantity <= 1 {
		return "1 " + unit
	}
	return strconv.Itoa(quantity) + " " + pluralize(unit)
}

// pluralize appends "s", or "es" after a sibilant ("glass" -> "glasses"). Units
// that are already plural ("cups", "glasses") are returned unchanged.
func pluralize(unit string) string {
	switch {
	case hasSibilantEnding(unit):
		return unit + "es"
	case strings.HasSuffix(unit, "s"):
		return unit
	default:
		return unit + "s"
	}
}

func hasSibilantEnding(word string) bool {
	for _, suffix := range []string{"ss", "x", "z", "ch", "sh"} {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}
