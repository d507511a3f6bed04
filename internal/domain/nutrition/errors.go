package nutrition

import "errors"

// Domain errors for nutrition analysis

var (
	ErrEmptyQuery     = errors.New("food query must not be empty")
	ErrNoFoodMentions = errors.New("food query contains no food items")
)
