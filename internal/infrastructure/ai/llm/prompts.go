// Package llm holds the prompts, response decoding and HTTP plumbing shared by the
// text-generation providers.
package llm

import (
	"fmt"
	"strings"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

// NutritionSystemPrompt instructs the model to answer with one nutrition record.
var NutritionSystemPrompt = `You are a nutrition database. For the food the user names, estimate the nutrition facts of ONE typical serving.

CRITICAL: You must respond with ONLY a valid JSON object in the exact format shown below. Do not include any explanatory text, markdown formatting, or other content outside the JSON.

Required JSON format:
{
  "food_name": "Food Name",
  "serving_size": "` + strings.Join(nutrition.ServingSizes, `|`) + `",
  "calories_kcal": 0.0,
  "protein_g": 0.0,
  "carbs_g": 0.0,
  "fat_g": 0.0
}

If the text is not a food or drink, respond with {"error": "<short reason>"} instead.`

// RecommendationSystemPrompt instructs the model to answer with dietary advice.
const RecommendationSystemPrompt = `You are a registered dietitian. Given the total nutrition of a meal, give two to four short, practical recommendations to balance it.

CRITICAL: Respond with ONLY a valid JSON object of the form {"recommendations": ["...", "..."]}. Each recommendation is a single sentence.`

// NutritionUserPrompt names the food to look up.
func NutritionUserPrompt(foodName string) string {
	return fmt.Sprintf("Food: %s", foodName)
}

// RecommendationUserPrompt describes the meal totals.
func RecommendationUserPrompt(totals nutrition.WholeTotals) string {
	return fmt.Sprintf(
		"Meal totals: %d kcal, %d g protein, %d g carbohydrates, %d g fat.",
		totals.Calories, totals.Protein, totals.Carbs, totals.Fat,
	)
}
