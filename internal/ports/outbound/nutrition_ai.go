// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application needs from external systems
package outbound

import (
	"context"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

// NutritionAI is a text-generation provider able to estimate nutrition facts
type NutritionAI interface {
	// EstimateNutrition returns the provider's raw record for one serving of foodName.
	EstimateNutrition(ctx context.Context, foodName string) (*nutrition.RawRecord, error)
	// RecommendDiet returns short dietary suggestions for the given totals.
	RecommendDiet(ctx context.Context, totals nutrition.WholeTotals) ([]string, error)
	HealthCheck(ctx context.Context) error
	Provider() string
	Model() string
}
