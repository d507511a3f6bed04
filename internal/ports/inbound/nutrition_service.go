// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
)

// NutritionService defines the nutrition lookup use case.
// This is the primary port that HTTP handlers use
type NutritionService interface {
	// Analyze splits a free-text food query, looks up every item and aggregates
	// the scaled records. Any single failed lookup fails the whole analysis.
	Analyze(ctx context.Context, query string) (*nutrition.Analysis, error)
}
