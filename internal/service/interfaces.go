// Package service defines the interfaces between the engine and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/bachat-dev/bachat/internal/model"
)

// PlanStore is the meal-plan persistence contract consumed by the
// comparison engine.
type PlanStore interface {
	GetMealPlan(ctx context.Context, id int64) (*model.MealPlan, error)
	GetLatestMealPlan(ctx context.Context, userID string) (*model.MealPlan, error)
	SaveMealPlan(ctx context.Context, plan *model.MealPlan) error
	GetShoppingList(ctx context.Context, planID int64) ([]model.ShoppingListItem, error)
	SaveShoppingListAndComparison(ctx context.Context, planID int64, items []model.ShoppingListItem, result *model.ComparisonResult) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Completer is the narrow text-completion capability consumed by the
// semantic matcher. Implementations live in internal/llm.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RetryOptions configures retry behavior for external calls.
type RetryOptions struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
}
