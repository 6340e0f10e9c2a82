// Package storage implements the meal-plan store on SQLite. Each plan
// row carries its plan document as a JSON blob, mirroring how plans
// arrive from the meal generator.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the service.PlanStore interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite plan store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateMealPlan stores a new plan document and returns it with its
// assigned id.
func (s *SQLiteStore) CreateMealPlan(ctx context.Context, userID string, data model.PlanData) (*model.MealPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan data: %w", err)
	}

	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, plan_data, created_at) VALUES (?, ?, ?)`,
		userID, string(raw), now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal plan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get plan id: %w", err)
	}

	return &model.MealPlan{ID: id, UserID: userID, Data: data, CreatedAt: now}, nil
}

// GetMealPlan loads a plan by id. A malformed stored document is a
// decode error, not an empty plan.
func (s *SQLiteStore) GetMealPlan(ctx context.Context, id int64) (*model.MealPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, plan_data, created_at FROM meal_plans WHERE id = ?`, id)
	return scanMealPlan(row)
}

// GetLatestMealPlan loads the user's most recently created plan.
func (s *SQLiteStore) GetLatestMealPlan(ctx context.Context, userID string) (*model.MealPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, plan_data, created_at FROM meal_plans
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	return scanMealPlan(row)
}

// SaveMealPlan overwrites a plan's document.
func (s *SQLiteStore) SaveMealPlan(ctx context.Context, plan *model.MealPlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("plan must not be nil")
	}
	if err := validateID(plan.ID); err != nil {
		return err
	}

	raw, err := json.Marshal(plan.Data)
	if err != nil {
		return fmt.Errorf("failed to encode plan data: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE meal_plans SET plan_data = ? WHERE id = ?`, string(raw), plan.ID)
	if err != nil {
		return fmt.Errorf("failed to update meal plan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("meal plan %d: %w", plan.ID, common.ErrNotFound)
	}

	return nil
}

// GetShoppingList returns the plan's shopping list.
func (s *SQLiteStore) GetShoppingList(ctx context.Context, planID int64) ([]model.ShoppingListItem, error) {
	plan, err := s.GetMealPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.Data.ShoppingList) == 0 {
		return nil, common.ErrNoShoppingList
	}
	return plan.Data.ShoppingList, nil
}

// SaveShoppingListAndComparison rewrites the plan's shopping list,
// recomputes its total cost, and attaches the comparison result.
func (s *SQLiteStore) SaveShoppingListAndComparison(ctx context.Context, planID int64, items []model.ShoppingListItem, result *model.ComparisonResult) error {
	plan, err := s.GetMealPlan(ctx, planID)
	if err != nil {
		return err
	}

	plan.Data.ShoppingList = items
	plan.Data.RecomputeTotalCost()
	plan.Data.PriceComparison = result
	plan.Data.ShoppingListStale = false

	return s.SaveMealPlan(ctx, plan)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMealPlan(row rowScanner) (*model.MealPlan, error) {
	var plan model.MealPlan
	var raw string

	if err := row.Scan(&plan.ID, &plan.UserID, &raw, &plan.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan meal plan: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &plan.Data); err != nil {
		return nil, fmt.Errorf("%w: plan %d: %v", common.ErrPlanCorrupted, plan.ID, err)
	}

	return &plan, nil
}
