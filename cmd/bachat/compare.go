package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bachat-dev/bachat/internal/cli"
	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/engine"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/service"
	"github.com/bachat-dev/bachat/internal/storage"
)

// comparisonMaxAge is how long a stored comparison stays reusable.
const comparisonMaxAge = 24 * time.Hour

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare shopping list prices across platforms",
		Long: `Resolve a price for every shopping-list item on every platform,
total them up, and recommend the cheapest platform with enough
coverage.

By default the latest meal plan's shopping list is compared and the
result is saved back onto the plan. A comparison saved within the
last 24 hours is reused unless --refresh is given, items are skipped,
or newer price captures exist.`,
		RunE: runCompare,
	}

	cmd.Flags().Int64("plan", 0, "Meal plan ID (default: latest plan)")
	cmd.Flags().String("items", "", "Ad-hoc comma-separated item list instead of a plan (item or item:qty)")
	cmd.Flags().String("skip", "", "Comma-separated item names to exclude")
	cmd.Flags().Bool("refresh", false, "Ignore any saved comparison")
	cmd.Flags().Int("concurrency", 0, "Max items resolved concurrently")

	return cmd
}

func runCompare(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	planID, _ := cmd.Flags().GetInt64("plan")
	itemsFlag, _ := cmd.Flags().GetString("items")
	skipFlag, _ := cmd.Flags().GetString("skip")
	refresh, _ := cmd.Flags().GetBool("refresh")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	cache, err := initCache()
	if err != nil {
		return fmt.Errorf("failed to open price cache: %w", err)
	}
	defer func() { _ = cache.Close() }()

	res, closeLLM, err := initResolver(cache)
	if err != nil {
		return err
	}
	defer closeLLM()

	var shoppingList []model.ShoppingListItem
	var plan *model.MealPlan
	var store service.PlanStore

	if itemsFlag != "" {
		shoppingList = parseItemsFlag(itemsFlag)
	} else {
		sqlStore, storeErr := initStore(ctx)
		if storeErr != nil {
			return storeErr
		}
		defer func() { _ = sqlStore.Close() }()
		store = sqlStore

		plan, err = loadPlan(ctx, sqlStore, planID)
		if err != nil {
			return err
		}
		planID = plan.ID
		shoppingList = plan.Data.ShoppingList
		if len(shoppingList) == 0 {
			return common.NewUserError("meal plan has no shopping list to compare", common.ErrNoShoppingList)
		}
	}

	skips := parseSkips(skipFlag)
	filtered := applySkips(shoppingList, skips)
	if len(filtered) == 0 {
		return common.NewUserError("every item was skipped; nothing to compare", common.ErrEmptyShoppingList)
	}

	if concurrency <= 0 {
		concurrency = viper.GetInt("compare.concurrency")
	}
	cfg := engine.DefaultConfig()
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	bar := newCompareBar(len(filtered))
	cfg.Progress = func(_, _ int) {
		if barErr := bar.Add(1); barErr != nil {
			slog.Warn("Failed to update progress bar", "error", barErr)
		}
	}

	eng := engine.NewWithConfig(res, cache, store, slog.Default(), cfg)

	// Reuse a fresh stored comparison when nothing forces a recompute
	if plan != nil && !refresh && len(skips) == 0 {
		if prev := plan.Data.PriceComparison; prev != nil &&
			time.Since(prev.LastUpdated) < comparisonMaxAge && !eng.IsStale(prev) {
			fmt.Fprintln(os.Stdout, cli.FormatInfo("Using saved comparison (run with --refresh to recompute)"))
			fmt.Fprintln(os.Stdout, cli.RenderComparison(prev))
			return nil
		}
	}

	result, err := eng.Compare(ctx, filtered, planID)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stdout)

	fmt.Fprintln(os.Stdout, cli.RenderComparison(result))
	return nil
}

// loadPlan fetches the requested plan, or the user's latest when no ID
// was given.
func loadPlan(ctx context.Context, store *storage.SQLiteStore, planID int64) (*model.MealPlan, error) {
	if planID != 0 {
		plan, err := store.GetMealPlan(ctx, planID)
		if err != nil {
			return nil, fmt.Errorf("failed to load meal plan %d: %w", planID, err)
		}
		return plan, nil
	}

	userID := viper.GetString("user.id")
	if userID == "" {
		userID = "default"
	}

	plan, err := store.GetLatestMealPlan(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewUserError("no meal plans found; create one or pass --items", err)
		}
		return nil, fmt.Errorf("failed to load latest meal plan: %w", err)
	}
	return plan, nil
}

// parseItemsFlag parses "rice:2 kg,milk" into shopping-list items.
// Quantity defaults to one unit.
func parseItemsFlag(raw string) []model.ShoppingListItem {
	var items []model.ShoppingListItem
	for _, part := range strings.Split(raw, ",") {
		name, qty, hasQty := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		qty = strings.TrimSpace(qty)
		if !hasQty || qty == "" {
			qty = "1 unit"
		}
		items = append(items, model.ShoppingListItem{Item: name, Qty: qty})
	}
	return items
}

func parseSkips(raw string) map[string]bool {
	skips := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		if s := strings.ToLower(strings.TrimSpace(part)); s != "" {
			skips[s] = true
		}
	}
	return skips
}

func applySkips(items []model.ShoppingListItem, skips map[string]bool) []model.ShoppingListItem {
	if len(skips) == 0 {
		return items
	}
	kept := make([]model.ShoppingListItem, 0, len(items))
	for _, item := range items {
		if skips[strings.ToLower(strings.TrimSpace(item.Item))] {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func newCompareBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Comparing prices...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
