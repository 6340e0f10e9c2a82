// Package engine implements the multi-platform price comparison engine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/normalize"
	"github.com/bachat-dev/bachat/internal/pricecache"
	"github.com/bachat-dev/bachat/internal/resolver"
	"github.com/bachat-dev/bachat/internal/service"
	"github.com/bachat-dev/bachat/internal/units"
)

// coverageThreshold is the minimum fraction of items a platform must
// price to qualify for recommendation.
const coverageThreshold = 0.5

// Config holds configuration options for the comparison engine.
type Config struct {
	// Progress, when set, is called after each completed item.
	Progress func(completed, total int)
	// Concurrency caps how many shopping-list items are processed
	// simultaneously, bounding pressure on the completion capability.
	Concurrency int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Concurrency: 5}
}

// Engine fans out price resolution across items and platforms and
// aggregates the results into a recommendation.
type Engine struct {
	resolver  *resolver.Resolver
	cache     *pricecache.Store
	store     service.PlanStore
	logger    *slog.Logger
	progress  func(completed, total int)
	platforms []model.Platform
	workers   int
}

// New creates a comparison engine with default configuration. The plan
// store may be nil when no persistence is wanted.
func New(res *resolver.Resolver, cache *pricecache.Store, store service.PlanStore, logger *slog.Logger) *Engine {
	return NewWithConfig(res, cache, store, logger, DefaultConfig())
}

// NewWithConfig creates a comparison engine with custom configuration.
func NewWithConfig(res *resolver.Resolver, cache *pricecache.Store, store service.PlanStore, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = DefaultConfig().Concurrency
	}
	return &Engine{
		resolver:  res,
		cache:     cache,
		store:     store,
		logger:    logger,
		progress:  cfg.Progress,
		platforms: model.AllPlatforms(),
		workers:   workers,
	}
}

// memo caches resolved observations for one comparison run so
// duplicate items in the same list skip repeat cache scans and
// semantic calls.
type memo struct {
	entries map[string]model.PriceObservation
	mu      sync.Mutex
}

func (m *memo) get(key string) (model.PriceObservation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obs, ok := m.entries[key]
	return obs, ok
}

func (m *memo) set(key string, obs model.PriceObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = obs
}

// Compare resolves prices for every item on every platform, aggregates
// per-platform totals and coverage, and selects a recommended platform.
// When planID is non-zero the result is persisted onto the owning meal
// plan; persistence failures are logged and do not invalidate the
// returned result. Output item order always matches input order.
func (e *Engine) Compare(ctx context.Context, shoppingList []model.ShoppingListItem, planID int64) (*model.ComparisonResult, error) {
	if len(shoppingList) == 0 {
		return nil, common.ErrEmptyShoppingList
	}

	e.logger.Info("starting price comparison",
		"items", len(shoppingList), "platforms", len(e.platforms))

	runMemo := &memo{entries: make(map[string]model.PriceObservation)}
	items := make([]model.ItemComparison, len(shoppingList))

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	var completed int
	var progressMu sync.Mutex

	for i, item := range shoppingList {
		wg.Add(1)
		go func(idx int, item model.ShoppingListItem) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				items[idx] = emptyComparison(item)
				return
			}

			items[idx] = e.compareItem(ctx, item, runMemo)

			if e.progress != nil {
				progressMu.Lock()
				completed++
				e.progress(completed, len(shoppingList))
				progressMu.Unlock()
			}
		}(i, item)
	}
	wg.Wait()

	result := e.aggregate(shoppingList, items)

	if planID != 0 && e.store != nil {
		e.persist(ctx, planID, result)
	}

	return result, nil
}

// compareItem resolves one item across all platforms concurrently. The
// platform fan-out is a small constant, so it is not separately capped.
func (e *Engine) compareItem(ctx context.Context, item model.ShoppingListItem, runMemo *memo) model.ItemComparison {
	comp := model.ItemComparison{
		Item:     item.Item,
		Qty:      item.Qty,
		Prices:   make(map[model.Platform]*float64, len(e.platforms)),
		Metadata: make(map[model.Platform]model.CellMetadata, len(e.platforms)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, platform := range e.platforms {
		wg.Add(1)
		go func(p model.Platform) {
			defer wg.Done()

			obs, ok := e.resolveObservation(ctx, p, item.Item, runMemo)

			mu.Lock()
			defer mu.Unlock()

			if !ok {
				comp.Prices[p] = nil
				comp.Metadata[p] = model.CellMetadata{}
				return
			}

			meta := model.CellMetadata{
				IsEstimate:  obs.IsEstimate,
				MatchedName: obs.OriginalName,
				SourceUnit:  obs.Unit,
			}

			if calc := units.CalculateTotal(obs, item.Qty); calc != nil {
				price := calc.Price
				comp.Prices[p] = &price
			} else {
				comp.Prices[p] = nil
			}
			comp.Metadata[p] = meta
		}(platform)
	}
	wg.Wait()

	return comp
}

// resolveObservation resolves one cell, consulting the per-run memo
// first. A panic in resolution is confined to this cell.
func (e *Engine) resolveObservation(ctx context.Context, platform model.Platform, rawName string, runMemo *memo) (obs model.PriceObservation, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("price resolution failed",
				"platform", platform, "item", rawName, "panic", r)
			ok = false
		}
	}()

	key := pricecache.Key(platform, normalize.Clean(rawName))
	if cached, hit := runMemo.get(key); hit {
		return cached, true
	}

	obs = e.resolver.ResolvePrice(ctx, platform, rawName, resolver.Options{AllowSemanticMatch: true})
	runMemo.set(key, obs)
	return obs, true
}

func (e *Engine) aggregate(shoppingList []model.ShoppingListItem, items []model.ItemComparison) *model.ComparisonResult {
	totals := make(map[model.Platform]float64, len(e.platforms))
	foundCounts := make(map[model.Platform]int, len(e.platforms))
	for _, p := range e.platforms {
		totals[p] = 0
		foundCounts[p] = 0
	}

	for _, comp := range items {
		for _, p := range e.platforms {
			if price := comp.Prices[p]; price != nil {
				totals[p] += *price
				foundCounts[p]++
			}
		}
	}

	totalItems := len(shoppingList)

	var best model.Platform
	minTotal := 0.0
	for _, p := range e.platforms {
		coverage := float64(foundCounts[p]) / float64(totalItems)
		if coverage < coverageThreshold {
			continue
		}
		if best == "" || totals[p] < minTotal {
			best = p
			minTotal = totals[p]
		}
	}

	recommendation := "Could not compare prices due to insufficient data."
	if best != "" {
		recommendation = fmt.Sprintf("Best platform: %s - INR %.2f",
			strings.ToUpper(string(best)), totals[best])
		if missing := totalItems - foundCounts[best]; missing > 0 {
			recommendation += fmt.Sprintf(" (%d items estimated/missing)", missing)
		}
	}

	e.logger.Info("price comparison complete",
		"best_platform", best, "recommendation", recommendation)

	return &model.ComparisonResult{
		Items:          items,
		Totals:         totals,
		FoundCounts:    foundCounts,
		BestPlatform:   best,
		Recommendation: recommendation,
		LastUpdated:    time.Now(),
	}
}

// persist reloads the owning plan, rewrites each item's price to the
// best platform's price (else the lowest available, else unchanged),
// and stores the comparison. Items are matched by name so a filtered
// comparison cannot misalign prices.
func (e *Engine) persist(ctx context.Context, planID int64, result *model.ComparisonResult) {
	plan, err := e.store.GetMealPlan(ctx, planID)
	if err != nil {
		e.logger.Error("failed to load plan for comparison save",
			"plan_id", planID, "error", err)
		return
	}

	byName := make(map[string]model.ItemComparison, len(result.Items))
	for _, comp := range result.Items {
		byName[strings.ToLower(strings.TrimSpace(comp.Item))] = comp
	}

	items := plan.Data.ShoppingList
	for i := range items {
		comp, ok := byName[strings.ToLower(strings.TrimSpace(items[i].Item))]
		if !ok {
			continue
		}

		if result.BestPlatform != "" && comp.Prices[result.BestPlatform] != nil {
			items[i].Price = *comp.Prices[result.BestPlatform]
			continue
		}

		lowest := 0.0
		found := false
		for _, p := range e.platforms {
			if price := comp.Prices[p]; price != nil && (!found || *price < lowest) {
				lowest = *price
				found = true
			}
		}
		if found {
			items[i].Price = lowest
		}
	}

	if err := e.store.SaveShoppingListAndComparison(ctx, planID, items, result); err != nil {
		e.logger.Error("failed to save price comparison",
			"plan_id", planID, "error", err)
	}
}

// IsStale reports whether a previously computed comparison is outdated
// because a newer real price capture exists. Any new capture
// invalidates prior comparisons regardless of their age.
func (e *Engine) IsStale(result *model.ComparisonResult) bool {
	if result == nil {
		return true
	}
	latest := e.cache.LatestCaptureTime()
	return !latest.IsZero() && latest.After(result.LastUpdated)
}

func emptyComparison(item model.ShoppingListItem) model.ItemComparison {
	comp := model.ItemComparison{
		Item:     item.Item,
		Qty:      item.Qty,
		Prices:   make(map[model.Platform]*float64),
		Metadata: make(map[model.Platform]model.CellMetadata),
	}
	for _, p := range model.AllPlatforms() {
		comp.Prices[p] = nil
	}
	return comp
}
