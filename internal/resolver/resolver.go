// Package resolver turns (platform, item name) pairs into price
// observations with a strict fallback order: captured cache entry,
// semantic match, cached estimate, fresh estimate. Resolution never
// fails; the last resort is always an estimate.
package resolver

import (
	"context"
	"log/slog"

	"github.com/bachat-dev/bachat/internal/estimate"
	"github.com/bachat-dev/bachat/internal/matcher"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/normalize"
	"github.com/bachat-dev/bachat/internal/pricecache"
)

// Options controls a single resolution.
type Options struct {
	// AllowSemanticMatch enables the completion-backed matching step.
	AllowSemanticMatch bool
}

// Resolver orchestrates the cache, matcher and estimate table.
type Resolver struct {
	cache     *pricecache.Store
	matcher   *matcher.Matcher
	estimates *estimate.Table
	logger    *slog.Logger
}

// New creates a resolver. The matcher may be nil, which disables
// semantic matching entirely.
func New(cache *pricecache.Store, m *matcher.Matcher, estimates *estimate.Table, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:     cache,
		matcher:   m,
		estimates: estimates,
		logger:    logger,
	}
}

// ResolvePrice resolves the price observation for an item on a
// platform. Every path terminates in a valid observation: a real
// capture beats a semantic match beats a cached estimate beats a
// freshly computed one.
func (r *Resolver) ResolvePrice(ctx context.Context, platform model.Platform, rawName string, opts Options) model.PriceObservation {
	cleanName := normalize.Clean(rawName)

	// 1. Exact or fuzzy cache hit; a real price wins immediately.
	cached, hit := r.cache.Get(platform, cleanName)
	if hit && cached.IsReal() {
		r.logger.Debug("price hit (exact)",
			"platform", platform, "item", rawName, "price", cached.Price)
		return cached
	}

	// 2. Semantic match against captured product names. A match is
	// written back under the requested key so the next identical
	// request is an exact hit.
	if opts.AllowSemanticMatch && r.matcher != nil {
		if key, found := r.matcher.FindBestMatch(ctx, platform, rawName); found {
			if matched, ok := r.cache.GetByKey(key); ok && matched.IsReal() {
				alias := matched
				alias.SourceAlias = key
				r.cache.Set(platform, cleanName, alias)

				r.logger.Info("price hit (semantic)",
					"platform", platform, "item", rawName,
					"matched", key, "price", matched.Price)
				return matched
			}
		}
	}

	// 3. A cached estimate is still better than recomputing one.
	if hit {
		r.logger.Debug("price hit (estimate)",
			"platform", platform, "item", rawName, "price", cached.Price)
		return cached
	}

	// 4. Total miss: synthesize a market-rate estimate and cache it.
	price := r.estimates.Estimate(cleanName, platform)
	obs := model.PriceObservation{
		Price:      price,
		Unit:       "1 unit",
		IsEstimate: true,
		Source:     model.SourceEstimate,
	}
	r.cache.Set(platform, cleanName, obs)

	r.logger.Debug("price miss, using estimate",
		"platform", platform, "item", rawName, "price", price)
	return obs
}

// ResolveItemName returns the best display name for the item: the
// captured product name when one is known, otherwise the requested
// name unchanged. The cart workflow uses this to search for real
// product names instead of generic ingredient phrasing.
func (r *Resolver) ResolveItemName(ctx context.Context, platform model.Platform, rawName string) string {
	cleanName := normalize.Clean(rawName)

	if cached, ok := r.cache.Get(platform, cleanName); ok && cached.IsReal() && cached.OriginalName != "" {
		return cached.OriginalName
	}

	if r.matcher != nil {
		if key, found := r.matcher.FindBestMatch(ctx, platform, rawName); found {
			if matched, ok := r.cache.GetByKey(key); ok && matched.IsReal() && matched.OriginalName != "" {
				return matched.OriginalName
			}
		}
	}

	return rawName
}
