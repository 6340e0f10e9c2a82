// Package cart builds the search manifest a cart driver needs to fill
// a platform cart from a shopping list.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/resolver"
)

// platformSearchURLs maps each platform to its product search URL
// template. The %s placeholder receives the URL-escaped search term.
var platformSearchURLs = map[model.Platform]string{
	model.PlatformBigBasket: "https://www.bigbasket.com/ps/?q=%s",
	model.PlatformBlinkit:   "https://blinkit.com/s/?q=%s",
	model.PlatformZepto:     "https://www.zeptonow.com/search?query=%s",
	model.PlatformInstamart: "https://www.swiggy.com/instamart/search?query=%s",
}

// ManifestEntry is one item of the cart manifest: the original item
// name, the name to search for, and the platform search URL.
type ManifestEntry struct {
	Item       string `json:"item"`
	SearchName string `json:"search_name"`
	SearchURL  string `json:"search_url"`
	Qty        string `json:"qty"`
}

// Planner resolves shopping-list items into search manifests.
type Planner struct {
	resolver *resolver.Resolver
	logger   *slog.Logger
}

// NewPlanner creates a cart planner.
func NewPlanner(res *resolver.Resolver, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{resolver: res, logger: logger}
}

// BuildManifest resolves each item's display name for the platform and
// emits the ordered manifest. Items the platform has never seen fall
// back to their generic name.
func (p *Planner) BuildManifest(ctx context.Context, platform model.Platform, items []model.ShoppingListItem) ([]ManifestEntry, error) {
	template, ok := platformSearchURLs[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform %q: %w", platform, common.ErrInvalidConfig)
	}
	if len(items) == 0 {
		return nil, common.ErrEmptyShoppingList
	}

	manifest := make([]ManifestEntry, 0, len(items))
	for _, item := range items {
		searchName := p.resolver.ResolveItemName(ctx, platform, item.Item)

		manifest = append(manifest, ManifestEntry{
			Item:       item.Item,
			SearchName: searchName,
			SearchURL:  fmt.Sprintf(template, url.QueryEscape(searchName)),
			Qty:        item.Qty,
		})
	}

	p.logger.Info("built cart manifest",
		"platform", platform, "items", len(manifest))
	return manifest, nil
}
