package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/estimate"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/pricecache"
	"github.com/bachat-dev/bachat/internal/resolver"
)

func newTestPlanner(t *testing.T) (*Planner, *pricecache.Store) {
	t.Helper()

	cache, err := pricecache.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	res := resolver.New(cache, nil, estimate.NewTable(), nil)
	return NewPlanner(res, nil), cache
}

func TestBuildManifest(t *testing.T) {
	planner, cache := newTestPlanner(t)

	cache.Set(model.PlatformBlinkit, "tomato", model.PriceObservation{
		Price:        50,
		Unit:         "1 kg",
		OriginalName: "Hybrid Tomato 1kg",
		Source:       model.SourceExtension,
		CapturedAt:   time.Now(),
	})

	manifest, err := planner.BuildManifest(context.Background(), model.PlatformBlinkit,
		[]model.ShoppingListItem{
			{Item: "Tamatar", Qty: "1 kg"},
			{Item: "Green Chilli", Qty: "100 g"},
		})
	require.NoError(t, err)
	require.Len(t, manifest, 2)

	// Captured product name wins over the generic request
	assert.Equal(t, "Tamatar", manifest[0].Item)
	assert.Equal(t, "Hybrid Tomato 1kg", manifest[0].SearchName)
	assert.Equal(t, "https://blinkit.com/s/?q=Hybrid+Tomato+1kg", manifest[0].SearchURL)
	assert.Equal(t, "1 kg", manifest[0].Qty)

	// Unknown items search by their own name
	assert.Equal(t, "Green Chilli", manifest[1].SearchName)
	assert.Equal(t, "https://blinkit.com/s/?q=Green+Chilli", manifest[1].SearchURL)
}

func TestBuildManifestUnknownPlatform(t *testing.T) {
	planner, _ := newTestPlanner(t)

	_, err := planner.BuildManifest(context.Background(), model.Platform("dmart"),
		[]model.ShoppingListItem{{Item: "Atta", Qty: "5 kg"}})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestBuildManifestEmptyList(t *testing.T) {
	planner, _ := newTestPlanner(t)

	_, err := planner.BuildManifest(context.Background(), model.PlatformZepto, nil)
	assert.ErrorIs(t, err, common.ErrEmptyShoppingList)
}
