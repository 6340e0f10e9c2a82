package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/estimate"
	"github.com/bachat-dev/bachat/internal/matcher"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/pricecache"
	"github.com/bachat-dev/bachat/internal/resolver"
)

// countingCompleter returns a fixed answer and counts invocations.
type countingCompleter struct {
	response string
	calls    int
}

func (c *countingCompleter) Complete(_ context.Context, _ string) (string, error) {
	c.calls++
	return c.response, nil
}

// mockPlanStore records the last save for assertions.
type mockPlanStore struct {
	plan        *model.MealPlan
	savedItems  []model.ShoppingListItem
	savedResult *model.ComparisonResult
	saveCalls   int
}

func (m *mockPlanStore) GetMealPlan(_ context.Context, id int64) (*model.MealPlan, error) {
	if m.plan == nil || m.plan.ID != id {
		return nil, common.ErrNotFound
	}
	return m.plan, nil
}

func (m *mockPlanStore) GetLatestMealPlan(_ context.Context, _ string) (*model.MealPlan, error) {
	if m.plan == nil {
		return nil, common.ErrNotFound
	}
	return m.plan, nil
}

func (m *mockPlanStore) SaveMealPlan(_ context.Context, plan *model.MealPlan) error {
	m.plan = plan
	return nil
}

func (m *mockPlanStore) GetShoppingList(_ context.Context, planID int64) ([]model.ShoppingListItem, error) {
	plan, err := m.GetMealPlan(context.Background(), planID)
	if err != nil {
		return nil, err
	}
	return plan.Data.ShoppingList, nil
}

func (m *mockPlanStore) SaveShoppingListAndComparison(_ context.Context, _ int64, items []model.ShoppingListItem, result *model.ComparisonResult) error {
	m.saveCalls++
	m.savedItems = items
	m.savedResult = result
	return nil
}

func (m *mockPlanStore) Migrate(_ context.Context) error { return nil }
func (m *mockPlanStore) Close() error                    { return nil }

func newTestCache(t *testing.T) *pricecache.Store {
	t.Helper()
	cache, err := pricecache.Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func newTestEngine(t *testing.T, cache *pricecache.Store, store *mockPlanStore) *Engine {
	t.Helper()
	res := resolver.New(cache, nil, estimate.NewTable(), nil)
	if store == nil {
		return New(res, cache, nil, nil)
	}
	return New(res, cache, store, nil)
}

func seedReal(cache *pricecache.Store, platform model.Platform, cleanName, originalName string, price float64, unit string) {
	cache.Set(platform, cleanName, model.PriceObservation{
		Price:        price,
		Unit:         unit,
		OriginalName: originalName,
		Source:       model.SourceExtension,
		CapturedAt:   time.Now(),
	})
}

func TestCompareEmptyList(t *testing.T) {
	e := newTestEngine(t, newTestCache(t), nil)

	_, err := e.Compare(context.Background(), nil, 0)
	assert.ErrorIs(t, err, common.ErrEmptyShoppingList)
}

func TestCompareAllEstimates(t *testing.T) {
	e := newTestEngine(t, newTestCache(t), nil)

	result, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Palak", Qty: "1 kg"},
		{Item: "Doodh", Qty: "1 l"},
	}, 0)
	require.NoError(t, err)

	// spinach 40 + milk 60, scaled by platform multipliers
	assert.InDelta(t, 100.0, result.Totals[model.PlatformBigBasket], 0.01)
	assert.InDelta(t, 115.0, result.Totals[model.PlatformBlinkit], 0.01)
	assert.InDelta(t, 112.0, result.Totals[model.PlatformZepto], 0.01)
	assert.InDelta(t, 110.0, result.Totals[model.PlatformInstamart], 0.01)

	assert.Equal(t, model.PlatformBigBasket, result.BestPlatform)
	assert.Contains(t, result.Recommendation, "BIGBASKET")
	assert.Contains(t, result.Recommendation, "100.00")

	require.Len(t, result.Items, 2)
	assert.Equal(t, "Palak", result.Items[0].Item)
	assert.Equal(t, "Doodh", result.Items[1].Item)
	for _, p := range model.AllPlatforms() {
		assert.True(t, result.Items[0].Metadata[p].IsEstimate)
		assert.Equal(t, 2, result.FoundCounts[p])
	}
	assert.False(t, result.LastUpdated.IsZero())
}

func TestCompareEmptyCacheEndToEnd(t *testing.T) {
	e := newTestEngine(t, newTestCache(t), nil)

	result, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Tomato", Qty: "1kg"},
	}, 0)
	require.NoError(t, err)

	assert.InDelta(t, 40.0, result.Totals[model.PlatformBigBasket], 0.01)
	assert.InDelta(t, 46.0, result.Totals[model.PlatformBlinkit], 0.01)
	assert.InDelta(t, 44.8, result.Totals[model.PlatformZepto], 0.01)
	assert.InDelta(t, 44.0, result.Totals[model.PlatformInstamart], 0.01)

	assert.Equal(t, model.PlatformBigBasket, result.BestPlatform)
	assert.Contains(t, result.Recommendation, "BIGBASKET")
	for _, p := range model.AllPlatforms() {
		assert.InDelta(t, 1.0, result.Coverage(p), 0.001)
	}
}

func TestCompareScalesCapturedPrices(t *testing.T) {
	cache := newTestCache(t)
	seedReal(cache, model.PlatformBlinkit, "tomato", "Hybrid Tomato", 50, "1 kg")

	e := newTestEngine(t, cache, nil)

	result, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Tamatar", Qty: "2 kg"},
	}, 0)
	require.NoError(t, err)

	price := result.Items[0].Prices[model.PlatformBlinkit]
	require.NotNil(t, price)
	assert.InDelta(t, 100.0, *price, 0.001, "captured 50/kg scaled to 2 kg")
	assert.False(t, result.Items[0].Metadata[model.PlatformBlinkit].IsEstimate)
	assert.Equal(t, "Hybrid Tomato", result.Items[0].Metadata[model.PlatformBlinkit].MatchedName)

	// Other platforms fall back to estimates
	assert.True(t, result.Items[0].Metadata[model.PlatformZepto].IsEstimate)
}

func TestCompareOrderPreserved(t *testing.T) {
	cache := newTestCache(t)
	e := NewWithConfig(
		resolver.New(cache, nil, estimate.NewTable(), nil),
		cache, nil, nil, Config{Concurrency: 2})

	items := []model.ShoppingListItem{
		{Item: "Atta", Qty: "5 kg"},
		{Item: "Rice", Qty: "1 kg"},
		{Item: "Milk", Qty: "1 l"},
		{Item: "Onion", Qty: "2 kg"},
		{Item: "Salt", Qty: "1 kg"},
		{Item: "Sugar", Qty: "1 kg"},
	}

	result, err := e.Compare(context.Background(), items, 0)
	require.NoError(t, err)

	require.Len(t, result.Items, len(items))
	for i, item := range items {
		assert.Equal(t, item.Item, result.Items[i].Item)
		assert.Equal(t, item.Qty, result.Items[i].Qty)
	}
}

func TestCompareMemoizesDuplicateItems(t *testing.T) {
	cache := newTestCache(t)
	seedReal(cache, model.PlatformBlinkit, "masti dahi", "Amul Masti Dahi", 35, "1 unit")

	completer := &countingCompleter{response: "Amul Masti Dahi"}
	m := matcher.New(cache, completer, nil)
	res := resolver.New(cache, m, estimate.NewTable(), nil)
	// One worker so the duplicate resolves strictly after the first
	e := NewWithConfig(res, cache, nil, nil, Config{Concurrency: 1})

	_, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "yogurt", Qty: "1 unit"},
		{Item: "yogurt", Qty: "2 units"},
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, completer.calls,
		"duplicate items share one resolution per platform")
}

func TestCompareProgressCallback(t *testing.T) {
	var calls []int
	cfg := DefaultConfig()
	cfg.Progress = func(completed, total int) {
		calls = append(calls, completed)
		assert.Equal(t, 2, total)
	}

	cache := newTestCache(t)
	e := NewWithConfig(resolver.New(cache, nil, estimate.NewTable(), nil), cache, nil, nil, cfg)

	_, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Atta", Qty: "5 kg"},
		{Item: "Rice", Qty: "1 kg"},
	}, 0)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, calls)
}

func TestAggregateCoverageThreshold(t *testing.T) {
	e := newTestEngine(t, newTestCache(t), nil)

	price := func(v float64) *float64 { return &v }
	shoppingList := make([]model.ShoppingListItem, 10)
	items := make([]model.ItemComparison, 10)
	for i := range items {
		items[i] = model.ItemComparison{
			Prices:   map[model.Platform]*float64{},
			Metadata: map[model.Platform]model.CellMetadata{},
		}
		// bigbasket prices only 4 of 10 items despite being cheapest
		if i < 4 {
			items[i].Prices[model.PlatformBigBasket] = price(10)
		}
		items[i].Prices[model.PlatformBlinkit] = price(50)
	}

	result := e.aggregate(shoppingList, items)

	assert.Equal(t, model.PlatformBlinkit, result.BestPlatform,
		"a platform under half coverage cannot win")
	assert.Equal(t, 4, result.FoundCounts[model.PlatformBigBasket])
}

func TestAggregateInsufficientData(t *testing.T) {
	e := newTestEngine(t, newTestCache(t), nil)

	shoppingList := make([]model.ShoppingListItem, 4)
	items := make([]model.ItemComparison, 4)
	for i := range items {
		items[i] = model.ItemComparison{
			Prices:   map[model.Platform]*float64{},
			Metadata: map[model.Platform]model.CellMetadata{},
		}
	}

	result := e.aggregate(shoppingList, items)

	assert.Empty(t, result.BestPlatform)
	assert.False(t, result.HasRecommendation())
	assert.Equal(t, "Could not compare prices due to insufficient data.", result.Recommendation)
}

func TestComparePersistsOntoPlan(t *testing.T) {
	cache := newTestCache(t)
	seedReal(cache, model.PlatformBigBasket, "tomato", "Tomato", 40, "1 kg")

	store := &mockPlanStore{plan: &model.MealPlan{
		ID:     7,
		UserID: "default",
		Data: model.PlanData{
			ShoppingList: []model.ShoppingListItem{
				{Item: "Tamatar", Qty: "1 kg", Price: 999},
				{Item: "Bread", Qty: "1 unit", Price: 999},
			},
		},
	}}

	e := newTestEngine(t, cache, store)

	result, err := e.Compare(context.Background(), store.plan.Data.ShoppingList, 7)
	require.NoError(t, err)
	require.Equal(t, 1, store.saveCalls)
	require.NotNil(t, store.savedResult)
	assert.Equal(t, result.BestPlatform, store.savedResult.BestPlatform)

	require.Len(t, store.savedItems, 2)
	best := result.BestPlatform
	assert.InDelta(t, *result.Items[0].Prices[best], store.savedItems[0].Price, 0.001,
		"item price rewritten to the best platform's price")
	assert.InDelta(t, *result.Items[1].Prices[best], store.savedItems[1].Price, 0.001)
}

func TestComparePersistFailureIsNotFatal(t *testing.T) {
	cache := newTestCache(t)
	store := &mockPlanStore{} // no plan stored, GetMealPlan fails

	e := newTestEngine(t, cache, store)

	result, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Rice", Qty: "1 kg"},
	}, 42)
	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 0, store.saveCalls)
}

func TestCompareResolutionPanicDegradesToNilCells(t *testing.T) {
	cache := newTestCache(t)
	// No estimate table: with an empty cache every resolution panics
	// at the fresh-estimate step.
	res := resolver.New(cache, nil, nil, nil)
	e := New(res, cache, nil, nil)

	result, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Tomato", Qty: "1 kg"},
		{Item: "Milk", Qty: "1 l"},
	}, 0)
	require.NoError(t, err, "a failing cell must not abort the batch")
	require.Len(t, result.Items, 2)

	for _, item := range result.Items {
		for _, p := range model.AllPlatforms() {
			assert.Nil(t, item.Prices[p])
		}
	}
	assert.Equal(t, model.Platform(""), result.BestPlatform)
	assert.Equal(t, "Could not compare prices due to insufficient data.", result.Recommendation)
}

func TestCompareResolutionPanicLeavesOtherCellsIntact(t *testing.T) {
	cache := newTestCache(t)
	res := resolver.New(cache, nil, nil, nil)
	e := New(res, cache, nil, nil)

	// Only this cell resolves from the cache; all others panic.
	seedReal(cache, model.PlatformBlinkit, "tomato", "Hybrid Tomato 1kg", 50, "1 kg")

	result, err := e.Compare(context.Background(), []model.ShoppingListItem{
		{Item: "Tomato", Qty: "1 kg"},
	}, 0)
	require.NoError(t, err)

	require.NotNil(t, result.Items[0].Prices[model.PlatformBlinkit])
	assert.InDelta(t, 50.0, *result.Items[0].Prices[model.PlatformBlinkit], 0.001)
	assert.Nil(t, result.Items[0].Prices[model.PlatformZepto])
	assert.Equal(t, model.PlatformBlinkit, result.BestPlatform)
}

func TestIsStale(t *testing.T) {
	cache := newTestCache(t)
	e := newTestEngine(t, cache, nil)

	assert.True(t, e.IsStale(nil))

	result := &model.ComparisonResult{LastUpdated: time.Now()}
	assert.False(t, e.IsStale(result), "no captures at all means nothing newer exists")

	seedReal(cache, model.PlatformBlinkit, "milk", "Amul Taaza Milk", 33, "500 ml")
	assert.True(t, e.IsStale(&model.ComparisonResult{LastUpdated: time.Now().Add(-time.Hour)}))
	assert.False(t, e.IsStale(&model.ComparisonResult{LastUpdated: time.Now().Add(time.Hour)}))
}
