package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/estimate"
	"github.com/bachat-dev/bachat/internal/model"
)

func TestIngestPrice(t *testing.T) {
	cache := newTestCache(t)
	r := New(cache, nil, estimate.NewTable(), nil)

	key, err := r.IngestPrice(IngestRequest{
		Platform: "www.blinkit.com",
		Name:     "Amul Taaza Milk 500ml",
		Price:    33,
		Unit:     "500 ml",
	})
	require.NoError(t, err)
	assert.Equal(t, "blinkit:taaza milk", key, "platform host and name are normalized")

	// A shorter generic request still finds the capture
	got, ok := cache.Get(model.PlatformBlinkit, "milk")
	require.True(t, ok)
	assert.InDelta(t, 33.0, got.Price, 0.001)
	assert.Equal(t, "500 ml", got.Unit)
	assert.Equal(t, "Amul Taaza Milk 500ml", got.OriginalName)
	assert.Equal(t, model.SourceExtension, got.Source)
	assert.False(t, got.IsEstimate)
	assert.False(t, got.CapturedAt.IsZero())
}

func TestIngestPriceDefaultUnit(t *testing.T) {
	cache := newTestCache(t)
	r := New(cache, nil, estimate.NewTable(), nil)

	_, err := r.IngestPrice(IngestRequest{Platform: "zepto", Name: "Onion", Price: 40})
	require.NoError(t, err)

	got, ok := cache.Get(model.PlatformZepto, "onion")
	require.True(t, ok)
	assert.Equal(t, "1 unit", got.Unit)
}

func TestIngestPriceValidation(t *testing.T) {
	cache := newTestCache(t)
	r := New(cache, nil, estimate.NewTable(), nil)

	tests := []struct {
		wantErr error
		name    string
		req     IngestRequest
	}{
		{name: "missing platform", req: IngestRequest{Name: "Onion", Price: 40}, wantErr: common.ErrMissingIngest},
		{name: "missing name", req: IngestRequest{Platform: "zepto", Price: 40}, wantErr: common.ErrMissingIngest},
		{name: "blank name", req: IngestRequest{Platform: "zepto", Name: "   ", Price: 40}, wantErr: common.ErrMissingIngest},
		{name: "zero price", req: IngestRequest{Platform: "zepto", Name: "Onion"}, wantErr: common.ErrInvalidPrice},
		{name: "negative price", req: IngestRequest{Platform: "zepto", Name: "Onion", Price: -5}, wantErr: common.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.IngestPrice(tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIngestBulk(t *testing.T) {
	cache := newTestCache(t)
	r := New(cache, nil, estimate.NewTable(), nil)

	result := r.IngestBulk([]IngestRequest{
		{Platform: "blinkit", Name: "Amul Taaza Milk", Price: 33, Unit: "500 ml"},
		{Platform: "blinkit", Name: "Hybrid Tomato", Price: 50, Unit: "1 kg"},
		{Platform: "", Name: "Broken", Price: 10},
		{Platform: "zepto", Name: "Onion", Price: 0},
	})

	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, cache.Len())
}
