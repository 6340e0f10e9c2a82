package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bachat-dev/bachat/internal/model"
)

func price(v float64) *float64 { return &v }

func TestRenderComparison(t *testing.T) {
	result := &model.ComparisonResult{
		Items: []model.ItemComparison{
			{
				Item: "Tomato",
				Qty:  "1 kg",
				Prices: map[model.Platform]*float64{
					model.PlatformBigBasket: price(40),
					model.PlatformBlinkit:   price(46),
					model.PlatformZepto:     nil,
					model.PlatformInstamart: price(44),
				},
				Metadata: map[model.Platform]model.CellMetadata{
					model.PlatformBlinkit: {IsEstimate: true},
				},
			},
		},
		Totals: map[model.Platform]float64{
			model.PlatformBigBasket: 40,
			model.PlatformBlinkit:   46,
			model.PlatformZepto:     0,
			model.PlatformInstamart: 44,
		},
		FoundCounts: map[model.Platform]int{
			model.PlatformBigBasket: 1,
			model.PlatformBlinkit:   1,
			model.PlatformInstamart: 1,
		},
		BestPlatform:   model.PlatformBigBasket,
		Recommendation: "Best platform: BIGBASKET - INR 40.00",
	}

	out := RenderComparison(result)

	assert.Contains(t, out, "Tomato")
	assert.Contains(t, out, "BIGBASKET")
	assert.Contains(t, out, "₹40.00")
	assert.Contains(t, out, "~₹46.00", "estimated cells keep the tilde marker")
	assert.Contains(t, out, "1/1")
	assert.Contains(t, out, "0/1")
	assert.Contains(t, out, "Best platform: BIGBASKET - INR 40.00")
}

func TestRenderComparisonInsufficientData(t *testing.T) {
	result := &model.ComparisonResult{
		Items: []model.ItemComparison{
			{Item: "Tomato", Qty: "1 kg",
				Prices:   map[model.Platform]*float64{},
				Metadata: map[model.Platform]model.CellMetadata{}},
		},
		Totals:         map[model.Platform]float64{},
		FoundCounts:    map[model.Platform]int{},
		Recommendation: "Could not compare prices due to insufficient data.",
	}

	out := RenderComparison(result)
	assert.Contains(t, out, "Could not compare prices")
	assert.Contains(t, out, WarningIcon)
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Plan 7", "Tomato                   1 kg")
	assert.Contains(t, out, "Plan 7")
	assert.Contains(t, out, "Tomato")
}

func TestFormatError(t *testing.T) {
	out := FormatError("no meal plans found")
	assert.Contains(t, out, ErrorIcon)
	assert.Contains(t, out, "no meal plans found")
}
