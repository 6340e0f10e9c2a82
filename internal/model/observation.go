package model

import "time"

// Observation provenance tags.
const (
	SourceExtension = "extension"
	SourceEstimate  = "estimate"
)

// PriceObservation is a single platform+product price fact, either
// captured from a real external source or synthesized from the market
// estimate table.
type PriceObservation struct {
	CapturedAt   time.Time `json:"capturedAt,omitempty"`
	Unit         string    `json:"unit"`
	OriginalName string    `json:"originalName,omitempty"`
	Source       string    `json:"source,omitempty"`
	SourceAlias  string    `json:"sourceAlias,omitempty"`
	Price        float64   `json:"price"`
	IsEstimate   bool      `json:"isEstimate"`
}

// IsReal reports whether the observation was captured from a real
// external source rather than estimated.
func (o PriceObservation) IsReal() bool {
	return !o.IsEstimate
}

// DisplayName returns the best human-readable name for the observation,
// falling back to the provided default when no catalog name was captured.
func (o PriceObservation) DisplayName(fallback string) string {
	if o.OriginalName != "" {
		return o.OriginalName
	}
	return fallback
}
