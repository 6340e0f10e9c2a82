package model

import "time"

// CellMetadata describes how a single item×platform price was produced.
type CellMetadata struct {
	MatchedName string `json:"matchedName,omitempty"`
	SourceUnit  string `json:"sourceUnit,omitempty"`
	IsEstimate  bool   `json:"isEstimate"`
}

// ItemComparison holds the per-platform resolved prices for one
// shopping-list item. A nil price means the platform could not price
// the item at all.
type ItemComparison struct {
	Prices   map[Platform]*float64     `json:"prices"`
	Metadata map[Platform]CellMetadata `json:"metadata"`
	Item     string                    `json:"item"`
	Qty      string                    `json:"qty"`
}

// ComparisonResult is the output of one comparison run across all
// shopping-list items and platforms.
type ComparisonResult struct {
	LastUpdated    time.Time            `json:"lastUpdated"`
	Totals         map[Platform]float64 `json:"totals"`
	FoundCounts    map[Platform]int     `json:"foundCounts"`
	BestPlatform   Platform             `json:"bestPlatform,omitempty"`
	Recommendation string               `json:"recommendation"`
	Items          []ItemComparison     `json:"results"`
}

// HasRecommendation reports whether a best platform was chosen. An
// empty BestPlatform means no platform reached the coverage threshold.
func (r *ComparisonResult) HasRecommendation() bool {
	return r.BestPlatform != ""
}

// Coverage returns the fraction of items the platform priced.
func (r *ComparisonResult) Coverage(p Platform) float64 {
	if len(r.Items) == 0 {
		return 0
	}
	return float64(r.FoundCounts[p]) / float64(len(r.Items))
}
