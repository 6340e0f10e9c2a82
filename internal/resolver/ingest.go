package resolver

import (
	"strings"
	"time"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/normalize"
	"github.com/bachat-dev/bachat/internal/pricecache"
)

// IngestRequest is one captured price from an external observer,
// typically the companion browser extension.
type IngestRequest struct {
	Platform string  `json:"platform"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
}

// BulkResult reports the outcome of a batch ingestion.
type BulkResult struct {
	Saved int
	Total int
}

// IngestPrice validates and stores a real price capture. This is the
// only path by which non-estimate observations enter the cache.
func (r *Resolver) IngestPrice(req IngestRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	if req.Platform == "" || name == "" {
		return "", common.ErrMissingIngest
	}
	if req.Price <= 0 {
		return "", common.ErrInvalidPrice
	}

	platform := model.ParsePlatform(req.Platform)
	cleanName := normalize.Clean(name)

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "1 unit"
	}

	obs := model.PriceObservation{
		Price:        req.Price,
		Unit:         unit,
		IsEstimate:   false,
		OriginalName: name,
		Source:       model.SourceExtension,
		CapturedAt:   time.Now(),
	}
	r.cache.Set(platform, cleanName, obs)

	key := pricecache.Key(platform, cleanName)
	r.logger.Info("ingested price",
		"platform", platform, "item", name,
		"price", req.Price, "unit", unit)
	return key, nil
}

// IngestBulk stores a batch of captures, continuing past individual
// failures.
func (r *Resolver) IngestBulk(reqs []IngestRequest) BulkResult {
	result := BulkResult{Total: len(reqs)}

	for _, req := range reqs {
		if _, err := r.IngestPrice(req); err != nil {
			r.logger.Error("bulk ingest item failed",
				"item", req.Name, "error", err)
			continue
		}
		result.Saved++
	}

	r.logger.Info("bulk ingest complete",
		"saved", result.Saved, "total", result.Total)
	return result
}
