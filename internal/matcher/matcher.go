// Package matcher finds the best semantic match between a requested
// shopping-list item and previously captured product names, using a
// deterministic substring shortcut first and a text-completion model
// as the fallback.
package matcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bachat-dev/bachat/internal/common"
	"github.com/bachat-dev/bachat/internal/model"
	"github.com/bachat-dev/bachat/internal/pricecache"
	"github.com/bachat-dev/bachat/internal/service"
)

// maxCandidates bounds the prompt to the most recently captured
// products, which are the ones the user just looked at.
const maxCandidates = 50

// noMatchToken is the sentinel the model returns for a weak or missing
// match.
const noMatchToken = "null"

// Matcher resolves item names against the real entries in the price
// cache.
type Matcher struct {
	cache     *pricecache.Store
	completer service.Completer
	logger    *slog.Logger
	retryOpts service.RetryOptions
}

// New creates a matcher over the given cache and completion capability.
// A nil completer disables the semantic step; the deterministic
// shortcut still applies.
func New(cache *pricecache.Store, completer service.Completer, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		cache:     cache,
		completer: completer,
		logger:    logger,
		retryOpts: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// FindBestMatch returns the cache key of the best matching real entry
// for the requested item name, or false when nothing matches. Failures
// of the completion capability degrade to "no match" and never
// propagate.
func (m *Matcher) FindBestMatch(ctx context.Context, platform model.Platform, requestedName string) (string, bool) {
	lowerRequested := strings.ToLower(strings.TrimSpace(requestedName))
	candidates := m.cache.RealCandidates(platform)
	if len(candidates) == 0 {
		return "", false
	}

	// Cheap deterministic shortcut: textual containment is confident
	// enough that no ranking is needed.
	if len(lowerRequested) > 3 {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c.OriginalName), lowerRequested) {
				m.logger.Debug("fast semantic match",
					"requested", requestedName,
					"matched", c.OriginalName)
				return c.Key, true
			}
		}
	}

	if m.completer == nil {
		return "", false
	}

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.OriginalName
	}

	answer, err := m.complete(ctx, buildPrompt(requestedName, names))
	if err != nil {
		m.logger.Warn("semantic match failed",
			"requested", requestedName,
			"error", err)
		return "", false
	}

	match := strings.Trim(strings.TrimSpace(answer), `'"`)
	if match == "" || strings.EqualFold(match, noMatchToken) {
		return "", false
	}

	for _, c := range candidates {
		if c.OriginalName == match {
			m.logger.Info("semantic match",
				"requested", requestedName,
				"matched", match)
			return c.Key, true
		}
	}

	m.logger.Debug("semantic match returned unknown product",
		"requested", requestedName,
		"answer", match)
	return "", false
}

func (m *Matcher) complete(ctx context.Context, prompt string) (string, error) {
	var answer string

	err := common.WithRetry(ctx, func() error {
		response, err := m.completer.Complete(ctx, prompt)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		answer = response
		return nil
	}, m.retryOpts)

	return answer, err
}

func buildPrompt(requestedName string, candidates []string) string {
	list, _ := json.Marshal(candidates)

	return fmt.Sprintf(`I have a shopping list item: %q

Here is a list of available products in my cart (most recent first):
%s

Find the single best match.
- "Tomato" matches "Hybrid Tomato" or "Tamatar"
- "Milk" matches "Amul Taaza Milk"
- Prefer the plain, generic product. Do NOT pick specialty, premium, or organic variants unless the requested item itself asks for one.

Return ONLY the exact string from the list.
If NO good match exists, return "null".`, requestedName, list)
}
