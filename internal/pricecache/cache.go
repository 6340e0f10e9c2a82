// Package pricecache implements the durable price observation store.
// Entries are keyed by (platform, normalized item name), expire after a
// TTL, and are persisted to a single JSON file with write-through
// semantics plus a periodic autosave safety net.
package pricecache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bachat-dev/bachat/internal/model"
)

const (
	// TTL is how long an entry stays valid. Older entries are treated
	// as absent and evicted on access.
	TTL = 24 * time.Hour

	autosaveInterval = 5 * time.Minute

	// fuzzyMinLen guards the substring scan against matching on very
	// short generic names.
	fuzzyMinLen = 3
)

// Entry is a stored observation plus its store time.
type Entry struct {
	StoredAt time.Time              `json:"storedAt"`
	Value    model.PriceObservation `json:"value"`
}

// Candidate is a real (non-estimate) entry exposed to the semantic
// matcher.
type Candidate struct {
	StoredAt     time.Time
	Key          string
	OriginalName string
}

// Stats summarizes cache contents.
type Stats struct {
	Platforms map[model.Platform]int `json:"platforms"`
	Total     int                    `json:"total"`
	Estimated int                    `json:"estimated"`
	Captured  int                    `json:"captured"`
}

// Store is the process-wide price cache. All methods are safe for
// concurrent use; the in-memory update and the write-through save
// happen under one lock so concurrent writers to the same key are
// last-writer-wins with no torn persistence.
type Store struct {
	now     func() time.Time
	entries map[string]Entry
	stopCh  chan struct{}
	logger  *slog.Logger
	path    string
	mu      sync.RWMutex
}

// Key builds the canonical cache key for a platform and normalized name.
func Key(platform model.Platform, normalizedName string) string {
	return string(platform) + ":" + normalizedName
}

// Open loads the cache from path (creating parent directories as
// needed) and starts the autosave loop. An empty path disables
// persistence, which tests use for throwaway stores.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		entries: make(map[string]Entry),
		path:    path,
		logger:  logger,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		if err := s.load(); err != nil {
			// A corrupt cache file is recoverable: prices re-ingest
			// and estimates regenerate. Start empty rather than fail.
			logger.Warn("failed to load price cache, starting empty",
				"path", path, "error", err)
			s.entries = make(map[string]Entry)
		}
	}

	go s.autosave()

	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var entries map[string]Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}

	s.entries = entries
	s.logger.Info("loaded price cache", "path", s.path, "entries", len(entries))
	return nil
}

// saveLocked persists the full cache to disk. Callers must hold mu.
// Persistence failures are logged, never fatal.
func (s *Store) saveLocked() {
	if s.path == "" {
		return
	}

	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode price cache", "error", err)
		return
	}
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		s.logger.Error("failed to save price cache", "path", s.path, "error", err)
	}
}

func (s *Store) autosave() {
	ticker := time.NewTicker(autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.saveLocked()
			n := len(s.entries)
			s.mu.Unlock()
			s.logger.Debug("autosaved price cache", "entries", n)
		}
	}
}

// Get returns the observation for (platform, normalizedName). When no
// exact key exists, same-platform keys are scanned for a substring
// match against the requested name: items are frequently requested
// with shorter, more generic names than what was captured. Entries
// older than TTL are evicted and reported absent. The fuzzy scan
// iterates keys in sorted order so results are deterministic.
func (s *Store) Get(platform model.Platform, normalizedName string) (model.PriceObservation, bool) {
	key := Key(platform, normalizedName)

	s.mu.Lock()
	defer s.mu.Unlock()

	matchedKey := key
	entry, ok := s.entries[key]

	if !ok && len(normalizedName) >= fuzzyMinLen {
		prefix := string(platform) + ":"
		for _, k := range s.sortedKeysLocked() {
			if strings.HasPrefix(k, prefix) && strings.Contains(k[len(prefix):], normalizedName) {
				matchedKey = k
				entry = s.entries[k]
				ok = true
				s.logger.Debug("fuzzy cache match",
					"requested", normalizedName, "matched", k)
				break
			}
		}
	}

	if !ok {
		return model.PriceObservation{}, false
	}

	if s.now().Sub(entry.StoredAt) > TTL {
		delete(s.entries, matchedKey)
		s.saveLocked()
		return model.PriceObservation{}, false
	}

	return entry.Value, true
}

// Set upserts the observation and persists synchronously.
func (s *Store) Set(platform model.Platform, normalizedName string, obs model.PriceObservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[Key(platform, normalizedName)] = Entry{
		Value:    obs,
		StoredAt: s.now(),
	}
	s.saveLocked()
}

// RealCandidates returns all non-expired, non-estimate entries for the
// platform, for use as the semantic matching pool.
func (s *Store) RealCandidates(platform model.Platform) []Candidate {
	prefix := string(platform) + ":"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Candidate
	for key, entry := range s.entries {
		if !strings.HasPrefix(key, prefix) || entry.Value.IsEstimate {
			continue
		}
		if s.now().Sub(entry.StoredAt) > TTL {
			continue
		}
		name := entry.Value.OriginalName
		if name == "" {
			name = strings.TrimPrefix(key, prefix)
		}
		out = append(out, Candidate{
			Key:          key,
			OriginalName: name,
			StoredAt:     entry.StoredAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StoredAt.Equal(out[j].StoredAt) {
			return out[i].StoredAt.After(out[j].StoredAt)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// GetByKey returns the observation stored under a raw cache key.
func (s *Store) GetByKey(key string) (model.PriceObservation, bool) {
	idx := strings.IndexByte(key, ':')
	if idx < 0 {
		return model.PriceObservation{}, false
	}
	return s.Get(model.Platform(key[:idx]), key[idx+1:])
}

// ClearAll removes every entry.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	s.saveLocked()
	s.logger.Info("cleared price cache")
}

// ClearEstimates removes all estimate entries, leaving captured prices
// intact, and returns the number removed.
func (s *Store) ClearEstimates() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for key, entry := range s.entries {
		if entry.Value.IsEstimate {
			delete(s.entries, key)
			cleared++
		}
	}
	s.saveLocked()
	s.logger.Info("cleared estimated prices", "count", cleared)
	return cleared
}

// Stats summarizes the cache. Per-platform counts cover captured
// (non-estimate) entries, bucketed by the key's platform prefix.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Total:     len(s.entries),
		Platforms: make(map[model.Platform]int),
	}
	for _, p := range model.AllPlatforms() {
		stats.Platforms[p] = 0
	}

	for key, entry := range s.entries {
		if entry.Value.IsEstimate {
			stats.Estimated++
			continue
		}
		stats.Captured++
		if idx := strings.IndexByte(key, ':'); idx > 0 {
			platform := model.Platform(key[:idx])
			if platform.IsKnown() {
				stats.Platforms[platform]++
			}
		}
	}

	return stats
}

// LatestCaptureTime returns the newest capture timestamp across all
// non-estimate entries, falling back to the store time when a capture
// timestamp is missing. The zero time means no real captures exist.
// Callers use this for comparison staleness detection.
func (s *Store) LatestCaptureTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, entry := range s.entries {
		if entry.Value.IsEstimate {
			continue
		}
		at := entry.Value.CapturedAt
		if at.IsZero() {
			at = entry.StoredAt
		}
		if at.After(latest) {
			latest = at
		}
	}
	return latest
}

// Len returns the number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the autosave loop and performs a final save.
func (s *Store) Close() error {
	close(s.stopCh)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
	return nil
}

func (s *Store) sortedKeysLocked() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
