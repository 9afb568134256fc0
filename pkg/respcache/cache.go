// Package respcache keeps the last few successful suggestion responses for a
// feature in persistent key-value storage, so a UI can render instantly and
// skip paid API calls while a recent result is still fresh.
//
// A Cache follows a single-writer contract: the in-memory list is guarded, but
// a Load followed by a Save is not atomic against other writers of the same
// key, and concurrent writers are last-write-wins. The cache is advisory and
// never a source of truth.
package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/closetkit/closet/pkg/kv"
	"github.com/closetkit/closet/pkg/models"
)

const (
	DefaultKey        = "weatherPicksCache"
	DefaultMaxEntries = 5
	DefaultMaxAge     = 24 * time.Hour
)

// Options configures a Cache. Zero values fall back to the defaults.
type Options struct {
	Key        string
	MaxEntries int
	MaxAge     time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

// Cache is a bounded, time-boxed list of responses, newest first.
type Cache struct {
	store      kv.Store
	key        string
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
	log        *slog.Logger

	mu      sync.Mutex
	entries []models.CacheEntry

	hits       atomic.Int64
	misses     atomic.Int64
	recoveries atomic.Int64
}

// document is the persisted value: {"entries": [...]}.
type document struct {
	Entries []models.CacheEntry `json:"entries"`
}

// New creates an empty Cache over store. Call Load to read persisted entries.
func New(store kv.Store, opts Options) *Cache {
	c := &Cache{
		store:      store,
		key:        opts.Key,
		maxEntries: opts.MaxEntries,
		maxAge:     opts.MaxAge,
		now:        opts.Now,
		log:        opts.Logger,
	}
	if c.key == "" {
		c.key = DefaultKey
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if c.maxAge <= 0 {
		c.maxAge = DefaultMaxAge
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("cache", c.key)
	return c
}

// Key returns the storage key this cache persists under.
func (c *Cache) Key() string { return c.key }

// Load replaces the in-memory list with the persisted entries that are still
// younger than MaxAge. Expired entries are dropped without rewriting the
// stored value; if nothing survives the key is deleted. Missing or corrupt
// data yields an empty cache and never an error.
func (c *Cache) Load(ctx context.Context) []models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil

	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		c.log.Warn("response cache read failed", "error", err)
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.log.Warn("response cache corrupt, deleting", "error", err)
		c.deleteKey(ctx)
		return nil
	}

	now := c.now()
	kept := make([]models.CacheEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		if now.Sub(e.Timestamp) >= c.maxAge {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > c.maxEntries {
		kept = kept[:c.maxEntries]
	}
	if len(kept) == 0 {
		c.deleteKey(ctx)
		return nil
	}

	c.entries = kept
	return c.snapshot()
}

// Latest returns the most recent entry.
func (c *Cache) Latest() (models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return models.CacheEntry{}, false
	}
	return c.entries[0].Clone(), true
}

// Entries returns a copy of the cached entries, newest first.
func (c *Cache) Entries() []models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Save prepends a new entry stamped with the current time, trims the list to
// MaxEntries and persists it. A failed write clears the cache; the result
// says which recovery ran.
func (c *Cache) Save(ctx context.Context, contextKey models.SuggestionContext, payload json.RawMessage) SaveResult {
	if len(payload) == 0 {
		payload = json.RawMessage("[]")
	}
	if !json.Valid(payload) {
		return SaveResult{Outcome: OutcomeRejected, Err: errors.New("payload is not valid JSON")}
	}

	entry := models.CacheEntry{
		Timestamp: c.now().UTC(),
		Context:   contextKey.Clone(),
		Payload:   append(json.RawMessage(nil), payload...),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]models.CacheEntry, 0, c.maxEntries)
	next = append(next, entry)
	next = append(next, c.entries...)
	if len(next) > c.maxEntries {
		next = next[:c.maxEntries]
	}

	data, err := json.Marshal(document{Entries: next})
	if err != nil {
		return c.recoverLocked(ctx, OutcomeClearedOnError, fmt.Errorf("encode cache: %w", err))
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		if errors.Is(err, kv.ErrQuotaExceeded) {
			return c.recoverLocked(ctx, OutcomeClearedOnQuota, err)
		}
		return c.recoverLocked(ctx, OutcomeClearedOnError, err)
	}

	c.entries = next
	return SaveResult{Outcome: OutcomeStored, Entry: entry.Clone()}
}

// Clear deletes the persisted key and empties the in-memory list.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("clear %s: %w", c.key, err)
	}
	return nil
}

// IsFresh reports whether the latest entry exists and is younger than maxAge.
func (c *Cache) IsFresh(maxAge time.Duration) bool {
	latest, ok := c.Latest()
	if ok && c.now().Sub(latest.Timestamp) < maxAge {
		c.hits.Add(1)
		return true
	}
	c.misses.Add(1)
	return false
}

// AgeMinutes returns the age of the latest entry in whole minutes.
// Clock skew is not compensated.
func (c *Cache) AgeMinutes() (int, bool) {
	latest, ok := c.Latest()
	if !ok {
		return 0, false
	}
	return int(c.now().Sub(latest.Timestamp) / time.Minute), true
}

// Stats returns cache counters.
func (c *Cache) Stats() models.CacheStats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return models.CacheStats{
		Entries:    int64(n),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Recoveries: c.recoveries.Load(),
	}
}

// recoverLocked applies the clear-on-failure policy. Callers hold c.mu.
func (c *Cache) recoverLocked(ctx context.Context, outcome Outcome, cause error) SaveResult {
	c.recoveries.Add(1)
	c.entries = nil
	c.deleteKey(ctx)
	c.log.Warn("response cache cleared after failed write", "outcome", outcome.String(), "error", cause)
	return SaveResult{Outcome: outcome, Err: cause}
}

func (c *Cache) deleteKey(ctx context.Context) {
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.log.Warn("response cache delete failed", "error", err)
	}
}

func (c *Cache) snapshot() []models.CacheEntry {
	if len(c.entries) == 0 {
		return nil
	}
	out := make([]models.CacheEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}
