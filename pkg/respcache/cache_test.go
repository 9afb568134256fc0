package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/closetkit/closet/pkg/kv"
	"github.com/closetkit/closet/pkg/kv/memory"
	kvsqlite "github.com/closetkit/closet/pkg/kv/sqlite"
	"github.com/closetkit/closet/pkg/models"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// failingStore rejects every Set with err.
type failingStore struct {
	kv.Store
	err error
}

func (f *failingStore) Set(context.Context, string, []byte) error { return f.err }

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, store kv.Store, clock *fakeClock) *Cache {
	t.Helper()
	return New(store, Options{
		Now:    clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func payload(i int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`[{"title":"P%d","item_ids":["top%d"]}]`, i, i))
}

func titles(t *testing.T, entries []models.CacheEntry) []string {
	t.Helper()
	var out []string
	for _, e := range entries {
		var s []models.OutfitSuggestion
		if err := json.Unmarshal(e.Payload, &s); err != nil {
			t.Fatal(err)
		}
		out = append(out, s[0].Title)
	}
	return out
}

func writeDoc(t *testing.T, store kv.Store, entries ...models.CacheEntry) {
	t.Helper()
	data, err := json.Marshal(document{Entries: entries})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(context.Background(), DefaultKey, data); err != nil {
		t.Fatal(err)
	}
}

func TestSaveEvictsOldest(t *testing.T) {
	store := memory.New(0)
	clock := &fakeClock{t: base}
	c := newTestCache(t, store, clock)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		res := c.Save(ctx, models.SuggestionContext{Occasion: "work"}, payload(i))
		if res.Outcome != OutcomeStored {
			t.Fatalf("save %d: outcome %s (%v)", i, res.Outcome, res.Err)
		}
		clock.Advance(time.Minute)
	}

	want := []string{"P7", "P6", "P5", "P4", "P3"}
	got := titles(t, c.Entries())
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("in-memory entries = %v, want %v", got, want)
	}

	reloaded := newTestCache(t, store, clock).Load(ctx)
	if got := titles(t, reloaded); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("persisted entries = %v, want %v", got, want)
	}
}

func TestLoadPurgesExpired(t *testing.T) {
	store := memory.New(0)
	clock := &fakeClock{t: base}
	writeDoc(t, store,
		models.CacheEntry{Timestamp: base.Add(-23 * time.Hour), Payload: payload(1)},
		models.CacheEntry{Timestamp: base.Add(-25 * time.Hour), Payload: payload(2)},
	)

	c := newTestCache(t, store, clock)
	entries := c.Load(context.Background())
	if got := titles(t, entries); fmt.Sprint(got) != "[P1]" {
		t.Errorf("entries after load = %v, want [P1]", got)
	}

	// Purged entries are not re-persisted on load.
	data, err := store.Get(context.Background(), DefaultKey)
	if err != nil {
		t.Fatal(err)
	}
	var doc document
	_ = json.Unmarshal(data, &doc)
	if len(doc.Entries) != 2 {
		t.Errorf("load should not rewrite storage, got %d stored entries", len(doc.Entries))
	}
}

func TestLoadExactlyMaxAgeIsExpired(t *testing.T) {
	store := memory.New(0)
	clock := &fakeClock{t: base}
	writeDoc(t, store, models.CacheEntry{Timestamp: base.Add(-DefaultMaxAge), Payload: payload(1)})

	if entries := newTestCache(t, store, clock).Load(context.Background()); len(entries) != 0 {
		t.Errorf("entry aged exactly MaxAge should be purged, got %d", len(entries))
	}
}

func TestLoadDeletesKeyWhenAllExpired(t *testing.T) {
	store := memory.New(0)
	clock := &fakeClock{t: base}
	writeDoc(t, store, models.CacheEntry{Timestamp: base.Add(-25 * time.Hour), Payload: payload(1)})

	c := newTestCache(t, store, clock)
	if entries := c.Load(context.Background()); len(entries) != 0 {
		t.Fatalf("expected empty cache, got %d entries", len(entries))
	}
	if _, err := store.Get(context.Background(), DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected key to be deleted, got %v", err)
	}
}

func TestLoadCorruptDeletesKey(t *testing.T) {
	store := memory.New(0)
	_ = store.Set(context.Background(), DefaultKey, []byte("{not json"))

	c := newTestCache(t, store, &fakeClock{t: base})
	if entries := c.Load(context.Background()); len(entries) != 0 {
		t.Fatalf("expected empty cache, got %d entries", len(entries))
	}
	if _, err := store.Get(context.Background(), DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected corrupt key to be deleted, got %v", err)
	}
}

func TestLoadMissingKey(t *testing.T) {
	c := newTestCache(t, memory.New(0), &fakeClock{t: base})
	if entries := c.Load(context.Background()); len(entries) != 0 {
		t.Errorf("expected empty cache, got %d", len(entries))
	}
	if _, ok := c.Latest(); ok {
		t.Error("expected no latest entry")
	}
	if _, ok := c.AgeMinutes(); ok {
		t.Error("expected no age for empty cache")
	}
}

func TestLoadTrimsToMaxEntries(t *testing.T) {
	store := memory.New(0)
	var entries []models.CacheEntry
	for i := 1; i <= 4; i++ {
		entries = append(entries, models.CacheEntry{Timestamp: base.Add(-time.Duration(i) * time.Minute), Payload: payload(i)})
	}
	writeDoc(t, store, entries...)

	c := New(store, Options{MaxEntries: 2, Now: (&fakeClock{t: base}).Now})
	if got := titles(t, c.Load(context.Background())); fmt.Sprint(got) != "[P1 P2]" {
		t.Errorf("got %v, want [P1 P2]", got)
	}
}

func TestIsFreshAndAge(t *testing.T) {
	clock := &fakeClock{t: base}
	c := newTestCache(t, memory.New(0), clock)
	c.Save(context.Background(), models.SuggestionContext{}, payload(1))
	clock.Advance(45 * time.Minute)

	if !c.IsFresh(60 * time.Minute) {
		t.Error("45m old entry should be fresh within 60m")
	}
	if c.IsFresh(30 * time.Minute) {
		t.Error("45m old entry should not be fresh within 30m")
	}
	age, ok := c.AgeMinutes()
	if !ok || age != 45 {
		t.Errorf("AgeMinutes = %d, %v; want 45, true", age, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestIsFreshEmpty(t *testing.T) {
	c := newTestCache(t, memory.New(0), &fakeClock{t: base})
	if c.IsFresh(time.Hour) {
		t.Error("empty cache cannot be fresh")
	}
}

func TestSaveClearsOnQuota(t *testing.T) {
	store := memory.New(200)
	c := newTestCache(t, store, &fakeClock{t: base})
	ctx := context.Background()

	if res := c.Save(ctx, models.SuggestionContext{}, payload(1)); res.Outcome != OutcomeStored {
		t.Fatalf("first save: %s (%v)", res.Outcome, res.Err)
	}

	big := json.RawMessage(fmt.Sprintf(`[{"title":"%0300d"}]`, 0))
	res := c.Save(ctx, models.SuggestionContext{}, big)
	if res.Outcome != OutcomeClearedOnQuota {
		t.Fatalf("outcome = %s, want cleared_on_quota", res.Outcome)
	}
	if !res.Degraded() || !errors.Is(res.Err, kv.ErrQuotaExceeded) {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(c.Entries()) != 0 {
		t.Error("cache should be empty after quota recovery")
	}
	if _, err := store.Get(ctx, DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected key deleted after quota recovery, got %v", err)
	}
	if c.Stats().Recoveries != 1 {
		t.Errorf("expected 1 recovery, got %d", c.Stats().Recoveries)
	}
}

func TestSaveClearsOnWriteError(t *testing.T) {
	inner := memory.New(0)
	clock := &fakeClock{t: base}
	ctx := context.Background()

	seed := newTestCache(t, inner, clock)
	seed.Save(ctx, models.SuggestionContext{}, payload(1))

	c := newTestCache(t, &failingStore{Store: inner, err: errors.New("disk unavailable")}, clock)
	c.Load(ctx)
	res := c.Save(ctx, models.SuggestionContext{}, payload(2))
	if res.Outcome != OutcomeClearedOnError {
		t.Fatalf("outcome = %s, want cleared_on_error", res.Outcome)
	}
	if _, err := inner.Get(ctx, DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected key deleted, got %v", err)
	}
}

func TestSaveRejectsInvalidPayload(t *testing.T) {
	c := newTestCache(t, memory.New(0), &fakeClock{t: base})
	ctx := context.Background()
	c.Save(ctx, models.SuggestionContext{}, payload(1))

	res := c.Save(ctx, models.SuggestionContext{}, json.RawMessage("{oops"))
	if res.Outcome != OutcomeRejected || res.Degraded() {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(c.Entries()) != 1 {
		t.Error("rejected payload must not touch the cache")
	}
}

func TestEntriesAreImmutable(t *testing.T) {
	c := newTestCache(t, memory.New(0), &fakeClock{t: base})
	p := payload(1)
	c.Save(context.Background(), models.SuggestionContext{Weather: &models.WeatherSnapshot{TempC: 12}}, p)
	p[2] = 'X'

	got, _ := c.Latest()
	got.Payload[3] = 'Y'
	got.Context.Weather.TempC = 40

	again, _ := c.Latest()
	if string(again.Payload) != string(payload(1)) {
		t.Errorf("cached payload mutated: %s", again.Payload)
	}
	if again.Context.Weather.TempC != 12 {
		t.Errorf("cached context mutated: %v", again.Context.Weather.TempC)
	}
}

func TestClear(t *testing.T) {
	store := memory.New(0)
	c := newTestCache(t, store, &fakeClock{t: base})
	ctx := context.Background()
	c.Save(ctx, models.SuggestionContext{}, payload(1))

	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if len(c.Entries()) != 0 {
		t.Error("expected empty cache after clear")
	}
	if _, err := store.Get(ctx, DefaultKey); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected key deleted, got %v", err)
	}
}

func TestSeparateKeysAreIndependent(t *testing.T) {
	store := memory.New(0)
	clock := &fakeClock{t: base}
	ctx := context.Background()

	picks := New(store, Options{Key: "weatherPicksCache", Now: clock.Now})
	trends := New(store, Options{Key: "trendCache", Now: clock.Now})
	picks.Save(ctx, models.SuggestionContext{}, payload(1))

	if entries := trends.Load(ctx); len(entries) != 0 {
		t.Errorf("trend cache should be empty, got %d", len(entries))
	}
	if err := trends.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if entries := New(store, Options{Key: "weatherPicksCache", Now: clock.Now}).Load(ctx); len(entries) != 1 {
		t.Errorf("clearing one cache must not affect another, got %d", len(entries))
	}
}

func TestPersistsThroughSQLite(t *testing.T) {
	store, err := kvsqlite.New(filepath.Join(t.TempDir(), "kv.db"), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &fakeClock{t: base}
	ctx := context.Background()
	weather := &models.WeatherSnapshot{TempC: 18.5, Condition: "cloudy"}
	newTestCache(t, store, clock).Save(ctx, models.SuggestionContext{Feature: "weather-picks", Weather: weather}, payload(1))

	clock.Advance(2 * time.Hour)
	entries := newTestCache(t, store, clock).Load(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", entries[0].Timestamp, base)
	}
	if entries[0].Context.Weather == nil || entries[0].Context.Weather.Condition != "cloudy" {
		t.Errorf("context not round-tripped: %+v", entries[0].Context)
	}
}
