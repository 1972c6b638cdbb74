package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/repository"
)

// memDurable is an in-memory stand-in for the PostgreSQL cache tier.
type memDurable struct {
	entries map[string]repository.CacheEntry
	failing bool
}

func newMemDurable() *memDurable {
	return &memDurable{entries: make(map[string]repository.CacheEntry)}
}

func (m *memDurable) Get(ctx context.Context, key string, now time.Time) (*repository.CacheEntry, error) {
	if m.failing {
		return nil, errors.New("connection refused")
	}
	entry, ok := m.entries[key]
	if !ok || !entry.ExpiresAt.After(now) {
		return nil, models.ErrNotFound
	}
	return &entry, nil
}

func (m *memDurable) Put(ctx context.Context, key string, snapshot models.MatchupSnapshot, ttl time.Duration) error {
	if m.failing {
		return errors.New("connection refused")
	}
	m.entries[key] = repository.CacheEntry{
		Key:        key,
		Snapshot:   snapshot,
		ComputedAt: snapshot.ComputedAt,
		ExpiresAt:  snapshot.ComputedAt.Add(ttl),
	}
	return nil
}

func (m *memDurable) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.failing {
		return 0, errors.New("connection refused")
	}
	var removed int64
	for k, entry := range m.entries {
		if !entry.ExpiresAt.After(now) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed, nil
}

func testConfig() *config.CacheConfig {
	return &config.CacheConfig{
		Enabled:          true,
		TTLLiveSeconds:   43200,
		TTLHistSeconds:   2592000,
		MemoryMaxEntries: 1000,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testSnapshot(prob float64, at time.Time) models.MatchupSnapshot {
	return models.MatchupSnapshot{
		ProbPlayer: prob,
		Features: models.FeatureSet{
			Deltas: models.FeatureDeltas{RankNorm: 0.3, HistSurface: 0.6},
			Flags:  models.FeatureFlags{IsLocalPlayer: 1, MotPointsOpp: 90},
		},
		Surface:     models.SurfaceClay,
		SpeedBucket: models.SpeedSlow,
		ComputedAt:  at,
	}
}

func TestKeyCanonicalOrder(t *testing.T) {
	forward, swappedF := NewKey(10, 20, "madrid_open", 5, models.SpeedSlow, 5, true)
	backward, swappedB := NewKey(20, 10, "madrid_open", 5, models.SpeedSlow, 5, true)

	assert.Equal(t, forward, backward)
	assert.False(t, swappedF)
	assert.True(t, swappedB)
	assert.Equal(t, "mu:10:20:madrid_open:5:Slow:5:live", forward.String())
}

func TestKeyModeSeparation(t *testing.T) {
	live, _ := NewKey(1, 2, "t", 1, models.SpeedMedium, 5, true)
	hist, _ := NewKey(1, 2, "t", 1, models.SpeedMedium, 5, false)

	assert.NotEqual(t, live.String(), hist.String())
}

func TestGetFlipsOrientation(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	mc := NewMatchupCache(testConfig(), newMemDurable(), testLogger())
	mc.now = func() time.Time { return now }

	ctx := context.Background()
	key, swapped := NewKey(10, 20, "t", 5, models.SpeedSlow, 5, false)
	require.False(t, swapped)

	mc.Put(ctx, key, testSnapshot(0.62, now), false)

	// Canonical orientation reads back unchanged.
	got, found := mc.Get(ctx, key, false)
	require.True(t, found)
	assert.InDelta(t, 0.62, got.ProbPlayer, 1e-12)
	assert.InDelta(t, 0.3, got.Features.Deltas.RankNorm, 1e-12)
	assert.Equal(t, 1, got.Features.Flags.IsLocalPlayer)

	// Swapped orientation gets the complement and mirrored signals.
	flipped, found := mc.Get(ctx, key, true)
	require.True(t, found)
	assert.InDelta(t, 0.38, flipped.ProbPlayer, 1e-12)
	assert.InDelta(t, -0.3, flipped.Features.Deltas.RankNorm, 1e-12)
	assert.InDelta(t, -0.6, flipped.Features.Deltas.HistSurface, 1e-12)
	assert.Equal(t, 1, flipped.Features.Flags.IsLocalOpp)
	assert.Equal(t, 90, flipped.Features.Flags.MotPointsPlayer)

	// The stored snapshot itself is untouched by flipped reads.
	again, found := mc.Get(ctx, key, false)
	require.True(t, found)
	assert.InDelta(t, 0.62, again.ProbPlayer, 1e-12)
}

func TestPutSwappedStoresCanonical(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	mc := NewMatchupCache(testConfig(), newMemDurable(), testLogger())
	mc.now = func() time.Time { return now }

	ctx := context.Background()
	key, swapped := NewKey(20, 10, "t", 5, models.SpeedSlow, 5, false)
	require.True(t, swapped)

	// Writer saw prob 0.7 for the higher-ID player.
	mc.Put(ctx, key, testSnapshot(0.7, now), swapped)

	// A canonical-order reader sees the complement.
	got, found := mc.Get(ctx, key, false)
	require.True(t, found)
	assert.InDelta(t, 0.3, got.ProbPlayer, 1e-12)

	// The original writer's orientation round-trips.
	back, found := mc.Get(ctx, key, true)
	require.True(t, found)
	assert.InDelta(t, 0.7, back.ProbPlayer, 1e-12)
}

func TestDurableTierSurvivesMemoryLoss(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	durable := newMemDurable()
	ctx := context.Background()

	first := NewMatchupCache(testConfig(), durable, testLogger())
	first.now = func() time.Time { return now }
	key, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, false)
	first.Put(ctx, key, testSnapshot(0.55, now), false)

	// A fresh process shares nothing but the durable tier.
	second := NewMatchupCache(testConfig(), durable, testLogger())
	second.now = func() time.Time { return now.Add(time.Hour) }

	got, found := second.Get(ctx, key, false)
	require.True(t, found)
	assert.InDelta(t, 0.55, got.ProbPlayer, 1e-12)
}

func TestLogicalExpiry(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	durable := newMemDurable()
	ctx := context.Background()

	mc := NewMatchupCache(testConfig(), durable, testLogger())
	mc.now = func() time.Time { return now }
	key, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, true)
	mc.Put(ctx, key, testSnapshot(0.55, now), false)

	// Past the live TTL the row still exists physically but reads miss.
	later := NewMatchupCache(testConfig(), durable, testLogger())
	later.now = func() time.Time { return now.Add(13 * time.Hour) }

	_, found := later.Get(ctx, key, false)
	assert.False(t, found)
	assert.Len(t, durable.entries, 1)

	removed, err := later.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Empty(t, durable.entries)
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	durable := newMemDurable()
	mc := NewMatchupCache(cfg, durable, testLogger())

	ctx := context.Background()
	key, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, false)
	mc.Put(ctx, key, testSnapshot(0.5, time.Now()), false)

	_, found := mc.Get(ctx, key, false)
	assert.False(t, found)
	assert.Empty(t, durable.entries)
}

func TestBackendFailureIsAMiss(t *testing.T) {
	durable := newMemDurable()
	durable.failing = true
	mc := NewMatchupCache(testConfig(), durable, testLogger())

	ctx := context.Background()
	key, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, false)

	// Neither read nor write surfaces the backend error.
	assert.NotPanics(t, func() {
		mc.Put(ctx, key, testSnapshot(0.5, time.Now()), false)
	})
	_, found := mc.Get(ctx, key, false)

	// The memory tier still serves within the same process.
	assert.True(t, found)
}

func TestMemoryTierBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MemoryMaxEntries = 1
	mc := NewMatchupCache(cfg, nil, testLogger())

	ctx := context.Background()
	first, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, false)
	second, _ := NewKey(3, 4, "t", 5, models.SpeedFast, 5, false)

	mc.Put(ctx, first, testSnapshot(0.55, time.Now()), false)
	// The tier is full of unexpired entries, so the second key is refused.
	mc.Put(ctx, second, testSnapshot(0.7, time.Now()), false)

	got, found := mc.Get(ctx, first, false)
	require.True(t, found)
	assert.InDelta(t, 0.55, got.ProbPlayer, 1e-12)

	_, found = mc.Get(ctx, second, false)
	assert.False(t, found)
	assert.Equal(t, 1, mc.memory.ItemCount())

	// A key already resident may still be refreshed at capacity.
	mc.Put(ctx, first, testSnapshot(0.6, time.Now()), false)
	got, found = mc.Get(ctx, first, false)
	require.True(t, found)
	assert.InDelta(t, 0.6, got.ProbPlayer, 1e-12)
}

func TestMemoryTierRefusalKeepsDurable(t *testing.T) {
	cfg := testConfig()
	cfg.MemoryMaxEntries = 1
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	durable := newMemDurable()
	mc := NewMatchupCache(cfg, durable, testLogger())
	mc.now = func() time.Time { return now }

	ctx := context.Background()
	first, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, false)
	second, _ := NewKey(3, 4, "t", 5, models.SpeedFast, 5, false)

	mc.Put(ctx, first, testSnapshot(0.55, now), false)
	mc.Put(ctx, second, testSnapshot(0.7, now), false)

	// The refused key is still served from the durable tier.
	got, found := mc.Get(ctx, second, false)
	require.True(t, found)
	assert.InDelta(t, 0.7, got.ProbPlayer, 1e-12)
}

func TestNilDurableTier(t *testing.T) {
	mc := NewMatchupCache(testConfig(), nil, testLogger())

	ctx := context.Background()
	key, _ := NewKey(1, 2, "t", 5, models.SpeedFast, 5, false)
	mc.Put(ctx, key, testSnapshot(0.5, time.Now()), false)

	_, found := mc.Get(ctx, key, false)
	assert.True(t, found)

	removed, err := mc.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
