package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/repository"
	"github.com/estratego/matchpoint/internal/scoring"
)

// MatchupCache is the two-tier cache for computed matchup snapshots.
// The durable tier is optional; with a nil repository only the in-process
// tier is used. Backend failures degrade to a miss, never to an error.
type MatchupCache struct {
	memory   *gocache.Cache
	durable  repository.MatchupCacheRepository
	enabled  bool
	ttlLive  time.Duration
	ttlHist  time.Duration
	maxItems int
	logger   *logrus.Logger
	now      func() time.Time
}

// NewMatchupCache creates the cache from configuration. A disabled cache
// still satisfies the interface; all operations become no-ops.
func NewMatchupCache(cfg *config.CacheConfig, durable repository.MatchupCacheRepository, logger *logrus.Logger) *MatchupCache {
	ttlLive := cfg.TTLLive()
	return &MatchupCache{
		memory:   gocache.New(ttlLive, 2*ttlLive),
		durable:  durable,
		enabled:  cfg.Enabled,
		ttlLive:  ttlLive,
		ttlHist:  cfg.TTLHist(),
		maxItems: cfg.MemoryMaxEntries,
		logger:   logger,
		now:      time.Now,
	}
}

// TTLFor returns the TTL to apply for a snapshot, by data mode.
func (c *MatchupCache) TTLFor(live bool) time.Duration {
	if live {
		return c.ttlLive
	}
	return c.ttlHist
}

// Get returns the snapshot for key, oriented for the caller. When the
// request orientation was swapped to reach canonical order, the snapshot
// comes back with the probability complemented and all player/opponent
// signals mirrored.
func (c *MatchupCache) Get(ctx context.Context, key Key, swapped bool) (*models.MatchupSnapshot, bool) {
	if !c.enabled {
		return nil, false
	}

	keyStr := key.String()

	if raw, found := c.memory.Get(keyStr); found {
		if snapshot, ok := raw.(*models.MatchupSnapshot); ok {
			metrics.RecordCacheHit("memory")
			return orient(snapshot, swapped), true
		}
	}
	metrics.RecordCacheMiss("memory")

	if c.durable == nil {
		return nil, false
	}

	entry, err := c.durable.Get(ctx, keyStr, c.now())
	if err != nil {
		if err != models.ErrNotFound {
			c.logger.WithError(err).Warn("Durable cache read failed, treating as miss")
		}
		metrics.RecordCacheMiss("durable")
		return nil, false
	}
	metrics.RecordCacheHit("durable")

	// Re-warm the memory tier for the remaining lifetime of the entry.
	if remaining := entry.ExpiresAt.Sub(c.now()); remaining > 0 {
		c.setMemory(keyStr, &entry.Snapshot, remaining)
	}
	return orient(&entry.Snapshot, swapped), true
}

// Put stores the snapshot under key. The snapshot must already be in the
// caller's orientation; when swapped, it is mirrored into canonical order
// before storage so both orientations read the same row.
func (c *MatchupCache) Put(ctx context.Context, key Key, snapshot models.MatchupSnapshot, swapped bool) {
	if !c.enabled {
		return
	}

	canonical := orient(&snapshot, swapped)
	ttl := c.TTLFor(key.Live)
	keyStr := key.String()

	c.setMemory(keyStr, canonical, ttl)

	if c.durable == nil {
		return
	}
	if err := c.durable.Put(ctx, keyStr, *canonical, ttl); err != nil {
		// The durable tier is best effort; the computation already
		// succeeded and the memory tier holds the result.
		c.logger.WithError(err).Warn("Durable cache write failed")
	}
}

// PruneExpired physically removes expired rows from the durable tier.
func (c *MatchupCache) PruneExpired(ctx context.Context) (int64, error) {
	if c.durable == nil {
		return 0, nil
	}
	removed, err := c.durable.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, err
	}
	metrics.RecordCachePrune(removed, float64(c.now().Unix()))
	return removed, nil
}

func (c *MatchupCache) setMemory(key string, snapshot *models.MatchupSnapshot, ttl time.Duration) {
	if c.memory.ItemCount() >= c.maxItems {
		c.memory.DeleteExpired()
		// Existing keys may still be refreshed in place; new keys are
		// refused while the tier is full of unexpired entries. The
		// durable tier keeps the snapshot either way.
		if _, exists := c.memory.Get(key); !exists && c.memory.ItemCount() >= c.maxItems {
			return
		}
	}
	c.memory.Set(key, snapshot, ttl)
	metrics.MemoryCacheEntries.Set(float64(c.memory.ItemCount()))
}

// orient returns the snapshot as seen from the caller's side. Mirroring is
// an involution, so the same function serves reads and writes.
func orient(snapshot *models.MatchupSnapshot, swapped bool) *models.MatchupSnapshot {
	if !swapped {
		return snapshot
	}
	flipped := *snapshot
	flipped.ProbPlayer = 1 - snapshot.ProbPlayer
	flipped.Features = models.FeatureSet{
		Deltas: scoring.InvertDeltas(snapshot.Features.Deltas),
		Flags:  scoring.SwapFlags(snapshot.Features.Flags),
	}
	return &flipped
}
