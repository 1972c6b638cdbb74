package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/models"
)

// PostgresMatchupCacheRepository implements the durable matchup cache tier.
// Writes are single-row upserts, so last-writer-wins without extra locking.
type PostgresMatchupCacheRepository struct {
	db *database.DB
}

// NewPostgresMatchupCacheRepository creates a new matchup cache repository
func NewPostgresMatchupCacheRepository(db *database.DB) MatchupCacheRepository {
	return &PostgresMatchupCacheRepository{db: db}
}

// Get returns the entry for key, treating logical expiry as a miss.
// Expired rows stay in place until the pruning job removes them.
func (r *PostgresMatchupCacheRepository) Get(ctx context.Context, key string, now time.Time) (*CacheEntry, error) {
	query := `
		SELECT cache_key, payload, computed_at, expires_at
		FROM matchup_cache
		WHERE cache_key = $1 AND expires_at > $2
	`

	var (
		entry CacheEntry
		raw   []byte
	)
	err := r.db.GetPool().QueryRow(ctx, query, key, now).Scan(
		&entry.Key, &raw, &entry.ComputedAt, &entry.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read matchup cache: %w", err)
	}

	if err := json.Unmarshal(raw, &entry.Snapshot); err != nil {
		// A corrupt payload is indistinguishable from a miss for callers.
		return nil, models.ErrNotFound
	}
	return &entry, nil
}

// Put atomically overwrites the entry for key. The whole payload is
// replaced; there are no partial merges.
func (r *PostgresMatchupCacheRepository) Put(ctx context.Context, key string, snapshot models.MatchupSnapshot, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode matchup snapshot: %w", err)
	}

	query := `
		INSERT INTO matchup_cache (cache_key, payload, computed_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    computed_at = EXCLUDED.computed_at,
		    expires_at = EXCLUDED.expires_at
	`
	_, err = r.db.GetPool().Exec(ctx, query, key, raw, snapshot.ComputedAt, snapshot.ComputedAt.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to upsert matchup cache: %w", err)
	}
	return nil
}

// DeleteExpired physically removes rows past their expiry
func (r *PostgresMatchupCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM matchup_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune matchup cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
