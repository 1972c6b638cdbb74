// Package repository contains the PostgreSQL data access layer.
package repository

import (
	"context"
	"time"

	"github.com/estratego/matchpoint/internal/models"
)

// PlayerRepository resolves and reads canonical player rows.
type PlayerRepository interface {
	// GetByID fetches a player by canonical integer ID.
	GetByID(ctx context.Context, id int64) (*models.Player, error)
	// GetByExternalID fetches a player by external provider identifier.
	// The short numeric suffix form ("14882") matches the prefixed form.
	GetByExternalID(ctx context.Context, extID string) (*models.Player, error)
	// GetByName fetches the best match for a free-text name.
	GetByName(ctx context.Context, name string) (*models.Player, error)
}

// MatchRepository aggregates historical match outcomes. Every method
// restricts the population to matches strictly before asOf and within the
// trailing yearsBack window, and returns (wins, played) so a zero population
// stays distinguishable from a zero winrate.
type MatchRepository interface {
	CountByMonth(ctx context.Context, playerID int64, month, yearsBack int, asOf time.Time) (models.WinrateCount, error)
	CountBySurface(ctx context.Context, playerID int64, surface models.Surface, yearsBack int, asOf time.Time) (models.WinrateCount, error)
	CountBySpeedBucket(ctx context.Context, playerID int64, bucket models.SpeedBucket, yearsBack int, asOf time.Time) (models.WinrateCount, error)
}

// TournamentRepository looks up curated court-speed metadata.
type TournamentRepository interface {
	// GetByKey performs the exact lookup on the normalized canonical key.
	GetByKey(ctx context.Context, key string) (*models.TournamentMeta, error)
	// FindByFuzzyName performs the substring fallback against raw names.
	FindByFuzzyName(ctx context.Context, name string) (*models.TournamentMeta, error)
}

// IngestRepository writes archived results into the canonical tables.
// Both operations are idempotent so season imports can be re-run.
type IngestRepository interface {
	// UpsertPlayer creates or refreshes the player row for the archive
	// identity and returns its canonical ID.
	UpsertPlayer(ctx context.Context, extID, name, country string, rank *int) (int64, error)
	// InsertMatch stores one completed match, reporting false when the
	// source ID was already present.
	InsertMatch(ctx context.Context, match *ArchivedMatch) (bool, error)
}

// ArchivedMatch is one result row ready for insertion, with both sides
// already resolved to canonical player IDs.
type ArchivedMatch struct {
	SourceID       string
	Date           time.Time
	TournamentName string
	Surface        string
	Round          string
	Score          string
	WinnerID       int64
	LoserID        int64
}

// CacheEntry is one durable matchup cache row.
type CacheEntry struct {
	Key        string
	Snapshot   models.MatchupSnapshot
	ComputedAt time.Time
	ExpiresAt  time.Time
}

// MatchupCacheRepository is the durable tier of the matchup cache.
type MatchupCacheRepository interface {
	// Get returns the entry for key, or models.ErrNotFound when absent or
	// logically expired.
	Get(ctx context.Context, key string, now time.Time) (*CacheEntry, error)
	// Put atomically overwrites the entry for key.
	Put(ctx context.Context, key string, snapshot models.MatchupSnapshot, ttl time.Duration) error
	// DeleteExpired physically removes rows past their expiry.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
