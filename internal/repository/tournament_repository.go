package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/models"
)

// PostgresTournamentRepository implements TournamentRepository against the
// curated court-speed rankings table.
type PostgresTournamentRepository struct {
	db *database.DB
}

// NewPostgresTournamentRepository creates a new tournament repository
func NewPostgresTournamentRepository(db *database.DB) TournamentRepository {
	return &PostgresTournamentRepository{db: db}
}

const tournamentColumns = "tournament_key, tournament_name, surface, speed_rank, speed_bucket, category"

// GetByKey performs the exact lookup on the normalized canonical key
func (r *PostgresTournamentRepository) GetByKey(ctx context.Context, key string) (*models.TournamentMeta, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM court_speed_rankings
		WHERE tournament_key = $1
		LIMIT 1
	`
	return r.scanOne(ctx, query, key)
}

// FindByFuzzyName performs the substring fallback against raw names
func (r *PostgresTournamentRepository) FindByFuzzyName(ctx context.Context, name string) (*models.TournamentMeta, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM court_speed_rankings
		WHERE tournament_name ILIKE '%' || $1 || '%'
		ORDER BY length(tournament_name) ASC
		LIMIT 1
	`
	return r.scanOne(ctx, query, strings.TrimSpace(name))
}

func (r *PostgresTournamentRepository) scanOne(ctx context.Context, query string, arg any) (*models.TournamentMeta, error) {
	var (
		meta    models.TournamentMeta
		surface *string
		bucket  *string
	)
	err := r.db.GetPool().QueryRow(ctx, query, arg).Scan(
		&meta.Key, &meta.Name, &surface, &meta.SpeedRank, &bucket, &meta.Category,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament metadata: %w", err)
	}

	if surface != nil {
		meta.Surface = models.ParseSurface(*surface)
	} else {
		meta.Surface = models.SurfaceUnknown
	}
	if bucket != nil && *bucket != "" {
		meta.SpeedBucket = models.SpeedBucket(*bucket)
	} else if meta.SpeedRank != nil {
		meta.SpeedBucket = models.BucketFromRank(*meta.SpeedRank)
	}
	return &meta, nil
}
