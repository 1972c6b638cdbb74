package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/models"
)

// PostgresMatchRepository implements MatchRepository for PostgreSQL.
//
// Each dimension has one resolution order: the pre-aggregated feature-store
// view first, then the raw join-and-count over the matches table. Both paths
// compute the same population, so the raw path doubles as the verification
// oracle for the views.
type PostgresMatchRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB, logger *logrus.Logger) MatchRepository {
	return &PostgresMatchRepository{db: db, logger: logger}
}

// CountByMonth counts wins/played in the given calendar month of the year.
func (r *PostgresMatchRepository) CountByMonth(ctx context.Context, playerID int64, month, yearsBack int, asOf time.Time) (models.WinrateCount, error) {
	if month < 1 || month > 12 {
		return models.WinrateCount{}, models.ErrInvalidMonth
	}

	viewQuery := `
		SELECT wins, played
		FROM fs_player_month_winrate
		WHERE player_id = $1 AND month = $2 AND years_back = $3
	`
	if count, err := r.fromView(ctx, viewQuery, playerID, month, yearsBack); err == nil {
		return count, nil
	}

	rawQuery := `
		SELECT
			COUNT(*) FILTER (WHERE winner_id = $1) AS wins,
			COUNT(*) AS played
		FROM matches
		WHERE (player_a = $1 OR player_b = $1)
		  AND match_date < $4
		  AND match_date >= $4 - make_interval(years => $3)
		  AND EXTRACT(MONTH FROM match_date) = $2
	`
	return r.fromRaw(ctx, "month", rawQuery, playerID, month, yearsBack, asOf)
}

// CountBySurface counts wins/played on the given surface. When the match row
// carries no authoritative surface, the court-speed table joined by
// normalized tournament name supplies it.
func (r *PostgresMatchRepository) CountBySurface(ctx context.Context, playerID int64, surface models.Surface, yearsBack int, asOf time.Time) (models.WinrateCount, error) {
	viewQuery := `
		SELECT wins, played
		FROM fs_player_surface_winrate
		WHERE player_id = $1 AND surface = $2 AND years_back = $3
	`
	if count, err := r.fromView(ctx, viewQuery, playerID, string(surface), yearsBack); err == nil {
		return count, nil
	}

	rawQuery := `
		SELECT
			COUNT(*) FILTER (WHERE m.winner_id = $1) AS wins,
			COUNT(*) AS played
		FROM matches m
		LEFT JOIN court_speed_rankings cs
		  ON cs.tournament_key = normalize_tournament_key(m.tournament_name)
		WHERE (m.player_a = $1 OR m.player_b = $1)
		  AND m.match_date < $4
		  AND m.match_date >= $4 - make_interval(years => $3)
		  AND lower(COALESCE(NULLIF(m.surface, ''), cs.surface, '')) = lower($2)
	`
	return r.fromRaw(ctx, "surface", rawQuery, playerID, string(surface), yearsBack, asOf)
}

// CountBySpeedBucket counts wins/played in the given court-speed bucket.
// Bucket resolution order inside the query mirrors the metadata resolver:
// explicit bucket, then rank-derived bucket, then surface-derived bucket.
func (r *PostgresMatchRepository) CountBySpeedBucket(ctx context.Context, playerID int64, bucket models.SpeedBucket, yearsBack int, asOf time.Time) (models.WinrateCount, error) {
	viewQuery := `
		SELECT wins, played
		FROM fs_player_speed_winrate
		WHERE player_id = $1 AND speed_bucket = $2 AND years_back = $3
	`
	if count, err := r.fromView(ctx, viewQuery, playerID, string(bucket), yearsBack); err == nil {
		return count, nil
	}

	rawQuery := `
		SELECT
			COUNT(*) FILTER (WHERE m.winner_id = $1) AS wins,
			COUNT(*) AS played
		FROM matches m
		LEFT JOIN court_speed_rankings cs
		  ON cs.tournament_key = normalize_tournament_key(m.tournament_name)
		WHERE (m.player_a = $1 OR m.player_b = $1)
		  AND m.match_date < $4
		  AND m.match_date >= $4 - make_interval(years => $3)
		  AND COALESCE(
		        NULLIF(cs.speed_bucket, ''),
		        CASE
		          WHEN cs.speed_rank IS NOT NULL AND cs.speed_rank <= 33 THEN 'Slow'
		          WHEN cs.speed_rank IS NOT NULL AND cs.speed_rank <= 66 THEN 'Medium'
		          WHEN cs.speed_rank IS NOT NULL THEN 'Fast'
		        END,
		        CASE
		          WHEN lower(COALESCE(NULLIF(m.surface, ''), cs.surface, '')) LIKE '%grass%'  THEN 'Fast'
		          WHEN lower(COALESCE(NULLIF(m.surface, ''), cs.surface, '')) LIKE '%indoor%' THEN 'Fast'
		          WHEN lower(COALESCE(NULLIF(m.surface, ''), cs.surface, '')) LIKE '%clay%'   THEN 'Slow'
		          WHEN lower(COALESCE(NULLIF(m.surface, ''), cs.surface, '')) LIKE '%hard%'   THEN 'Medium'
		        END
		      ) = $2
	`
	return r.fromRaw(ctx, "speed", rawQuery, playerID, string(bucket), yearsBack, asOf)
}

// fromView runs the pre-aggregated query; a missing row or view counts as a
// failed path and falls through to the raw aggregation.
func (r *PostgresMatchRepository) fromView(ctx context.Context, query string, args ...any) (models.WinrateCount, error) {
	var count models.WinrateCount
	err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(&count.Wins, &count.Played)
	if err == pgx.ErrNoRows {
		return models.WinrateCount{}, models.ErrNotFound
	}
	if err != nil {
		return models.WinrateCount{}, fmt.Errorf("winrate view query failed: %w", err)
	}
	return count, nil
}

func (r *PostgresMatchRepository) fromRaw(ctx context.Context, dimension, query string, args ...any) (models.WinrateCount, error) {
	metrics.WinrateFallbacksTotal.WithLabelValues(dimension).Inc()
	if r.logger != nil {
		r.logger.WithField("dimension", dimension).Debug("winrate view unavailable, using raw aggregation")
	}

	var count models.WinrateCount
	err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(&count.Wins, &count.Played)
	if err != nil {
		return models.WinrateCount{}, fmt.Errorf("winrate raw aggregation failed: %w", err)
	}
	return count, nil
}
