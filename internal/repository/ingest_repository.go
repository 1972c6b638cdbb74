package repository

import (
	"context"
	"fmt"

	"github.com/estratego/matchpoint/internal/database"
)

// PostgresIngestRepository implements IngestRepository for PostgreSQL.
type PostgresIngestRepository struct {
	db *database.DB
}

// NewPostgresIngestRepository creates a new ingest repository
func NewPostgresIngestRepository(db *database.DB) IngestRepository {
	return &PostgresIngestRepository{db: db}
}

// UpsertPlayer creates or refreshes the player row keyed by the archive's
// external identifier. Name and country are refreshed on conflict; ranking
// is only overwritten when the archive row carries one.
func (r *PostgresIngestRepository) UpsertPlayer(ctx context.Context, extID, name, country string, rank *int) (int64, error) {
	query := `
		INSERT INTO players (ext_provider_id, name, country_code, ranking)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ext_provider_id) DO UPDATE SET
			name         = EXCLUDED.name,
			country_code = EXCLUDED.country_code,
			ranking      = COALESCE(EXCLUDED.ranking, players.ranking)
		RETURNING player_id
	`

	var id int64
	if err := r.db.GetPool().QueryRow(ctx, query, extID, name, country, rank).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert player %s: %w", extID, err)
	}
	return id, nil
}

// InsertMatch stores one completed match. The unique index on ext_match_id
// makes re-imports of a season a no-op for rows already present.
func (r *PostgresIngestRepository) InsertMatch(ctx context.Context, match *ArchivedMatch) (bool, error) {
	query := `
		INSERT INTO matches (ext_match_id, match_date, tournament_name, surface, round, score, player_a, player_b, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $7)
		ON CONFLICT (ext_match_id) DO NOTHING
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		match.SourceID,
		match.Date,
		match.TournamentName,
		match.Surface,
		match.Round,
		match.Score,
		match.WinnerID,
		match.LoserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert match %s: %w", match.SourceID, err)
	}
	return tag.RowsAffected() > 0, nil
}
