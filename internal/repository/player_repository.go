package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/estratego/matchpoint/internal/database"
	"github.com/estratego/matchpoint/internal/models"
)

// PostgresPlayerRepository implements PlayerRepository for PostgreSQL
type PostgresPlayerRepository struct {
	db *database.DB
}

// NewPostgresPlayerRepository creates a new player repository
func NewPostgresPlayerRepository(db *database.DB) PlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

const playerColumns = "player_id, name, country_code, ext_provider_id, ranking"

// GetByID fetches a player by canonical integer ID
func (r *PostgresPlayerRepository) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE player_id = $1
	`
	return r.scanOne(ctx, query, id)
}

// GetByExternalID fetches a player by external provider identifier
func (r *PostgresPlayerRepository) GetByExternalID(ctx context.Context, extID string) (*models.Player, error) {
	// Provider IDs arrive either prefixed ("sr:competitor:14882") or as the
	// bare numeric suffix; the lookup table stores the suffix.
	short := extID
	if idx := strings.LastIndex(extID, ":"); idx >= 0 {
		short = extID[idx+1:]
	}

	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE ext_provider_id = $1
		LIMIT 1
	`
	return r.scanOne(ctx, query, short)
}

// GetByName fetches the best match for a free-text name
func (r *PostgresPlayerRepository) GetByName(ctx context.Context, name string) (*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY length(name) ASC
		LIMIT 1
	`
	return r.scanOne(ctx, query, strings.TrimSpace(name))
}

func (r *PostgresPlayerRepository) scanOne(ctx context.Context, query string, arg any) (*models.Player, error) {
	player := &models.Player{}
	err := r.db.GetPool().QueryRow(ctx, query, arg).Scan(
		&player.ID, &player.Name, &player.Country, &player.ExternalID, &player.Ranking,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}
	return player, nil
}
