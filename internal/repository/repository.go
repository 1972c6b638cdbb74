package repository

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Player       PlayerRepository
	Match        MatchRepository
	Tournament   TournamentRepository
	MatchupCache MatchupCacheRepository
	Ingest       IngestRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB, logger *logrus.Logger) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Player:       NewPostgresPlayerRepository(db),
		Match:        NewPostgresMatchRepository(db, logger),
		Tournament:   NewPostgresTournamentRepository(db),
		MatchupCache: NewPostgresMatchupCacheRepository(db),
		Ingest:       NewPostgresIngestRepository(db),
	}, nil
}
