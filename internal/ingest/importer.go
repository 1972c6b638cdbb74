// Package ingest loads archived season results into the matches table.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/datasource"
	"github.com/estratego/matchpoint/internal/repository"
)

// Summary reports what one import run did.
type Summary struct {
	Seasons  int `json:"seasons"`
	Matches  int `json:"matches"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Players  int `json:"players"`
}

// Importer streams seasons from a match source into the ingest store.
type Importer struct {
	source datasource.MatchSource
	store  repository.IngestRepository
	logger *logrus.Logger
}

// NewImporter creates an importer.
func NewImporter(source datasource.MatchSource, store repository.IngestRepository, logger *logrus.Logger) *Importer {
	return &Importer{source: source, store: store, logger: logger}
}

// ImportSeasons imports every season in [fromYear, toYear]. Seasons missing
// from the archive are skipped; any other error aborts the run. Player rows
// are upserted once per distinct archive identity per run.
func (i *Importer) ImportSeasons(ctx context.Context, fromYear, toYear int) (*Summary, error) {
	if fromYear > toYear {
		return nil, fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}

	summary := &Summary{}
	playerIDs := make(map[string]int64)

	for year := fromYear; year <= toYear; year++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := i.source.FetchSeason(ctx, year)
		if errors.Is(err, datasource.ErrSeasonNotFound) {
			i.logger.WithField("year", year).Warn("Season not available in archive, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetching season %d: %w", year, err)
		}
		summary.Seasons++

		for idx := range records {
			record := &records[idx]

			winnerID, err := i.resolvePlayer(ctx, playerIDs, record.Winner)
			if err != nil {
				return nil, err
			}
			loserID, err := i.resolvePlayer(ctx, playerIDs, record.Loser)
			if err != nil {
				return nil, err
			}

			inserted, err := i.store.InsertMatch(ctx, &repository.ArchivedMatch{
				SourceID:       record.SourceID,
				Date:           record.Date,
				TournamentName: record.TournamentName,
				Surface:        record.Surface,
				Round:          record.Round,
				Score:          record.Score,
				WinnerID:       winnerID,
				LoserID:        loserID,
			})
			if err != nil {
				return nil, err
			}

			summary.Matches++
			if inserted {
				summary.Inserted++
			} else {
				summary.Skipped++
			}
		}

		i.logger.WithFields(logrus.Fields{
			"year":    year,
			"matches": len(records),
		}).Info("Season imported")
	}

	summary.Players = len(playerIDs)
	return summary, nil
}

func (i *Importer) resolvePlayer(ctx context.Context, seen map[string]int64, entry datasource.PlayerEntry) (int64, error) {
	if id, ok := seen[entry.ExternalID]; ok {
		return id, nil
	}
	id, err := i.store.UpsertPlayer(ctx, entry.ExternalID, entry.Name, entry.Country, entry.Rank)
	if err != nil {
		return 0, fmt.Errorf("upserting player %s: %w", entry.Name, err)
	}
	seen[entry.ExternalID] = id
	return id, nil
}
