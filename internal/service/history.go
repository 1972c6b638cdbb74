package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/repository"
)

// HistoryService computes as-of historical winrate deltas along the three
// dimensions: calendar month, surface, and court-speed bucket.
//
// Each dimension degrades independently. A failed or undefined lookup on
// one dimension yields a neutral zero delta there and leaves the others
// untouched; its weight still participates in the normalization.
type HistoryService struct {
	matches repository.MatchRepository
	logger  *logrus.Logger
}

// NewHistoryService creates a history service
func NewHistoryService(matches repository.MatchRepository, logger *logrus.Logger) *HistoryService {
	return &HistoryService{matches: matches, logger: logger}
}

// HistDeltas are the raw (unclamped) per-dimension winrate differences,
// player minus opponent.
type HistDeltas struct {
	Month   float64
	Surface float64
	Speed   float64
}

// ComputeDeltas returns the historical deltas for the pair at asOf.
// Matches on or after asOf never contribute; this is what makes cached
// and replayed computations reproducible.
func (s *HistoryService) ComputeDeltas(ctx context.Context, playerID, opponentID int64, meta models.TournamentMeta, month, yearsBack int, asOf time.Time) HistDeltas {
	deltas := HistDeltas{}

	deltas.Month = s.dimensionDelta(ctx, models.DimMonth, func(id int64) (models.WinrateCount, error) {
		return s.matches.CountByMonth(ctx, id, month, yearsBack, asOf)
	}, playerID, opponentID)

	deltas.Surface = s.dimensionDelta(ctx, models.DimSurface, func(id int64) (models.WinrateCount, error) {
		return s.matches.CountBySurface(ctx, id, meta.Surface, yearsBack, asOf)
	}, playerID, opponentID)

	deltas.Speed = s.dimensionDelta(ctx, models.DimSpeed, func(id int64) (models.WinrateCount, error) {
		return s.matches.CountBySpeedBucket(ctx, id, meta.SpeedBucket, yearsBack, asOf)
	}, playerID, opponentID)

	return deltas
}

// dimensionDelta resolves both players' counts along one dimension and
// returns the winrate difference, or zero when either side is undefined.
func (s *HistoryService) dimensionDelta(ctx context.Context, dim models.HistDimension, count func(int64) (models.WinrateCount, error), playerID, opponentID int64) float64 {
	start := time.Now()
	defer func() {
		metrics.WinrateQueryDuration.WithLabelValues(string(dim)).Observe(time.Since(start).Seconds())
	}()

	playerCount, err := count(playerID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"dimension": dim,
			"player_id": playerID,
		}).Warn("Winrate lookup failed, dimension degrades to neutral")
		return 0
	}
	opponentCount, err := count(opponentID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"dimension": dim,
			"player_id": opponentID,
		}).Warn("Winrate lookup failed, dimension degrades to neutral")
		return 0
	}

	playerRate, playerOK := playerCount.Rate()
	opponentRate, opponentOK := opponentCount.Rate()
	if !playerOK || !opponentOK {
		// Zero matches played means the winrate is undefined, not 0%.
		return 0
	}
	return playerRate - opponentRate
}
