package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/sportradar"
)

// Shared in-memory fakes for the service tests.

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type stubPlayerRepo struct {
	players []models.Player
}

func (r *stubPlayerRepo) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	for i := range r.players {
		if r.players[i].ID == id {
			return &r.players[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *stubPlayerRepo) GetByExternalID(ctx context.Context, extID string) (*models.Player, error) {
	if idx := strings.LastIndex(extID, ":"); idx >= 0 {
		extID = extID[idx+1:]
	}
	for i := range r.players {
		if r.players[i].ExternalID != nil && *r.players[i].ExternalID == extID {
			return &r.players[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *stubPlayerRepo) GetByName(ctx context.Context, name string) (*models.Player, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	var best *models.Player
	for i := range r.players {
		if !strings.Contains(strings.ToLower(r.players[i].Name), needle) {
			continue
		}
		if best == nil || len(r.players[i].Name) < len(best.Name) {
			best = &r.players[i]
		}
	}
	if best == nil {
		return nil, models.ErrNotFound
	}
	return best, nil
}

// memMatchRepo counts over an in-memory match log, mirroring the SQL
// aggregation semantics: as-of exclusive upper bound, inclusive window
// lower bound.
type memMatchRepo struct {
	matches []models.HistoricalMatch
	buckets map[string]models.SpeedBucket // by normalized tournament key
	failAll error
}

func (r *memMatchRepo) inWindow(m models.HistoricalMatch, yearsBack int, asOf time.Time) bool {
	if !m.Date.Before(asOf) {
		return false
	}
	return !m.Date.Before(asOf.AddDate(-yearsBack, 0, 0))
}

func (r *memMatchRepo) CountByMonth(ctx context.Context, playerID int64, month, yearsBack int, asOf time.Time) (models.WinrateCount, error) {
	if r.failAll != nil {
		return models.WinrateCount{}, r.failAll
	}
	if month < 1 || month > 12 {
		return models.WinrateCount{}, models.ErrInvalidMonth
	}
	var count models.WinrateCount
	for _, m := range r.matches {
		if !m.Involves(playerID) || !r.inWindow(m, yearsBack, asOf) || int(m.Date.Month()) != month {
			continue
		}
		count.Played++
		if m.WonBy(playerID) {
			count.Wins++
		}
	}
	return count, nil
}

func (r *memMatchRepo) CountBySurface(ctx context.Context, playerID int64, surface models.Surface, yearsBack int, asOf time.Time) (models.WinrateCount, error) {
	if r.failAll != nil {
		return models.WinrateCount{}, r.failAll
	}
	var count models.WinrateCount
	for _, m := range r.matches {
		if !m.Involves(playerID) || !r.inWindow(m, yearsBack, asOf) {
			continue
		}
		if models.ParseSurface(m.Surface) != surface {
			continue
		}
		count.Played++
		if m.WonBy(playerID) {
			count.Wins++
		}
	}
	return count, nil
}

func (r *memMatchRepo) CountBySpeedBucket(ctx context.Context, playerID int64, bucket models.SpeedBucket, yearsBack int, asOf time.Time) (models.WinrateCount, error) {
	if r.failAll != nil {
		return models.WinrateCount{}, r.failAll
	}
	var count models.WinrateCount
	for _, m := range r.matches {
		if !m.Involves(playerID) || !r.inWindow(m, yearsBack, asOf) {
			continue
		}
		matchBucket, known := r.buckets[models.NormalizeTournamentKey(m.TournamentName)]
		if !known {
			matchBucket = models.BucketFromSurface(m.Surface)
		}
		if matchBucket != bucket {
			continue
		}
		count.Played++
		if m.WonBy(playerID) {
			count.Wins++
		}
	}
	return count, nil
}

type stubTournamentRepo struct {
	rows []models.TournamentMeta
	err  error
}

func (r *stubTournamentRepo) GetByKey(ctx context.Context, key string) (*models.TournamentMeta, error) {
	if r.err != nil {
		return nil, r.err
	}
	for i := range r.rows {
		if r.rows[i].Key == key {
			return &r.rows[i], nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *stubTournamentRepo) FindByFuzzyName(ctx context.Context, name string) (*models.TournamentMeta, error) {
	if r.err != nil {
		return nil, r.err
	}
	needle := strings.ToLower(name)
	for i := range r.rows {
		if strings.Contains(strings.ToLower(r.rows[i].Name), needle) {
			return &r.rows[i], nil
		}
	}
	return nil, models.ErrNotFound
}

type stubNowProvider struct {
	profiles map[string]*sportradar.Profile
	last10   map[string][]models.RecentMatch
	h2h      map[string][2]int
	err      error

	profileCalls int
}

func (p *stubNowProvider) GetProfile(ctx context.Context, id string) (*sportradar.Profile, error) {
	p.profileCalls++
	if p.err != nil {
		return nil, p.err
	}
	if prof, ok := p.profiles[id]; ok {
		return prof, nil
	}
	return nil, sportradar.ErrNoData
}

func (p *stubNowProvider) GetLast10(ctx context.Context, id string) ([]models.RecentMatch, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.last10[id], nil
}

func (p *stubNowProvider) GetH2H(ctx context.Context, playerID, opponentID string) (int, int, error) {
	if p.err != nil {
		return 0, 0, p.err
	}
	record := p.h2h[playerID+"|"+opponentID]
	return record[0], record[1], nil
}
