package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/sportradar"
)

// NowProvider is the slice of the live stats client the NOW assembly needs.
// The YTD record is derived from the profile rather than fetched separately,
// so one prediction costs one profile request per side.
type NowProvider interface {
	GetProfile(ctx context.Context, competitorID string) (*sportradar.Profile, error)
	GetLast10(ctx context.Context, competitorID string) ([]models.RecentMatch, error)
	GetH2H(ctx context.Context, playerID, opponentID string) (int, int, error)
}

// NowSignals bundle both sides' current-form features and the head-to-head
// tally. The zero value is fully neutral.
type NowSignals struct {
	Player          sportradar.NowFeatures
	Opponent        sportradar.NowFeatures
	H2HWinsPlayer   int
	H2HWinsOpponent int
}

// NowService assembles current-form signals from the live provider.
// Every fetch degrades independently; a provider outage produces neutral
// signals, never a failed prediction.
type NowService struct {
	provider NowProvider
	logger   *logrus.Logger
	now      func() time.Time
}

// NewNowService creates a NOW-signal service. A nil provider means live
// data is disabled and all signals come back neutral.
func NewNowService(provider NowProvider, logger *logrus.Logger) *NowService {
	return &NowService{provider: provider, logger: logger, now: time.Now}
}

// Enabled reports whether live signals are configured.
func (s *NowService) Enabled() bool {
	return s.provider != nil
}

// ComputeSignals fetches and derives current-form features for both sides.
// Either external ID may be empty; that side stays neutral.
func (s *NowService) ComputeSignals(ctx context.Context, playerExtID, opponentExtID string) NowSignals {
	signals := NowSignals{}
	if s.provider == nil {
		return signals
	}

	signals.Player = s.sideFeatures(ctx, playerExtID)
	signals.Opponent = s.sideFeatures(ctx, opponentExtID)

	if playerExtID != "" && opponentExtID != "" {
		winsP, winsO, err := s.provider.GetH2H(ctx, playerExtID, opponentExtID)
		if err != nil {
			s.logger.WithError(err).Warn("H2H fetch failed, degrading to neutral")
		} else {
			signals.H2HWinsPlayer = winsP
			signals.H2HWinsOpponent = winsO
		}
	}
	return signals
}

func (s *NowService) sideFeatures(ctx context.Context, extID string) sportradar.NowFeatures {
	if extID == "" {
		return sportradar.NowFeatures{}
	}

	profile, err := s.provider.GetProfile(ctx, extID)
	if err != nil {
		s.logger.WithError(err).WithField("ext_id", extID).Warn("Profile fetch failed, degrading to neutral")
		profile = nil
	}

	last10, err := s.provider.GetLast10(ctx, extID)
	if err != nil {
		s.logger.WithError(err).WithField("ext_id", extID).Warn("Last-10 fetch failed, degrading to neutral")
		last10 = nil
	}

	now := s.now()
	ytd := sportradar.YtdFromProfile(profile, now.UTC().Year())

	return sportradar.ComputeNowFeatures(profile, last10, ytd, now)
}
