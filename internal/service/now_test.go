package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/estratego/matchpoint/internal/sportradar"
)

func TestComputeSignalsOneProfileFetchPerSide(t *testing.T) {
	provider := &stubNowProvider{
		profiles: map[string]*sportradar.Profile{
			"407573": {
				CompetitorRankings: []sportradar.CompetitorRanking{{Rank: 10}},
				Periods: []sportradar.ProfilePeriod{{
					Year: time.Now().UTC().Year(),
					Surfaces: []sportradar.PeriodSurface{
						{Type: "hard", Statistics: sportradar.PeriodStatistics{MatchesPlayed: 40, MatchesWon: 30}},
					},
				}},
			},
			"225050": {CompetitorRankings: []sportradar.CompetitorRanking{{Rank: 50}}},
		},
	}
	svc := NewNowService(provider, quietLogger())

	signals := svc.ComputeSignals(context.Background(), "407573", "225050")

	// The YTD record rides on the profile response, so each side costs
	// exactly one profile fetch.
	assert.Equal(t, 2, provider.profileCalls)
	assert.InDelta(t, 0.75, signals.Player.WinrateYtd, 1e-12)
	assert.Zero(t, signals.Opponent.WinrateYtd)
}

func TestComputeSignalsYtdIgnoresPastSeasons(t *testing.T) {
	provider := &stubNowProvider{
		profiles: map[string]*sportradar.Profile{
			"407573": {
				Periods: []sportradar.ProfilePeriod{{
					Year: time.Now().UTC().Year() - 1,
					Surfaces: []sportradar.PeriodSurface{
						{Type: "clay", Statistics: sportradar.PeriodStatistics{MatchesPlayed: 30, MatchesWon: 25}},
					},
				}},
			},
		},
	}
	svc := NewNowService(provider, quietLogger())

	signals := svc.ComputeSignals(context.Background(), "407573", "")

	assert.Zero(t, signals.Player.WinrateYtd)
}

func TestComputeSignalsEmptySideStaysNeutral(t *testing.T) {
	provider := &stubNowProvider{}
	svc := NewNowService(provider, quietLogger())

	signals := svc.ComputeSignals(context.Background(), "", "")

	assert.Zero(t, provider.profileCalls)
	assert.Equal(t, sportradar.NowFeatures{}, signals.Player)
	assert.Equal(t, sportradar.NowFeatures{}, signals.Opponent)
	assert.Zero(t, signals.H2HWinsPlayer)
}

func TestComputeSignalsNilProviderNeutral(t *testing.T) {
	svc := NewNowService(nil, quietLogger())

	assert.False(t, svc.Enabled())
	signals := svc.ComputeSignals(context.Background(), "407573", "225050")
	assert.Equal(t, NowSignals{}, signals)
}
