package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estratego/matchpoint/internal/cache"
	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/scoring"
	"github.com/estratego/matchpoint/internal/sportradar"
)

type matchupFixture struct {
	service *MatchupService
	matches *memMatchRepo
}

func newMatchupFixture(t *testing.T, provider NowProvider) *matchupFixture {
	t.Helper()
	logger := quietLogger()

	matches := &memMatchRepo{}
	tournaments := &stubTournamentRepo{rows: []models.TournamentMeta{
		{
			Key:         "madrid_open",
			Name:        "Madrid Open",
			Surface:     models.SurfaceClay,
			SpeedBucket: models.SpeedMedium,
		},
	}}

	cacheCfg := &config.CacheConfig{
		Enabled:          true,
		TTLLiveSeconds:   43200,
		TTLHistSeconds:   2592000,
		MemoryMaxEntries: 100,
	}

	svc := NewMatchupService(
		NewIdentityResolver(testPlayers(), logger),
		NewTournamentResolver(tournaments, logger),
		NewHistoryService(matches, logger),
		NewNowService(provider, logger),
		cache.NewMatchupCache(cacheCfg, nil, logger),
		scoring.NewCombiner(scoring.DefaultWeights()),
		4,
		logger,
	)
	return &matchupFixture{service: svc, matches: matches}
}

func madridRequest(playerID, opponentID int64) *models.MatchupRequest {
	return &models.MatchupRequest{
		PlayerID:   &playerID,
		OpponentID: &opponentID,
		Tournament: models.TournamentContext{Name: "Madrid Open", Month: 5},
	}
}

func TestPredictNeutralPairIsEven(t *testing.T) {
	fx := newMatchupFixture(t, nil)

	resp := fx.service.Predict(context.Background(), madridRequest(1, 2))

	require.True(t, resp.OK)
	assert.InDelta(t, 0.5, resp.ProbPlayer, 1e-12)
	assert.Equal(t, "2.00", resp.FairOdds)
	assert.Equal(t, models.SurfaceClay, resp.Surface)
	assert.Equal(t, models.SpeedMedium, resp.SpeedBucket)
	assert.Equal(t, int64(1), resp.Inputs.PlayerID)
	assert.Equal(t, 4, resp.Inputs.YearsBack)
}

func TestPredictSurfaceEdge(t *testing.T) {
	fx := newMatchupFixture(t, nil)

	asOf := time.Now().UTC()
	day := func(monthsAgo int) time.Time { return asOf.AddDate(0, -monthsAgo, 0) }
	for i := 0; i < 4; i++ {
		fx.matches.matches = append(fx.matches.matches, clayMatch(day(i+2), 1, 100+int64(i)))
	}
	fx.matches.matches = append(fx.matches.matches, clayMatch(day(6), 200, 1))
	fx.matches.matches = append(fx.matches.matches, clayMatch(day(2), 2, 300))
	for i := 0; i < 4; i++ {
		fx.matches.matches = append(fx.matches.matches, clayMatch(day(i+3), 400+int64(i), 2))
	}

	resp := fx.service.Predict(context.Background(), madridRequest(1, 2))

	require.True(t, resp.OK)
	// A 0.6 clay winrate edge at weight 2.0 over denominator 4.5.
	assert.InDelta(t, 0.6, resp.Features.Deltas.HistSurface, 1e-12)
	require.NotNil(t, resp.Components)
	assert.InDelta(t, 2.0*0.6/4.5, resp.Components.HistLinear, 1e-12)
	assert.InDelta(t, 0.5663, resp.ProbPlayer, 5e-4)
}

func TestPredictSecondCallHitsCache(t *testing.T) {
	fx := newMatchupFixture(t, nil)
	ctx := context.Background()

	first := fx.service.Predict(ctx, madridRequest(1, 2))
	require.True(t, first.OK)
	require.NotNil(t, first.Components)
	assert.False(t, first.Components.Cached)

	second := fx.service.Predict(ctx, madridRequest(1, 2))
	require.True(t, second.OK)
	require.NotNil(t, second.Components)
	assert.True(t, second.Components.Cached)
	assert.InDelta(t, first.ProbPlayer, second.ProbPlayer, 1e-12)
}

func TestPredictSwappedOrientationComplements(t *testing.T) {
	fx := newMatchupFixture(t, nil)
	ctx := context.Background()

	asOf := time.Now().UTC()
	for i := 0; i < 4; i++ {
		fx.matches.matches = append(fx.matches.matches, clayMatch(asOf.AddDate(0, -(i+2), 0), 1, 100+int64(i)))
	}
	fx.matches.matches = append(fx.matches.matches, clayMatch(asOf.AddDate(0, -2, 0), 2, 300))
	fx.matches.matches = append(fx.matches.matches, clayMatch(asOf.AddDate(0, -3, 0), 400, 2))

	forward := fx.service.Predict(ctx, madridRequest(1, 2))
	require.True(t, forward.OK)

	// The reverse matchup is served from the same cache row, flipped.
	reverse := fx.service.Predict(ctx, madridRequest(2, 1))
	require.True(t, reverse.OK)
	require.NotNil(t, reverse.Components)
	assert.True(t, reverse.Components.Cached)
	assert.InDelta(t, 1-forward.ProbPlayer, reverse.ProbPlayer, 1e-12)
	assert.InDelta(t, -forward.Features.Deltas.HistSurface, reverse.Features.Deltas.HistSurface, 1e-12)
}

func TestPredictUnresolvedPlayer(t *testing.T) {
	fx := newMatchupFixture(t, nil)
	unknown := int64(999)
	two := int64(2)

	resp := fx.service.Predict(context.Background(), &models.MatchupRequest{
		PlayerID:   &unknown,
		OpponentID: &two,
		Tournament: models.TournamentContext{Name: "Madrid Open", Month: 5},
	})

	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "player")
}

func TestPredictInvalidMonth(t *testing.T) {
	fx := newMatchupFixture(t, nil)
	one, two := int64(1), int64(2)

	for _, month := range []int{0, 13, -4} {
		resp := fx.service.Predict(context.Background(), &models.MatchupRequest{
			PlayerID:   &one,
			OpponentID: &two,
			Tournament: models.TournamentContext{Name: "Madrid Open", Month: month},
		})
		assert.False(t, resp.OK, "month %d", month)
	}
}

func TestPredictUnknownTournamentDefaults(t *testing.T) {
	fx := newMatchupFixture(t, nil)

	one, two := int64(1), int64(2)
	resp := fx.service.Predict(context.Background(), &models.MatchupRequest{
		PlayerID:   &one,
		OpponentID: &two,
		Tournament: models.TournamentContext{Name: "Atlantis Invitational", Month: 5},
	})

	require.True(t, resp.OK)
	assert.Equal(t, models.SurfaceHard, resp.Surface)
	assert.Equal(t, models.SpeedMedium, resp.SpeedBucket)
}

func TestPredictLiveSignals(t *testing.T) {
	recentWin := time.Now().UTC().AddDate(0, 0, -3)
	provider := &stubNowProvider{
		profiles: map[string]*sportradar.Profile{
			"407573": {
				CompetitorRankings: []sportradar.CompetitorRanking{{Rank: 10}},
				Periods: []sportradar.ProfilePeriod{{
					Year: time.Now().UTC().Year(),
					Surfaces: []sportradar.PeriodSurface{
						{Type: "clay", Statistics: sportradar.PeriodStatistics{MatchesPlayed: 40, MatchesWon: 30}},
					},
				}},
			},
			"225050": {
				CompetitorRankings: []sportradar.CompetitorRanking{{Rank: 50}},
				Periods: []sportradar.ProfilePeriod{{
					Year: time.Now().UTC().Year(),
					Surfaces: []sportradar.PeriodSurface{
						{Type: "hard", Statistics: sportradar.PeriodStatistics{MatchesPlayed: 40, MatchesWon: 20}},
					},
				}},
			},
		},
		last10: map[string][]models.RecentMatch{
			"407573": {
				{Won: true, Date: &recentWin, Surface: "clay"},
				{Won: true, Surface: "clay"},
			},
			"225050": {
				{Won: false, Date: &recentWin, Surface: "hard"},
				{Won: true, Surface: "hard"},
			},
		},
		h2h: map[string][2]int{"407573|225050": {3, 1}},
	}
	fx := newMatchupFixture(t, provider)

	resp := fx.service.Predict(context.Background(), madridRequest(1, 2))

	require.True(t, resp.OK)
	// Rank 10 vs 50 normalizes to a 0.4 advantage.
	assert.InDelta(t, 0.4, resp.Features.Deltas.RankNorm, 1e-12)
	// YTD 0.75 vs 0.50 hits the 0.25 cap exactly.
	assert.InDelta(t, 0.25, resp.Features.Deltas.Ytd, 1e-12)
	// Last-10 winrates 1.0 vs 0.5, clamped to the cap.
	assert.InDelta(t, 0.25, resp.Features.Deltas.Last10, 1e-12)
	// H2H 3-1 smoothed: (3+5)/14 - (1+5)/14.
	assert.InDelta(t, 2.0/14.0, resp.Features.Deltas.H2H, 1e-12)
	// Opponent last played on hard, the matchup is on clay.
	assert.Equal(t, 0, resp.Features.Flags.SurfChangePlayer)
	assert.Equal(t, 1, resp.Features.Flags.SurfChangeOpp)
	assert.Greater(t, resp.ProbPlayer, 0.5)
}

func TestPredictProviderOutageDegrades(t *testing.T) {
	provider := &stubNowProvider{err: sportradar.ErrProviderUnavailable}
	fx := newMatchupFixture(t, provider)

	resp := fx.service.Predict(context.Background(), madridRequest(1, 2))

	// The prediction still succeeds on neutral current-form signals.
	require.True(t, resp.OK)
	assert.InDelta(t, 0.5, resp.ProbPlayer, 1e-12)
}

func TestPredictLocalPlayerBonus(t *testing.T) {
	fx := newMatchupFixture(t, nil)
	one, two := int64(1), int64(2)

	resp := fx.service.Predict(context.Background(), &models.MatchupRequest{
		PlayerID:   &one,
		OpponentID: &two,
		Tournament: models.TournamentContext{Name: "Madrid Open", Month: 5},
		Country:    "ES",
	})

	require.True(t, resp.OK)
	// Player 1 is Spanish by stored country code, player 2 is not.
	assert.Equal(t, 1, resp.Features.Flags.IsLocalPlayer)
	assert.Equal(t, 0, resp.Features.Flags.IsLocalOpp)
	assert.Greater(t, resp.ProbPlayer, 0.5)
}
