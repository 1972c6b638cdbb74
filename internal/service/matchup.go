// Package service wires identity resolution, historical aggregates, live
// current-form signals, and the scoring combiner into matchup predictions.
package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/cache"
	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/scoring"
)

// MatchupService orchestrates a pairwise prediction end to end. Identity
// resolution is the only hard dependency; every data source downstream of
// it degrades to neutral signals instead of failing the request.
type MatchupService struct {
	identity    *IdentityResolver
	tournaments *TournamentResolver
	history     *HistoryService
	nowSignals  *NowService
	cache       *cache.MatchupCache
	combiner    *scoring.Combiner

	defaultYearsBack int
	logger           *logrus.Logger
	now              func() time.Time
}

// NewMatchupService creates the prediction orchestrator.
func NewMatchupService(
	identity *IdentityResolver,
	tournaments *TournamentResolver,
	history *HistoryService,
	nowSignals *NowService,
	matchupCache *cache.MatchupCache,
	combiner *scoring.Combiner,
	defaultYearsBack int,
	logger *logrus.Logger,
) *MatchupService {
	return &MatchupService{
		identity:         identity,
		tournaments:      tournaments,
		history:          history,
		nowSignals:       nowSignals,
		cache:            matchupCache,
		combiner:         combiner,
		defaultYearsBack: defaultYearsBack,
		logger:           logger,
		now:              time.Now,
	}
}

// Predict computes the win probability for the player side of the request.
// The response always carries ok:true with a probability unless identity
// resolution fails or the request itself is malformed.
func (s *MatchupService) Predict(ctx context.Context, req *models.MatchupRequest) *models.MatchupResponse {
	start := s.now()

	month := req.Tournament.Month
	if month < 1 || month > 12 {
		metrics.RecordPrediction("error", time.Since(start).Seconds())
		return errorResponse(models.ErrInvalidMonth.Error())
	}
	yearsBack := req.YearsBack
	if yearsBack <= 0 {
		yearsBack = s.defaultYearsBack
	}

	playerRefs, opponentRefs := req.PlayerRefs()
	player, err := s.identity.Resolve(ctx, playerRefs)
	if err != nil {
		metrics.RecordPrediction("error", time.Since(start).Seconds())
		return errorResponse("player: " + err.Error())
	}
	opponent, err := s.identity.Resolve(ctx, opponentRefs)
	if err != nil {
		metrics.RecordPrediction("error", time.Since(start).Seconds())
		return errorResponse("opponent: " + err.Error())
	}

	meta, metaSource := s.tournaments.Resolve(ctx, req.Tournament.Name)
	live := s.nowSignals.Enabled()

	key, swapped := cache.NewKey(player.ID, opponent.ID, meta.Key, month, meta.SpeedBucket, yearsBack, live)
	if snapshot, found := s.cache.Get(ctx, key, swapped); found {
		metrics.RecordPrediction("cached", time.Since(start).Seconds())
		return s.respond(player, opponent, req, month, yearsBack, snapshot, true)
	}

	hist := s.history.ComputeDeltas(ctx, player.ID, opponent.ID, meta, month, yearsBack, s.now())
	signals := s.nowSignals.ComputeSignals(ctx, externalID(player, req.PlayerExternalID), externalID(opponent, req.OpponentExternalID))

	deltas := models.FeatureDeltas{
		RankNorm:    scoring.RankDelta(rankingOf(signals.Player.RankingNow, player), rankingOf(signals.Opponent.RankingNow, opponent)),
		Ytd:         signals.Player.WinrateYtd - signals.Opponent.WinrateYtd,
		Last10:      signals.Player.WinrateLast10 - signals.Opponent.WinrateLast10,
		H2H:         scoring.H2HDelta(signals.H2HWinsPlayer, signals.H2HWinsOpponent),
		Inactive:    scoring.InactivityDelta(signals.Player.DaysInactive, signals.Opponent.DaysInactive),
		HistMonth:   hist.Month,
		HistSurface: hist.Surface,
		HistSpeed:   hist.Speed,
	}
	flags := models.FeatureFlags{
		SurfChangePlayer: surfaceChanged(signals.Player.LastSurface, meta.Surface),
		SurfChangeOpp:    surfaceChanged(signals.Opponent.LastSurface, meta.Surface),
		IsLocalPlayer:    isLocal(req.Country, req.PlayerCountry, player.Country),
		IsLocalOpp:       isLocal(req.Country, req.OpponentCountry, opponent.Country),
		MotPointsPlayer:  req.MotPointsPlayer,
		MotPointsOpp:     req.MotPointsOpp,
	}

	score := s.combiner.Combine(deltas, flags)

	snapshot := models.MatchupSnapshot{
		ProbPlayer: score.Prob,
		Features: models.FeatureSet{
			Deltas: scoring.ClampDeltas(deltas),
			Flags:  flags,
		},
		WeightsHist: s.combiner.HistWeightsApplied(),
		Surface:     meta.Surface,
		SpeedBucket: meta.SpeedBucket,
		Sources: map[string]string{
			"tournament": metaSource,
			"now":        nowSource(live),
			"hist":       "db",
		},
		ComputedAt: s.now(),
	}
	s.cache.Put(ctx, key, snapshot, swapped)

	resp := s.respond(player, opponent, req, month, yearsBack, &snapshot, false)
	resp.Components = &models.MatchupComponents{
		NowLinear:  score.NowLinear,
		HistLinear: score.HistLinear,
		Adjustment: score.Adjustment,
		Z:          score.Z,
		Cached:     false,
	}
	metrics.RecordPrediction("ok", time.Since(start).Seconds())
	return resp
}

func (s *MatchupService) respond(player, opponent *models.Player, req *models.MatchupRequest, month, yearsBack int, snapshot *models.MatchupSnapshot, cached bool) *models.MatchupResponse {
	resp := &models.MatchupResponse{
		OK:          true,
		ProbPlayer:  snapshot.ProbPlayer,
		Surface:     snapshot.Surface,
		SpeedBucket: snapshot.SpeedBucket,
		Inputs: models.MatchupInputs{
			Player:     player.Name,
			Opponent:   opponent.Name,
			PlayerID:   player.ID,
			OpponentID: opponent.ID,
			Tournament: models.TournamentContext{Name: req.Tournament.Name, Month: month},
			YearsBack:  yearsBack,
		},
		Features:    snapshot.Features,
		WeightsHist: snapshot.WeightsHist,
	}
	if odds, ok := models.FairOdds(snapshot.ProbPlayer); ok {
		resp.FairOdds = odds.StringFixed(2)
	}
	if cached {
		resp.Components = &models.MatchupComponents{Cached: true}
	}
	return resp
}

func errorResponse(msg string) *models.MatchupResponse {
	return &models.MatchupResponse{OK: false, Error: msg}
}

// externalID picks the provider ID for live lookups: the stored player row
// first, then whatever the request carried.
func externalID(player *models.Player, fromRequest string) string {
	if player.ExternalID != nil && *player.ExternalID != "" {
		return *player.ExternalID
	}
	return fromRequest
}

// rankingOf prefers the live ranking and falls back to the stored one.
func rankingOf(liveRank *int, player *models.Player) *int {
	if liveRank != nil {
		return liveRank
	}
	return player.Ranking
}

// surfaceChanged reports whether the player's most recent match was on a
// different surface than the upcoming one. An unknown last surface never
// counts as a change.
func surfaceChanged(lastSurface string, current models.Surface) int {
	if lastSurface == "" || current == models.SurfaceUnknown {
		return 0
	}
	if models.ParseSurface(lastSurface) != current {
		return 1
	}
	return 0
}

// isLocal reports whether the side plays in its home country. The explicit
// request field wins over the stored country code.
func isLocal(tournamentCountry, requestCountry, storedCountry string) int {
	if tournamentCountry == "" {
		return 0
	}
	side := requestCountry
	if side == "" {
		side = storedCountry
	}
	if side != "" && side == tournamentCountry {
		return 1
	}
	return 0
}

func nowSource(live bool) string {
	if live {
		return "provider"
	}
	return "disabled"
}
