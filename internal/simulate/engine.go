// Package simulate runs Monte Carlo tournament bracket simulations on top
// of the pairwise prediction engine.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/models"
)

// Predictor is the pairwise probability source. The production
// implementation is the matchup service; its cache makes repeated pairings
// across runs cheap.
type Predictor interface {
	Predict(ctx context.Context, req *models.MatchupRequest) *models.MatchupResponse
}

// Entrant is one bracket slot, in draw order.
type Entrant struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name,omitempty"`
}

// Options configure one simulation batch.
type Options struct {
	Tournament models.TournamentContext
	YearsBack  int
	Runs       int
	Seed       int64
}

// Outcome is one entrant's aggregate over all runs.
type Outcome struct {
	PlayerID  int64   `json:"player_id"`
	Name      string  `json:"name,omitempty"`
	Titles    int     `json:"titles"`
	TitleProb float64 `json:"title_prob"`
	FairOdds  string  `json:"fair_odds,omitempty"`
}

// Result is the aggregate of a simulation batch. Outcomes are sorted by
// descending title probability.
type Result struct {
	RunID    uuid.UUID `json:"run_id"`
	Entrants int       `json:"entrants"`
	Runs     int       `json:"runs"`
	Seed     int64     `json:"seed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Engine runs bracket simulations.
type Engine struct {
	predictor Predictor
	logger    *logrus.Logger
}

// NewEngine creates a simulation engine.
func NewEngine(predictor Predictor, logger *logrus.Logger) *Engine {
	return &Engine{predictor: predictor, logger: logger}
}

// Run simulates the single-elimination bracket opts.Runs times. The entrant
// count must be a power of two; draws with byes should pad with ranked
// fillers before calling. A fixed seed reproduces the exact run sequence.
func (e *Engine) Run(ctx context.Context, entrants []Entrant, opts Options) (*Result, error) {
	if len(entrants) < 2 || len(entrants)&(len(entrants)-1) != 0 {
		return nil, fmt.Errorf("entrant count must be a power of two, got %d", len(entrants))
	}
	if opts.Runs <= 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", opts.Runs)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	titles := make(map[int64]int, len(entrants))

	for run := 0; run < opts.Runs; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		champion := e.simulateBracket(ctx, entrants, opts, rng)
		titles[champion.PlayerID]++
	}

	result := &Result{
		RunID:    uuid.New(),
		Entrants: len(entrants),
		Runs:     opts.Runs,
		Seed:     opts.Seed,
	}
	for _, entrant := range entrants {
		count := titles[entrant.PlayerID]
		outcome := Outcome{
			PlayerID:  entrant.PlayerID,
			Name:      entrant.Name,
			Titles:    count,
			TitleProb: float64(count) / float64(opts.Runs),
		}
		if odds, ok := models.FairOdds(outcome.TitleProb); ok {
			outcome.FairOdds = odds.StringFixed(2)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	sort.SliceStable(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].TitleProb > result.Outcomes[j].TitleProb
	})

	e.logger.WithFields(logrus.Fields{
		"run_id":   result.RunID,
		"entrants": result.Entrants,
		"runs":     result.Runs,
	}).Info("Simulation batch completed")
	return result, nil
}

// simulateBracket plays out one tournament and returns the champion.
func (e *Engine) simulateBracket(ctx context.Context, entrants []Entrant, opts Options, rng *rand.Rand) Entrant {
	round := make([]Entrant, len(entrants))
	copy(round, entrants)

	for len(round) > 1 {
		next := make([]Entrant, 0, len(round)/2)
		for i := 0; i < len(round); i += 2 {
			next = append(next, e.playMatch(ctx, round[i], round[i+1], opts, rng))
		}
		round = next
	}
	return round[0]
}

// playMatch resolves one pairing by sampling against the predicted
// probability. An unresolvable prediction falls back to a coin flip.
func (e *Engine) playMatch(ctx context.Context, a, b Entrant, opts Options, rng *rand.Rand) Entrant {
	prob := 0.5
	resp := e.predictor.Predict(ctx, &models.MatchupRequest{
		PlayerID:   &a.PlayerID,
		OpponentID: &b.PlayerID,
		Tournament: opts.Tournament,
		YearsBack:  opts.YearsBack,
	})
	if resp.OK {
		prob = resp.ProbPlayer
	} else {
		e.logger.WithFields(logrus.Fields{
			"player":   a.PlayerID,
			"opponent": b.PlayerID,
			"error":    resp.Error,
		}).Warn("Prediction failed in simulation, using coin flip")
	}

	if rng.Float64() < prob {
		return a
	}
	return b
}
