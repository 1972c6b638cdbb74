package scoring

import (
	"math"

	"github.com/estratego/matchpoint/internal/models"
)

// Delta clamping ranges. Ranking advantage spans the full [-1, 1]; the
// remaining current-form signals are capped at a quarter point so no single
// recency signal can dominate. Historical deltas are winrate differences and
// live in [-1, 1].
const (
	rankClamp = 1.0
	nowClamp  = 0.25
	histClamp = 1.0

	// Beyond this |z| the exponential under/overflows float64 headroom;
	// the probability saturates to exactly 0 or 1.
	logisticSaturation = 40.0

	// Ranking assigned to a player with no published ranking.
	unrankedRank = 999

	// Divisor converting a ranking gap into the normalized advantage.
	rankScale = 100.0

	// One month of inactivity difference maps to the full inactivity delta.
	inactivityScaleDays = 30.0

	// Laplace-style smoothing for head-to-head records, so sparse H2H
	// histories move the delta only slightly.
	h2hSmoothWins  = 5.0
	h2hSmoothTotal = 10.0
)

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Logistic is the standard sigmoid with saturation past +/-40.
func Logistic(z float64) float64 {
	if z > logisticSaturation {
		return 1.0
	}
	if z < -logisticSaturation {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// RankDelta converts two rankings into the normalized ranking advantage.
// Lower rank numbers are better, so the opponent's rank leads the subtraction.
func RankDelta(playerRank, oppRank *int) float64 {
	p, o := unrankedRank, unrankedRank
	if playerRank != nil {
		p = *playerRank
	}
	if oppRank != nil {
		o = *oppRank
	}
	return Clamp(float64(o-p)/rankScale, -rankClamp, rankClamp)
}

// H2HDelta converts a head-to-head record into a smoothed delta.
func H2HDelta(wins, losses int) float64 {
	total := math.Max(1, float64(wins+losses)+h2hSmoothTotal)
	d := (float64(wins)+h2hSmoothWins)/total - (float64(losses)+h2hSmoothWins)/total
	return Clamp(d, -nowClamp, nowClamp)
}

// InactivityDelta converts a days-without-competing gap into a delta. More
// recent activity than the opponent is an advantage, hence the negation.
func InactivityDelta(playerDays, oppDays float64) float64 {
	return Clamp(-(playerDays-oppDays)/inactivityScaleDays, -nowClamp, nowClamp)
}

// ClampDeltas bounds every delta to its documented range. Idempotent.
func ClampDeltas(d models.FeatureDeltas) models.FeatureDeltas {
	return models.FeatureDeltas{
		RankNorm:    Clamp(d.RankNorm, -rankClamp, rankClamp),
		Ytd:         Clamp(d.Ytd, -nowClamp, nowClamp),
		Last10:      Clamp(d.Last10, -nowClamp, nowClamp),
		H2H:         Clamp(d.H2H, -nowClamp, nowClamp),
		Inactive:    Clamp(d.Inactive, -nowClamp, nowClamp),
		HistMonth:   Clamp(d.HistMonth, -histClamp, histClamp),
		HistSurface: Clamp(d.HistSurface, -histClamp, histClamp),
		HistSpeed:   Clamp(d.HistSpeed, -histClamp, histClamp),
	}
}

// Combiner turns a clamped delta vector plus context flags into a win
// probability. It is a pure function of its inputs and the injected weights.
type Combiner struct {
	weights Weights
}

// NewCombiner creates a combiner with the given immutable weights.
func NewCombiner(w Weights) *Combiner {
	return &Combiner{weights: w}
}

// Score is the decomposed result of a combination.
type Score struct {
	NowLinear  float64
	HistLinear float64
	Adjustment float64
	Z          float64
	Prob       float64
}

// Combine computes the win probability for the player side. Swapping the two
// sides (negating every delta and exchanging the flag pairs) yields exactly
// the complementary probability.
func (c *Combiner) Combine(deltas models.FeatureDeltas, flags models.FeatureFlags) Score {
	d := ClampDeltas(deltas)
	w := c.weights

	nowLinear := w.Now.RankNorm*d.RankNorm +
		w.Now.Ytd*d.Ytd +
		w.Now.Last10*d.Last10 +
		w.Now.H2H*d.H2H +
		w.Now.Inactive*d.Inactive

	histLinear := (w.Hist.Month*d.HistMonth +
		w.Hist.Surface*d.HistSurface +
		w.Hist.Speed*d.HistSpeed) / w.Hist.Denom()

	adj := w.Adjust.SurfChange*float64(flags.SurfChangePlayer-flags.SurfChangeOpp) +
		w.Adjust.Local*float64(flags.IsLocalPlayer-flags.IsLocalOpp) +
		w.Adjust.MotPoints*float64(flags.MotPointsPlayer-flags.MotPointsOpp)

	z := nowLinear + histLinear + adj
	return Score{
		NowLinear:  nowLinear,
		HistLinear: histLinear,
		Adjustment: adj,
		Z:          z,
		Prob:       Logistic(z),
	}
}

// HistWeightsApplied reports the historical weight vector with the
// denominator actually used, for the response payload.
func (c *Combiner) HistWeightsApplied() models.HistWeights {
	return models.HistWeights{
		Month:   c.weights.Hist.Month,
		Surface: c.weights.Hist.Surface,
		Speed:   c.weights.Hist.Speed,
		Denom:   c.weights.Hist.Denom(),
	}
}

// InvertDeltas negates every delta, producing the opponent's view.
func InvertDeltas(d models.FeatureDeltas) models.FeatureDeltas {
	return models.FeatureDeltas{
		RankNorm:    -d.RankNorm,
		Ytd:         -d.Ytd,
		Last10:      -d.Last10,
		H2H:         -d.H2H,
		Inactive:    -d.Inactive,
		HistMonth:   -d.HistMonth,
		HistSurface: -d.HistSurface,
		HistSpeed:   -d.HistSpeed,
	}
}

// SwapFlags exchanges the player/opponent flag pairs.
func SwapFlags(f models.FeatureFlags) models.FeatureFlags {
	return models.FeatureFlags{
		SurfChangePlayer: f.SurfChangeOpp,
		SurfChangeOpp:    f.SurfChangePlayer,
		IsLocalPlayer:    f.IsLocalOpp,
		IsLocalOpp:       f.IsLocalPlayer,
		MotPointsPlayer:  f.MotPointsOpp,
		MotPointsOpp:     f.MotPointsPlayer,
	}
}
