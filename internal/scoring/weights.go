// Package scoring combines historical and current-form signal deltas into a
// calibrated win probability.
package scoring

import "math"

// NowWeights are the fixed per-signal weights for the current-form block.
type NowWeights struct {
	RankNorm float64
	Ytd      float64
	Last10   float64
	H2H      float64
	Inactive float64
}

// HistWeights are the per-dimension weights for the historical block. They
// are normalized by their absolute sum at combine time, so only their ratios
// matter.
type HistWeights struct {
	Month   float64
	Surface float64
	Speed   float64
}

// Denom returns the normalization denominator, floored at 1 so an all-zero
// weight vector cannot divide by zero.
func (w HistWeights) Denom() float64 {
	d := math.Abs(w.Month) + math.Abs(w.Surface) + math.Abs(w.Speed)
	if d < 1 {
		return 1
	}
	return d
}

// Adjustments are the small additive context bonuses/penalties.
type Adjustments struct {
	SurfChange float64
	Local      float64
	MotPoints  float64
}

// Weights is the immutable weight configuration for a Combiner. It is built
// once at startup and passed in explicitly; the combiner reads no ambient
// state.
type Weights struct {
	Now    NowWeights
	Hist   HistWeights
	Adjust Adjustments
}

// DefaultWeights returns the calibrated defaults.
func DefaultWeights() Weights {
	return Weights{
		Now: NowWeights{
			RankNorm: 1.6,
			Ytd:      1.2,
			Last10:   1.0,
			H2H:      0.6,
			Inactive: 0.5,
		},
		Hist: HistWeights{
			Month:   0.5,
			Surface: 2.0,
			Speed:   2.0,
		},
		Adjust: Adjustments{
			SurfChange: -0.05,
			Local:      0.03,
			MotPoints:  0.05,
		},
	}
}
