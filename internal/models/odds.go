package models

import "github.com/shopspring/decimal"

// FairOdds converts a win probability into decimal odds rounded to two
// places. Probabilities at or below zero have no finite price.
func FairOdds(prob float64) (decimal.Decimal, bool) {
	if prob <= 0 || prob > 1 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(prob), 2), true
}

// ImpliedProb converts decimal odds back into a probability.
func ImpliedProb(odds decimal.Decimal) (float64, bool) {
	if odds.LessThanOrEqual(decimal.NewFromInt(1)) {
		return 0, false
	}
	p, _ := decimal.NewFromInt(1).DivRound(odds, 6).Float64()
	return p, true
}
