// Package cache implements the two-tier matchup result cache: an in-process
// tier backed by go-cache and a durable tier backed by PostgreSQL.
//
// Entries are stored under one canonical key per unordered player pair, so
// (A, B) and (B, A) share a single computation. Reads in the non-canonical
// orientation flip the snapshot before returning it.
package cache

import (
	"fmt"

	"github.com/estratego/matchpoint/internal/models"
)

// Key identifies one cached matchup computation. Player IDs are stored in
// ascending order regardless of request orientation.
type Key struct {
	PlayerLow     int64
	PlayerHigh    int64
	TournamentKey string
	Month         int
	SpeedBucket   models.SpeedBucket
	YearsBack     int
	Live          bool
}

// NewKey builds the canonical key for a player/opponent pair and reports
// whether the request orientation was swapped to reach canonical order.
func NewKey(playerID, opponentID int64, tournamentKey string, month int, bucket models.SpeedBucket, yearsBack int, live bool) (Key, bool) {
	low, high := playerID, opponentID
	swapped := false
	if low > high {
		low, high = high, low
		swapped = true
	}
	return Key{
		PlayerLow:     low,
		PlayerHigh:    high,
		TournamentKey: tournamentKey,
		Month:         month,
		SpeedBucket:   bucket,
		YearsBack:     yearsBack,
		Live:          live,
	}, swapped
}

// String returns the string form used by both cache tiers.
func (k Key) String() string {
	mode := "hist"
	if k.Live {
		mode = "live"
	}
	return fmt.Sprintf("mu:%d:%d:%s:%d:%s:%d:%s",
		k.PlayerLow, k.PlayerHigh, k.TournamentKey, k.Month, k.SpeedBucket, k.YearsBack, mode)
}
