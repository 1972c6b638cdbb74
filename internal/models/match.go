package models

import (
	"fmt"
	"time"
)

// HistoricalMatch is an immutable, dated record of a completed match.
// The core only ever counts these; it never mutates them.
type HistoricalMatch struct {
	Date           time.Time `db:"match_date" json:"match_date"`
	PlayerA        int64     `db:"player_a" json:"player_a"`
	PlayerB        int64     `db:"player_b" json:"player_b"`
	WinnerID       int64     `db:"winner_id" json:"winner_id"`
	TournamentName string    `db:"tournament_name" json:"tournament_name"`
	Surface        string    `db:"surface" json:"surface"`
}

// Validate enforces the participant invariant on the winner column.
func (m *HistoricalMatch) Validate() error {
	if m.WinnerID != m.PlayerA && m.WinnerID != m.PlayerB {
		return fmt.Errorf("%w: winner %d is not a participant (%d, %d)",
			ErrInvalidMatch, m.WinnerID, m.PlayerA, m.PlayerB)
	}
	return nil
}

// Involves reports whether the player took part in the match.
func (m *HistoricalMatch) Involves(playerID int64) bool {
	return m.PlayerA == playerID || m.PlayerB == playerID
}

// WonBy reports whether the player won the match.
func (m *HistoricalMatch) WonBy(playerID int64) bool {
	return m.WinnerID == playerID
}

// HistDimension selects the time/context dimension for an as-of winrate.
type HistDimension string

const (
	DimMonth   HistDimension = "month"
	DimSurface HistDimension = "surface"
	DimSpeed   HistDimension = "speed"
)

// WinrateCount is a (wins, played) pair for one player along one dimension.
// Played == 0 means the winrate is undefined, never a zero rate.
type WinrateCount struct {
	Wins   int
	Played int
}

// Rate returns wins/played and whether the rate is defined.
func (c WinrateCount) Rate() (float64, bool) {
	if c.Played == 0 {
		return 0, false
	}
	return float64(c.Wins) / float64(c.Played), true
}

// RecentMatch is one entry of a player's last-N match history from the
// NOW-data provider. Date is nil when the feed carried no parseable time.
type RecentMatch struct {
	Won     bool       `json:"won"`
	Date    *time.Time `json:"date,omitempty"`
	Surface string     `json:"surface,omitempty"`
}
