// Package datasource fetches completed tour results from archive providers
// and normalizes them for ingestion into the matches table.
package datasource

import (
	"context"
	"errors"
	"time"
)

// MatchSource defines the interface for fetching historical match results.
// Archives are organized by season; one fetch returns every completed tour
// match of that calendar year.
type MatchSource interface {
	// FetchSeason retrieves all completed matches for the given year
	FetchSeason(ctx context.Context, year int) ([]MatchRecord, error)

	// Name returns the name of the data source
	Name() string
}

// PlayerEntry is one side of an archived result.
type PlayerEntry struct {
	ExternalID string `json:"external_id"` // Archive's player identifier
	Name       string `json:"name"`
	Country    string `json:"country"` // IOC country code
	Rank       *int   `json:"rank"`    // Ranking at match time, nil when unranked
}

// MatchRecord represents one normalized completed match from any source.
type MatchRecord struct {
	SourceID       string      `json:"source_id"` // Provider's unique match ID
	Date           time.Time   `json:"date"`
	TournamentName string      `json:"tournament_name"`
	Surface        string      `json:"surface"` // As reported, may be empty
	Round          string      `json:"round"`
	Winner         PlayerEntry `json:"winner"`
	Loser          PlayerEntry `json:"loser"`
	Score          string      `json:"score"`
}

// SourceError represents errors from data source operations
type SourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "not_found")
	Message string // Error message
	Err     error  // Underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidData  = "invalid_data"
	ErrCodeNetworkError = "network_error"
	ErrCodeServerError  = "server_error"
)

var (
	ErrSeasonNotFound = errors.New("season not found")
	ErrInvalidData    = errors.New("invalid data format")
)

// NewSourceError creates a new data source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
