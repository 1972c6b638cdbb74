package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/estratego/matchpoint/internal/models"
)

func clayMatch(date time.Time, winner, loser int64) models.HistoricalMatch {
	return models.HistoricalMatch{
		Date:           date,
		PlayerA:        winner,
		PlayerB:        loser,
		WinnerID:       winner,
		TournamentName: "Madrid Open",
		Surface:        "clay",
	}
}

func TestComputeDeltasSurface(t *testing.T) {
	asOf := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	day := func(monthsAgo int) time.Time { return asOf.AddDate(0, -monthsAgo, 0) }

	repo := &memMatchRepo{}
	// Player 1: 4 of 5 on clay. Player 2: 1 of 5 on clay.
	for i := 0; i < 4; i++ {
		repo.matches = append(repo.matches, clayMatch(day(i+2), 1, 100+int64(i)))
	}
	repo.matches = append(repo.matches, clayMatch(day(6), 200, 1))
	repo.matches = append(repo.matches, clayMatch(day(2), 2, 300))
	for i := 0; i < 4; i++ {
		repo.matches = append(repo.matches, clayMatch(day(i+3), 400+int64(i), 2))
	}

	svc := NewHistoryService(repo, quietLogger())
	meta := models.TournamentMeta{Surface: models.SurfaceClay, SpeedBucket: models.SpeedMedium}

	deltas := svc.ComputeDeltas(context.Background(), 1, 2, meta, 1, 4, asOf)

	assert.InDelta(t, 0.6, deltas.Surface, 1e-12)
	// January has no matches for either player; month stays neutral.
	assert.Zero(t, deltas.Month)
	// All matches derive a Slow bucket from clay, the meta asks for Medium.
	assert.Zero(t, deltas.Speed)
}

func TestComputeDeltasAsOfBoundary(t *testing.T) {
	asOf := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	repo := &memMatchRepo{matches: []models.HistoricalMatch{
		// Exactly at asOf: excluded. Strictly before: included.
		clayMatch(asOf, 1, 50),
		clayMatch(asOf.AddDate(0, 0, -1), 1, 51),
		clayMatch(asOf.AddDate(0, 0, -2), 52, 1),
		// Outside the years-back window: excluded.
		clayMatch(asOf.AddDate(-5, 0, 0), 1, 53),
		// Opponent history inside the window.
		clayMatch(asOf.AddDate(0, 0, -3), 2, 54),
		clayMatch(asOf.AddDate(0, 0, -4), 2, 55),
	}}

	svc := NewHistoryService(repo, quietLogger())
	meta := models.TournamentMeta{Surface: models.SurfaceClay}

	deltas := svc.ComputeDeltas(context.Background(), 1, 2, meta, 1, 4, asOf)

	// Player: 1 of 2 inside the window. Opponent: 2 of 2.
	assert.InDelta(t, 0.5-1.0, deltas.Surface, 1e-12)
}

func TestComputeDeltasUndefinedIsNeutral(t *testing.T) {
	asOf := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	// Opponent has no clay history at all: the dimension must go neutral,
	// not count as a 100% edge for the player.
	repo := &memMatchRepo{matches: []models.HistoricalMatch{
		clayMatch(asOf.AddDate(0, -1, 0), 1, 50),
		clayMatch(asOf.AddDate(0, -2, 0), 1, 51),
	}}

	svc := NewHistoryService(repo, quietLogger())
	meta := models.TournamentMeta{Surface: models.SurfaceClay}

	deltas := svc.ComputeDeltas(context.Background(), 1, 2, meta, 1, 4, asOf)

	assert.Zero(t, deltas.Surface)
}

func TestComputeDeltasDegradesOnBackendFailure(t *testing.T) {
	repo := &memMatchRepo{failAll: errors.New("connection refused")}
	svc := NewHistoryService(repo, quietLogger())
	meta := models.TournamentMeta{Surface: models.SurfaceHard, SpeedBucket: models.SpeedMedium}

	deltas := svc.ComputeDeltas(context.Background(), 1, 2, meta, 6, 4, time.Now())

	assert.Zero(t, deltas.Month)
	assert.Zero(t, deltas.Surface)
	assert.Zero(t, deltas.Speed)
}

func TestComputeDeltasMonthDimension(t *testing.T) {
	asOf := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)
	may := func(year int) time.Time { return time.Date(year, 5, 10, 0, 0, 0, 0, time.UTC) }

	repo := &memMatchRepo{matches: []models.HistoricalMatch{
		clayMatch(may(2024), 1, 50),
		clayMatch(may(2023), 1, 51),
		clayMatch(may(2022), 52, 1),
		clayMatch(may(2024), 53, 2),
		clayMatch(may(2023), 2, 54),
	}}

	svc := NewHistoryService(repo, quietLogger())
	meta := models.TournamentMeta{Surface: models.SurfaceHard}

	deltas := svc.ComputeDeltas(context.Background(), 1, 2, meta, 5, 4, asOf)

	// Player 2/3 in May, opponent 1/2.
	assert.InDelta(t, 2.0/3.0-0.5, deltas.Month, 1e-12)
}
