// Package sportradar implements the client for the live tennis stats
// provider that supplies current-form signals.
package sportradar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/config"
	"github.com/estratego/matchpoint/internal/metrics"
	"github.com/estratego/matchpoint/internal/models"
)

const (
	competitorPrefix = "sr:competitor:"
	last10Limit      = 10

	// A player defending at least a second-round result is treated as
	// motivated to protect those points.
	motivationThreshold = 45
)

// pointsByRound maps tour round names to ranking points at stake.
var pointsByRound = map[string]int{
	"qualification_round_1": 0,
	"qualification_round_2": 0,
	"1st_round":             10,
	"2nd_round":             45,
	"round_of_16":           90,
	"quarterfinal":          180,
	"semifinal":             360,
	"final":                 720,
	"champion":              1000,
}

// roundOrder lists rounds from earliest to latest for best-round comparison.
var roundOrder = []string{
	"qualification_round_1", "qualification_round_2",
	"1st_round", "2nd_round", "round_of_16",
	"quarterfinal", "semifinal", "final", "champion",
}

// Client talks to the live stats provider. All methods are safe for
// concurrent use; the embedded transport serializes via its rate limiter.
type Client struct {
	http    *rateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger
	now     func() time.Time
}

// NewClient creates a provider client from configuration.
func NewClient(cfg *config.ProviderConfig, logger *logrus.Logger) *Client {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = cfg.Timeout()
	if cfg.RetryMax > 0 {
		httpCfg.MaxRetries = cfg.RetryMax
	}
	if cfg.RateLimit > 0 {
		httpCfg.RateLimit = cfg.RateLimit
	}

	return &Client{
		http:    newRateLimitedHTTPClient(httpCfg, logger),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
		now:     time.Now,
	}
}

// Close releases transport resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// NormalizeCompetitorID accepts both prefixed provider IDs and bare numeric
// suffixes and returns the canonical prefixed form.
func NormalizeCompetitorID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "sr:") {
		return id
	}
	return competitorPrefix + id
}

// GetProfile fetches the competitor profile (ranking, per-period stats).
func (c *Client) GetProfile(ctx context.Context, competitorID string) (*Profile, error) {
	sid := NormalizeCompetitorID(competitorID)
	if sid == "" {
		return nil, ErrMissingCompetitorID
	}

	var profile Profile
	if err := c.getJSON(ctx, "profile", fmt.Sprintf("competitors/%s/profile.json", sid), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetLast10 fetches the competitor's most recent matches, newest first.
func (c *Client) GetLast10(ctx context.Context, competitorID string) ([]models.RecentMatch, error) {
	sid := NormalizeCompetitorID(competitorID)
	if sid == "" {
		return nil, ErrMissingCompetitorID
	}

	var resp summariesResponse
	if err := c.getJSON(ctx, "summaries", fmt.Sprintf("competitors/%s/summaries.json", sid), &resp); err != nil {
		return nil, err
	}

	summaries := resp.Summaries
	if len(summaries) > last10Limit {
		summaries = summaries[:last10Limit]
	}

	out := make([]models.RecentMatch, 0, len(summaries))
	for _, s := range summaries {
		match := models.RecentMatch{
			Won:     strings.EqualFold(s.SportEventStatus.WinnerID, sid),
			Surface: strings.ToLower(s.SportEvent.Context.Surface.Name),
		}
		if ts := parseEventTime(s.SportEvent.StartTime); ts != nil {
			match.Date = ts
		}
		out = append(out, match)
	}
	return out, nil
}

// GetH2H counts head-to-head wins for both players from the versus feed.
func (c *Client) GetH2H(ctx context.Context, playerID, opponentID string) (winsPlayer, winsOpponent int, err error) {
	ps := NormalizeCompetitorID(playerID)
	os := NormalizeCompetitorID(opponentID)
	if ps == "" || os == "" {
		return 0, 0, ErrMissingCompetitorID
	}

	var resp versusResponse
	if err := c.getJSON(ctx, "versus", fmt.Sprintf("competitors/%s/versus/%s/summaries.json", ps, os), &resp); err != nil {
		return 0, 0, err
	}

	for _, m := range resp.LastMeetings {
		winner := strings.ToLower(m.SportEventStatus.WinnerID)
		switch winner {
		case strings.ToLower(ps):
			winsPlayer++
		case strings.ToLower(os):
			winsOpponent++
		}
	}
	return winsPlayer, winsOpponent, nil
}

// GetDefendedPoints finds the player's result at last year's edition of the
// tournament they are currently playing and converts it to ranking points.
func (c *Client) GetDefendedPoints(ctx context.Context, competitorID string) (*DefendedPoints, error) {
	sid := NormalizeCompetitorID(competitorID)
	if sid == "" {
		return nil, ErrMissingCompetitorID
	}

	var recent summariesResponse
	if err := c.getJSON(ctx, "summaries", fmt.Sprintf("competitors/%s/summaries.json", sid), &recent); err != nil {
		return nil, err
	}
	if len(recent.Summaries) == 0 {
		return nil, fmt.Errorf("%w: no recent matches for %s", ErrNoData, sid)
	}

	current := recent.Summaries[0].SportEvent.Context
	result := &DefendedPoints{Tournament: current.Competition.Name}

	var seasons seasonsResponse
	if err := c.getJSON(ctx, "seasons", "seasons.json", &seasons); err != nil {
		return nil, err
	}

	lastYear := strconv.Itoa(c.now().UTC().Year() - 1)
	var previousSeasonID string
	for _, s := range seasons.Seasons {
		if s.Year == lastYear && s.CompetitionID == current.Competition.ID {
			previousSeasonID = s.ID
			break
		}
	}
	if previousSeasonID == "" {
		return nil, fmt.Errorf("%w: no previous edition of %s", ErrNoData, current.Competition.Name)
	}

	var edition summariesResponse
	if err := c.getJSON(ctx, "season_summaries", fmt.Sprintf("seasons/%s/summaries.json", previousSeasonID), &edition); err != nil {
		return nil, err
	}

	bestRound := ""
	for _, m := range edition.Summaries {
		if !strings.EqualFold(m.SportEventStatus.WinnerID, sid) {
			continue
		}
		round := strings.ToLower(m.SportEvent.Context.Round.Name)
		if _, known := pointsByRound[round]; !known {
			continue
		}
		if bestRound == "" || roundIndex(round) > roundIndex(bestRound) {
			bestRound = round
		}
	}

	result.BestRound = bestRound
	result.Points = pointsByRound[bestRound]
	result.Motivated = result.Points >= motivationThreshold
	return result, nil
}

// getJSON fetches a provider endpoint and decodes the body. The API key is
// never written to logs.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"path":     path,
	}).Debug("Provider request")

	start := time.Now()
	resp, err := c.http.Get(ctx, fullURL)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "error", time.Since(start).Seconds())
		return fmt.Errorf("provider %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrAuthenticationFailed, endpoint, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNoData, path)
	default:
		return fmt.Errorf("%w: %s returned %d", ErrProviderUnavailable, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("provider %s response decode failed: %w", endpoint, err)
	}
	return nil
}

func roundIndex(round string) int {
	for i, r := range roundOrder {
		if r == round {
			return i
		}
	}
	return -1
}

// parseEventTime handles both offset and Z-suffixed RFC 3339 timestamps.
func parseEventTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}
