package sportradar

// Profile is the decoded competitor profile response. Only the fields the
// feature computation reads are mapped; the feed carries far more.
type Profile struct {
	Competitor         ProfileCompetitor   `json:"competitor"`
	CompetitorRankings []CompetitorRanking `json:"competitor_rankings"`
	Periods            []ProfilePeriod     `json:"periods"`
}

// ProfileCompetitor is the identity block of a profile.
type ProfileCompetitor struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Country  string              `json:"country"`
	Rankings []CompetitorRanking `json:"rankings"`
}

// CompetitorRanking is a single ranking entry.
type CompetitorRanking struct {
	Rank int `json:"rank"`
}

// ProfilePeriod is one season of per-surface statistics.
type ProfilePeriod struct {
	Year     int             `json:"year"`
	Surfaces []PeriodSurface `json:"surfaces"`
}

// PeriodSurface is one surface's statistics within a period.
type PeriodSurface struct {
	Type       string           `json:"type"`
	Statistics PeriodStatistics `json:"statistics"`
}

// PeriodStatistics are the match counters for one period/surface cell.
type PeriodStatistics struct {
	MatchesPlayed int `json:"matches_played"`
	MatchesWon    int `json:"matches_won"`
}

// RankingNow returns the current singles rank from whichever of the two
// feed layouts is populated, or nil when neither carries one.
func (p *Profile) RankingNow() *int {
	if len(p.CompetitorRankings) > 0 && p.CompetitorRankings[0].Rank > 0 {
		rank := p.CompetitorRankings[0].Rank
		return &rank
	}
	if len(p.Competitor.Rankings) > 0 && p.Competitor.Rankings[0].Rank > 0 {
		rank := p.Competitor.Rankings[0].Rank
		return &rank
	}
	return nil
}

// summariesResponse is the decoded per-competitor match summaries feed.
type summariesResponse struct {
	Summaries []matchSummary `json:"summaries"`
}

// versusResponse is the decoded head-to-head feed.
type versusResponse struct {
	LastMeetings []matchSummary `json:"last_meetings"`
}

type matchSummary struct {
	SportEvent       sportEvent       `json:"sport_event"`
	SportEventStatus sportEventStatus `json:"sport_event_status"`
}

type sportEvent struct {
	StartTime string            `json:"start_time"`
	Context   sportEventContext `json:"sport_event_context"`
}

type sportEventContext struct {
	Competition struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"competition"`
	Season struct {
		ID string `json:"id"`
	} `json:"season"`
	Round struct {
		Name string `json:"name"`
	} `json:"round"`
	Surface struct {
		Name string `json:"name"`
	} `json:"surface"`
}

type sportEventStatus struct {
	WinnerID string `json:"winner_id"`
}

// seasonsResponse is the decoded seasons listing.
type seasonsResponse struct {
	Seasons []season `json:"seasons"`
}

type season struct {
	ID            string `json:"id"`
	Year          string `json:"year"`
	CompetitionID string `json:"competition_id"`
}

// DefendedPoints describes what a player achieved at the current tournament's
// previous edition. Motivated is the defending-points signal fed to scoring.
type DefendedPoints struct {
	Points     int    `json:"points"`
	Tournament string `json:"tournament"`
	BestRound  string `json:"best_round,omitempty"`
	Motivated  bool   `json:"motivated"`
}
