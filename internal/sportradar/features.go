package sportradar

import (
	"time"

	"github.com/estratego/matchpoint/internal/models"
)

// NowFeatures are the current-form signals derived from provider data for
// one player. Zero values are the neutral defaults used on degradation.
type NowFeatures struct {
	RankingNow    *int    `json:"ranking_now,omitempty"`
	WinrateLast10 float64 `json:"winrate_last10"`
	WinrateYtd    float64 `json:"winrate_ytd"`
	DaysInactive  float64 `json:"days_inactive"`
	LastSurface   string  `json:"last_surface,omitempty"`
}

// YtdFromProfile sums the given calendar year's per-surface statistics from
// an already-fetched profile into a single wins/losses record. A nil profile
// yields the neutral zero record.
func YtdFromProfile(profile *Profile, year int) models.YtdRecord {
	if profile == nil {
		return models.YtdRecord{}
	}

	wins := 0
	played := 0
	for _, period := range profile.Periods {
		if period.Year != year {
			continue
		}
		for _, surf := range period.Surfaces {
			wins += surf.Statistics.MatchesWon
			played += surf.Statistics.MatchesPlayed
		}
	}

	losses := played - wins
	if losses < 0 {
		losses = 0
	}
	return models.YtdRecord{Wins: wins, Losses: losses}
}

// ComputeNowFeatures derives current-form signals from raw provider data.
// It is pure; any of the inputs may be nil or empty and yields neutral
// values for the signals it would have fed.
func ComputeNowFeatures(profile *Profile, last10 []models.RecentMatch, ytd models.YtdRecord, now time.Time) NowFeatures {
	features := NowFeatures{}

	if profile != nil {
		features.RankingNow = profile.RankingNow()
	}

	if len(last10) > 0 {
		wins := 0
		for _, m := range last10 {
			if m.Won {
				wins++
			}
		}
		features.WinrateLast10 = float64(wins) / float64(len(last10))
	}

	if played := ytd.Played(); played > 0 {
		features.WinrateYtd = float64(ytd.Wins) / float64(played)
	}

	// Matches arrive newest first; the first one with a usable timestamp
	// fixes both inactivity and the last surface played.
	for _, m := range last10 {
		if m.Date == nil {
			continue
		}
		days := now.Sub(*m.Date).Hours() / 24
		if days < 0 {
			days = 0
		}
		features.DaysInactive = days
		features.LastSurface = m.Surface
		break
	}

	return features
}
