package models

import "time"

// TournamentContext is the tournament portion of a matchup request.
type TournamentContext struct {
	Name  string `json:"name"`
	Month int    `json:"month"`
}

// MatchupRequest is the logical request shape for a pairwise prediction.
// Each side may arrive as an internal ID, an external provider ID, or a
// free-text name; the identity resolver normalizes all three.
type MatchupRequest struct {
	PlayerID           *int64            `json:"player_id,omitempty"`
	PlayerName         string            `json:"player,omitempty"`
	PlayerExternalID   string            `json:"player_ext_id,omitempty"`
	OpponentID         *int64            `json:"opponent_id,omitempty"`
	OpponentName       string            `json:"opponent,omitempty"`
	OpponentExternalID string            `json:"opponent_ext_id,omitempty"`
	Tournament         TournamentContext `json:"tournament"`
	YearsBack          int               `json:"years_back,omitempty"`

	// Context flags supplied by the caller; all optional.
	Country         string `json:"country,omitempty"`
	PlayerCountry   string `json:"player_country,omitempty"`
	OpponentCountry string `json:"opponent_country,omitempty"`
	MotPointsPlayer int    `json:"mot_points_p,omitempty"`
	MotPointsOpp    int    `json:"mot_points_o,omitempty"`
}

// PlayerRefs derives the tagged identifier unions for both sides.
func (r *MatchupRequest) PlayerRefs() (player, opponent []PlayerRef) {
	player = collectRefs(r.PlayerID, r.PlayerExternalID, r.PlayerName)
	opponent = collectRefs(r.OpponentID, r.OpponentExternalID, r.OpponentName)
	return player, opponent
}

// collectRefs orders candidate references by resolution precedence.
func collectRefs(id *int64, extID, name string) []PlayerRef {
	refs := make([]PlayerRef, 0, 3)
	if id != nil {
		refs = append(refs, InternalRef(*id))
	}
	if extID != "" {
		refs = append(refs, ExternalRef(extID))
	}
	if name != "" {
		refs = append(refs, NameRef(name))
	}
	return refs
}

// FeatureDeltas holds every signed signal difference, player minus opponent,
// after clamping.
type FeatureDeltas struct {
	RankNorm    float64 `json:"rank_norm"`
	Ytd         float64 `json:"ytd"`
	Last10      float64 `json:"last10"`
	H2H         float64 `json:"h2h"`
	Inactive    float64 `json:"inactive"`
	HistMonth   float64 `json:"hist_month"`
	HistSurface float64 `json:"hist_surface"`
	HistSpeed   float64 `json:"hist_speed"`
}

// FeatureFlags holds the per-side context indicators feeding the additive
// adjustment term.
type FeatureFlags struct {
	SurfChangePlayer int `json:"surf_change_p"`
	SurfChangeOpp    int `json:"surf_change_o"`
	IsLocalPlayer    int `json:"is_local_p"`
	IsLocalOpp       int `json:"is_local_o"`
	MotPointsPlayer  int `json:"mot_p"`
	MotPointsOpp     int `json:"mot_o"`
}

// FeatureSet is the full transparency payload returned with a prediction.
type FeatureSet struct {
	Deltas FeatureDeltas `json:"deltas"`
	Flags  FeatureFlags  `json:"flags"`
}

// HistWeights reports the historical weight vector and its normalization
// denominator as actually applied.
type HistWeights struct {
	Month   float64 `json:"month"`
	Surface float64 `json:"surface"`
	Speed   float64 `json:"speed"`
	Denom   float64 `json:"denom"`
}

// MatchupInputs echoes the resolved request back to the caller.
type MatchupInputs struct {
	Player     string            `json:"player,omitempty"`
	Opponent   string            `json:"opponent,omitempty"`
	PlayerID   int64             `json:"player_id"`
	OpponentID int64             `json:"opponent_id"`
	Tournament TournamentContext `json:"tournament"`
	YearsBack  int               `json:"years_back"`
}

// MatchupComponents exposes the intermediate score terms for diagnostics.
type MatchupComponents struct {
	NowLinear  float64 `json:"now_linear"`
	HistLinear float64 `json:"hist_linear"`
	Adjustment float64 `json:"adj"`
	Z          float64 `json:"z"`
	Cached     bool    `json:"cached"`
}

// MatchupResponse is the structured feature/probability payload.
type MatchupResponse struct {
	OK          bool               `json:"ok"`
	Error       string             `json:"error,omitempty"`
	ProbPlayer  float64            `json:"prob_player"`
	FairOdds    string             `json:"fair_odds,omitempty"`
	Surface     Surface            `json:"surface"`
	SpeedBucket SpeedBucket        `json:"speed_bucket"`
	Inputs      MatchupInputs      `json:"inputs"`
	Features    FeatureSet         `json:"features"`
	WeightsHist HistWeights        `json:"weights_hist"`
	Components  *MatchupComponents `json:"components,omitempty"`
}

// MatchupSnapshot is the cached value for one canonical-order computation.
type MatchupSnapshot struct {
	ProbPlayer  float64           `json:"prob_player"`
	Features    FeatureSet        `json:"features"`
	WeightsHist HistWeights       `json:"weights_hist"`
	Surface     Surface           `json:"surface"`
	SpeedBucket SpeedBucket       `json:"speed_bucket"`
	Sources     map[string]string `json:"sources,omitempty"`
	ComputedAt  time.Time         `json:"computed_at"`
}
