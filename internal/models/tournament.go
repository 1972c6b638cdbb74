package models

import "strings"

// Surface is the canonical playing surface of a tournament.
type Surface string

const (
	SurfaceHard    Surface = "hard"
	SurfaceClay    Surface = "clay"
	SurfaceGrass   Surface = "grass"
	SurfaceCarpet  Surface = "carpet"
	SurfaceUnknown Surface = "unknown"
)

// ParseSurface maps free-text surface names onto the canonical enum.
// Provider feeds use variants like "hardcourt_outdoor" or "red_clay".
func ParseSurface(s string) Surface {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return SurfaceUnknown
	case strings.Contains(v, "clay"):
		return SurfaceClay
	case strings.Contains(v, "grass"):
		return SurfaceGrass
	case strings.Contains(v, "carpet"):
		return SurfaceCarpet
	case strings.Contains(v, "hard"):
		return SurfaceHard
	default:
		return SurfaceUnknown
	}
}

// SpeedBucket is a coarse court-speed label.
type SpeedBucket string

const (
	SpeedSlow    SpeedBucket = "Slow"
	SpeedMedium  SpeedBucket = "Medium"
	SpeedFast    SpeedBucket = "Fast"
	SpeedUnknown SpeedBucket = ""
)

// BucketFromRank derives a speed bucket from a numeric court-speed rank.
// The upper bound of the lower bucket is inclusive.
func BucketFromRank(rank int) SpeedBucket {
	switch {
	case rank <= 33:
		return SpeedSlow
	case rank <= 66:
		return SpeedMedium
	default:
		return SpeedFast
	}
}

// BucketFromSurface derives a speed bucket when no explicit rank exists.
// Grass and indoor courts play fast, clay slow, hard medium.
func BucketFromSurface(surface string) SpeedBucket {
	v := strings.ToLower(surface)
	switch {
	case strings.Contains(v, "grass"), strings.Contains(v, "indoor"):
		return SpeedFast
	case strings.Contains(v, "clay"):
		return SpeedSlow
	case strings.Contains(v, "hard"):
		return SpeedMedium
	default:
		return SpeedUnknown
	}
}

// TournamentMeta is the resolved metadata for a tournament name.
type TournamentMeta struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Surface     Surface     `json:"surface"`
	SpeedBucket SpeedBucket `json:"speed_bucket"`
	SpeedRank   *int        `json:"speed_rank,omitempty"`
	Category    string      `json:"category,omitempty"`
}

// DefaultTournamentMeta is returned when nothing resolves for a name.
// Hard/Medium is the documented default, not a silent zero value.
func DefaultTournamentMeta(name string) TournamentMeta {
	return TournamentMeta{
		Key:         NormalizeTournamentKey(name),
		Name:        name,
		Surface:     SurfaceHard,
		SpeedBucket: SpeedMedium,
	}
}

// NormalizeTournamentKey folds a free-text tournament name into the
// canonical lookup key: lowercase, punctuation stripped, whitespace
// collapsed to single underscores.
func NormalizeTournamentKey(name string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
