package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/repository"
)

// Tournament metadata sources, in resolution order.
const (
	TournamentSourceExact   = "exact"
	TournamentSourceFuzzy   = "fuzzy"
	TournamentSourceDefault = "default"
)

// TournamentResolver turns a free-text tournament name into surface and
// court-speed metadata. Resolution order is exact normalized-key lookup,
// fuzzy name match, then the documented Hard/Medium default.
type TournamentResolver struct {
	tournaments repository.TournamentRepository
	logger      *logrus.Logger
}

// NewTournamentResolver creates a tournament resolver
func NewTournamentResolver(tournaments repository.TournamentRepository, logger *logrus.Logger) *TournamentResolver {
	return &TournamentResolver{tournaments: tournaments, logger: logger}
}

// Resolve returns metadata for the name plus the source it came from.
// Lookup failures are treated like missing rows; a prediction must not
// fail because the speed table is unreachable.
func (r *TournamentResolver) Resolve(ctx context.Context, name string) (models.TournamentMeta, string) {
	if name == "" {
		return models.DefaultTournamentMeta(name), TournamentSourceDefault
	}

	key := models.NormalizeTournamentKey(name)
	meta, err := r.tournaments.GetByKey(ctx, key)
	if err == nil {
		return r.fillDerived(*meta), TournamentSourceExact
	}
	if !errors.Is(err, models.ErrNotFound) {
		r.logger.WithError(err).WithField("tournament", name).Warn("Tournament key lookup failed")
	}

	meta, err = r.tournaments.FindByFuzzyName(ctx, name)
	if err == nil {
		return r.fillDerived(*meta), TournamentSourceFuzzy
	}
	if !errors.Is(err, models.ErrNotFound) {
		r.logger.WithError(err).WithField("tournament", name).Warn("Tournament fuzzy lookup failed")
	}

	return models.DefaultTournamentMeta(name), TournamentSourceDefault
}

// fillDerived completes partially populated rows: a missing bucket comes
// from the rank when present, else from the surface.
func (r *TournamentResolver) fillDerived(meta models.TournamentMeta) models.TournamentMeta {
	if meta.SpeedBucket == models.SpeedUnknown {
		if meta.SpeedRank != nil {
			meta.SpeedBucket = models.BucketFromRank(*meta.SpeedRank)
		} else {
			meta.SpeedBucket = models.BucketFromSurface(string(meta.Surface))
		}
	}
	if meta.Surface == "" {
		meta.Surface = models.SurfaceUnknown
	}
	return meta
}
