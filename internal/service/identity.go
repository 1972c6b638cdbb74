package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/estratego/matchpoint/internal/models"
	"github.com/estratego/matchpoint/internal/repository"
)

// IdentityResolver maps the three accepted player reference kinds onto
// canonical player rows. References are tried in precedence order: internal
// ID, then external provider ID, then free-text name.
type IdentityResolver struct {
	players repository.PlayerRepository
	logger  *logrus.Logger
}

// NewIdentityResolver creates an identity resolver
func NewIdentityResolver(players repository.PlayerRepository, logger *logrus.Logger) *IdentityResolver {
	return &IdentityResolver{players: players, logger: logger}
}

// Resolve returns the first player any of the references resolves to.
// A reference that errors for a reason other than not-found aborts the
// whole resolution; falling through would silently pick a weaker match.
func (r *IdentityResolver) Resolve(ctx context.Context, refs []models.PlayerRef) (*models.Player, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no references supplied", models.ErrUnresolvedPlayer)
	}

	for _, ref := range refs {
		player, err := r.resolveOne(ctx, ref)
		if err == nil {
			return player, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("resolving %s: %w", ref, err)
		}
		r.logger.WithField("ref", ref.String()).Debug("Player reference did not resolve, trying next")
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUnresolvedPlayer, refs[0])
}

func (r *IdentityResolver) resolveOne(ctx context.Context, ref models.PlayerRef) (*models.Player, error) {
	switch ref.Kind {
	case models.RefInternalID:
		return r.players.GetByID(ctx, ref.InternalID)
	case models.RefExternalID:
		return r.players.GetByExternalID(ctx, ref.Value)
	case models.RefName:
		return r.players.GetByName(ctx, ref.Value)
	default:
		return nil, fmt.Errorf("unknown player reference kind %d", ref.Kind)
	}
}
