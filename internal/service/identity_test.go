package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estratego/matchpoint/internal/models"
)

func strPtr(s string) *string { return &s }

func testPlayers() *stubPlayerRepo {
	return &stubPlayerRepo{players: []models.Player{
		{ID: 1, Name: "Carlos Alcaraz", Country: "ES", ExternalID: strPtr("407573")},
		{ID: 2, Name: "Jannik Sinner", Country: "IT", ExternalID: strPtr("225050")},
		{ID: 3, Name: "Alcaraz Gonzalez", Country: "AR"},
	}}
}

func TestResolvePrecedence(t *testing.T) {
	resolver := NewIdentityResolver(testPlayers(), quietLogger())
	ctx := context.Background()

	t.Run("internal id wins over everything", func(t *testing.T) {
		player, err := resolver.Resolve(ctx, []models.PlayerRef{
			models.InternalRef(2),
			models.ExternalRef("407573"),
			models.NameRef("Alcaraz"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), player.ID)
	})

	t.Run("external id wins over name", func(t *testing.T) {
		player, err := resolver.Resolve(ctx, []models.PlayerRef{
			models.ExternalRef("sr:competitor:225050"),
			models.NameRef("Alcaraz"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), player.ID)
	})

	t.Run("name alone resolves", func(t *testing.T) {
		player, err := resolver.Resolve(ctx, []models.PlayerRef{models.NameRef("sinner")})
		require.NoError(t, err)
		assert.Equal(t, int64(2), player.ID)
	})

	t.Run("shortest name match preferred", func(t *testing.T) {
		player, err := resolver.Resolve(ctx, []models.PlayerRef{models.NameRef("Alcaraz")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), player.ID)
	})
}

func TestResolveFallsThroughOnMiss(t *testing.T) {
	resolver := NewIdentityResolver(testPlayers(), quietLogger())

	// Internal ID misses, external ID lands.
	player, err := resolver.Resolve(context.Background(), []models.PlayerRef{
		models.InternalRef(999),
		models.ExternalRef("225050"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), player.ID)
}

func TestResolveFailure(t *testing.T) {
	resolver := NewIdentityResolver(testPlayers(), quietLogger())
	ctx := context.Background()

	t.Run("no references", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, nil)
		assert.ErrorIs(t, err, models.ErrUnresolvedPlayer)
	})

	t.Run("nothing matches", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, []models.PlayerRef{models.NameRef("Nobody Atall")})
		assert.ErrorIs(t, err, models.ErrUnresolvedPlayer)
	})
}

type failingPlayerRepo struct {
	stubPlayerRepo
	err error
}

func (r *failingPlayerRepo) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	return nil, r.err
}

func TestResolveAbortsOnBackendError(t *testing.T) {
	backendErr := errors.New("connection refused")
	repo := &failingPlayerRepo{stubPlayerRepo: *testPlayers(), err: backendErr}
	resolver := NewIdentityResolver(repo, quietLogger())

	// A backend failure must not silently fall through to a name match.
	_, err := resolver.Resolve(context.Background(), []models.PlayerRef{
		models.InternalRef(1),
		models.NameRef("Alcaraz"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, backendErr)
}
