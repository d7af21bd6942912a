package communities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/db/postgres/postgrestest"
)

func TestIntegration_Repository(t *testing.T) {
	repo := NewRepository(postgrestest.Start(t))
	ctx := context.Background()

	added, err := repo.SeedIfEmpty(ctx, []*Community{{ID: "a1", Name: "changemyview"}})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	added, err = repo.SeedIfEmpty(ctx, []*Community{{ID: "z9"}})
	require.NoError(t, err)
	require.Zero(t, added)

	c, err := repo.Add(ctx, "b2", "other")
	require.NoError(t, err)
	require.False(t, c.CreatedAt.IsZero())

	_, err = repo.Add(ctx, "b2", "other")
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a1", list[0].ID)

	require.NoError(t, repo.Remove(ctx, "a1"))
	require.ErrorIs(t, repo.Remove(ctx, "a1"), common.ErrNotFound)
}
