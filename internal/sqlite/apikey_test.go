package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)

	token, err := repo.Add(ctx, "ST1CLIENT", "client-token", "test")
	require.NoError(t, err)
	require.Equal(t, "client-token", token)

	generated, err := repo.Add(ctx, "ST1TALENT", "", "")
	require.NoError(t, err)
	require.Len(t, generated, 48)

	p, err := repo.ResolvePrincipal(ctx, "client-token")
	require.NoError(t, err)
	require.Equal(t, escrow.Principal("ST1CLIENT"), p)

	p, err = repo.ResolvePrincipal(ctx, generated)
	require.NoError(t, err)
	require.Equal(t, escrow.Principal("ST1TALENT"), p)

	_, err = repo.ResolvePrincipal(ctx, "unknown")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Add(ctx, "ST1OTHER", "client-token", "")
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Add(ctx, "bad principal", "x", "")
	require.ErrorIs(t, err, escrow.ErrInvalidPrincipal)
}
