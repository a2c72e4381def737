package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestGovernanceRepository_GetPut(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewGovernanceRepository(db)

	_, err := repo.Get(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	st := &governance.State{SuperAdmin: "ST1ADMIN", PlatformWallet: governance.DefaultPlatformWallet, Custody: "ST1ADMIN.referydo-escrow", UpdatedAt: time.Now().UTC()}
	require.NoError(t, repo.Put(ctx, st))

	st.SuperAdmin = "ST1NEXT"
	require.NoError(t, repo.Put(ctx, st))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, st.SuperAdmin, got.SuperAdmin)
	require.Equal(t, st.PlatformWallet, got.PlatformWallet)
	require.Equal(t, st.Custody, got.Custody)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM governance`).Scan(&rows))
	require.Equal(t, 1, rows)
}
