package bolt

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/rpggio/referydo/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "escrow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testProject() *escrow.Project {
	now := time.Now().UTC()
	return &escrow.Project{
		Client:             "ST1CLIENT",
		Talent:             "ST1TALENT",
		Scout:              "ST1SCOUT",
		Amount:             math.MaxUint64,
		ScoutFeePercent:    15,
		PlatformFeePercent: 7,
		Status:             escrow.StatusCreated,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func create(t *testing.T, s *Store) escrow.ProjectID {
	t.Helper()
	var id escrow.ProjectID
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context) error {
		var err error
		id, err = s.Projects().Create(ctx, testProject())
		return err
	}))
	return id
}

func TestProjectRepository_CreateGet(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	require.Equal(t, escrow.ProjectID(1), create(t, s))
	require.Equal(t, escrow.ProjectID(2), create(t, s))

	got, err := s.Projects().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, escrow.ProjectID(1), got.ID)
	assert.Equal(t, uint64(math.MaxUint64), got.Amount)
	assert.Equal(t, escrow.Principal("ST1TALENT"), got.Talent)
	assert.Equal(t, escrow.StatusCreated, got.Status)

	got, err = s.Projects().Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, escrow.ProjectID(2), got.ID)

	_, err = s.Projects().Get(ctx, 3)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_CreateRequiresTransaction(t *testing.T) {
	s := tempStore(t)
	_, err := s.Projects().Create(context.Background(), testProject())
	require.ErrorIs(t, err, repository.ErrNoTransaction)
}

func TestProjectRepository_RollbackRestoresCounter(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.Projects().Create(ctx, testProject())
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.Equal(t, escrow.ProjectID(1), create(t, s))
}

func TestProjectRepository_SetStatus(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	id := create(t, s)

	require.NoError(t, s.Projects().SetStatus(ctx, id, escrow.StatusDeclined, time.Now().UTC()))
	got, err := s.Projects().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, escrow.StatusDeclined, got.Status)

	require.ErrorIs(t, s.Projects().SetStatus(ctx, 99, escrow.StatusFunded, time.Now()), repository.ErrNotFound)
}

func TestProjectRepository_ReservedStatusIsCorrupt(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	id := create(t, s)

	require.NoError(t, s.Projects().SetStatus(ctx, id, escrow.Status(3), time.Now()))
	_, err := s.Projects().Get(ctx, id)
	require.ErrorIs(t, err, escrow.ErrCorruptRecord)
}

func TestStore_ReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.db")
	s, err := Open(path)
	require.NoError(t, err)
	_ = create(t, s)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, escrow.ProjectID(2), create(t, s))
}

func TestGovernanceRepository(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	repo := s.Governance()

	_, err := repo.Get(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Put(ctx, &governance.State{SuperAdmin: "ST1ADMIN", PlatformWallet: governance.DefaultPlatformWallet}))
	require.NoError(t, repo.Put(ctx, &governance.State{SuperAdmin: "ST1NEXT", PlatformWallet: governance.DefaultPlatformWallet, Custody: "ST1VAULT"}))

	st, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, escrow.Principal("ST1NEXT"), st.SuperAdmin)
	assert.Equal(t, escrow.Principal("ST1VAULT"), st.Custody)
}

func TestLedgerRepository(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	repo := s.Ledger()

	bal, err := repo.Balance(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, bal)

	require.NoError(t, repo.SetBalance(ctx, "alice", math.MaxUint64))
	bal, err = repo.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), bal)

	now := time.Now().UTC()
	for _, ev := range []escrow.TransferEvent{
		{ID: "t1", ProjectID: 1, Sender: "alice", Recipient: "custody", Amount: 10, CreatedAt: now},
		{ID: "t2", ProjectID: 2, Sender: "bob", Recipient: "custody", Amount: 20, CreatedAt: now},
		{ID: "t3", ProjectID: 1, Sender: "custody", Recipient: "carol", Amount: 10, CreatedAt: now},
	} {
		require.NoError(t, repo.AppendTransfer(ctx, &ev))
	}
	require.ErrorIs(t, repo.AppendTransfer(ctx, &escrow.TransferEvent{ID: "t1"}), repository.ErrConflict)

	all, err := repo.ListTransfers(ctx, ledger.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t1", all[0].ID)

	pid := escrow.ProjectID(1)
	byProject, err := repo.ListTransfers(ctx, ledger.ListOptions{ProjectID: &pid, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, "t1", byProject[0].ID)

	carol := escrow.Principal("carol")
	byPrincipal, err := repo.ListTransfers(ctx, ledger.ListOptions{Principal: &carol})
	require.NoError(t, err)
	require.Len(t, byPrincipal, 1)

	paged, err := repo.ListTransfers(ctx, ledger.ListOptions{Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, "t2", paged[0].ID)
}

func TestActivityRepository(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	repo := s.Activity()

	p1, p2 := uint64(1), uint64(2)
	require.NoError(t, repo.Log(ctx, &activity.Entry{ProjectID: &p1, Actor: "a", Type: activity.TypeProjectCreated, Summary: "1"}))
	require.NoError(t, repo.Log(ctx, &activity.Entry{ProjectID: &p2, Actor: "a", Type: activity.TypeProjectCreated, Summary: "2"}))
	entry := &activity.Entry{Actor: "admin", Type: activity.TypeAdminTransferred, Summary: "3"}
	require.NoError(t, repo.Log(ctx, entry))
	assert.Equal(t, int64(3), entry.ID)

	entries, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "3", entries[0].Summary)
	assert.Nil(t, entries[0].ProjectID)

	entries, err = repo.List(ctx, activity.ListOptions{ProjectID: &p1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].Summary)

	typ := activity.TypeProjectCreated
	entries, err = repo.List(ctx, activity.ListOptions{Type: &typ, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1", entries[0].Summary)
}

func TestAPIKeyRepository(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	repo := s.APIKeys()

	token, err := repo.Add(ctx, "ST1CLIENT", "", "cli")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	p, err := repo.ResolvePrincipal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, escrow.Principal("ST1CLIENT"), p)

	_, err = repo.Add(ctx, "ST1OTHER", token, "")
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.ResolvePrincipal(ctx, "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
