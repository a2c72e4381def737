package sqlite

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
	"github.com/stretchr/testify/require"
)

func newProject() *escrow.Project {
	now := time.Now().UTC().Truncate(time.Second)
	return &escrow.Project{
		Client:             "ST1CLIENT",
		Talent:             "ST1TALENT",
		Scout:              "ST1SCOUT",
		Amount:             10_000_000,
		ScoutFeePercent:    10,
		PlatformFeePercent: 7,
		Status:             escrow.StatusCreated,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func createProject(t *testing.T, db *DB, repo *ProjectRepository, pr *escrow.Project) escrow.ProjectID {
	t.Helper()
	var id escrow.ProjectID
	err := db.WithinTx(context.Background(), func(ctx context.Context) error {
		var err error
		id, err = repo.Create(ctx, pr)
		return err
	})
	require.NoError(t, err)
	return id
}

func TestProjectRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)

	pr := newProject()
	pr.Amount = math.MaxUint64
	id := createProject(t, db, repo, pr)
	require.Equal(t, escrow.ProjectID(1), id)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, pr.Client, got.Client)
	require.Equal(t, pr.Talent, got.Talent)
	require.Equal(t, pr.Scout, got.Scout)
	require.Equal(t, uint64(math.MaxUint64), got.Amount)
	require.Equal(t, uint64(10), got.ScoutFeePercent)
	require.Equal(t, uint64(7), got.PlatformFeePercent)
	require.Equal(t, escrow.StatusCreated, got.Status)

	require.Equal(t, escrow.ProjectID(2), createProject(t, db, repo, newProject()))
}

func TestProjectRepository_CreateRequiresTransaction(t *testing.T) {
	db := NewTestDB(t)
	_, err := NewProjectRepository(db).Create(context.Background(), newProject())
	require.ErrorIs(t, err, repository.ErrNoTransaction)
}

func TestProjectRepository_RolledBackCreateDoesNotConsumeID(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, newProject())
		require.NoError(t, err)
		return repository.ErrConflict
	})
	require.Error(t, err)

	require.Equal(t, escrow.ProjectID(1), createProject(t, db, repo, newProject()))
}

func TestProjectRepository_NotFound(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)

	_, err := repo.Get(ctx, 42)
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.SetStatus(ctx, 42, escrow.StatusFunded, time.Now()), repository.ErrNotFound)
}

func TestProjectRepository_SetStatus(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)
	id := createProject(t, db, repo, newProject())

	require.NoError(t, repo.SetStatus(ctx, id, escrow.StatusPendingAcceptance, time.Now().UTC()))
	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, escrow.StatusPendingAcceptance, got.Status)
}

func TestProjectRepository_ReservedStatusIsCorrupt(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)
	id := createProject(t, db, repo, newProject())

	_, err := db.Exec(`UPDATE projects SET status = 3 WHERE id = ?`, uint64(id))
	require.NoError(t, err)

	_, err = repo.Get(ctx, id)
	require.ErrorIs(t, err, escrow.ErrCorruptRecord)
}
