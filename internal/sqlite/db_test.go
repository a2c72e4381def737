package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"projects",
		"counters",
		"governance",
		"balances",
		"transfers",
		"activity_log",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies a second run leaves data intact
func TestMigrationsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	_, err := db.Exec(`UPDATE counters SET value = 5 WHERE name = 'project_id'`)
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations())

	var value int
	require.NoError(t, db.QueryRow(`SELECT value FROM counters WHERE name = 'project_id'`).Scan(&value))
	require.Equal(t, 5, value)
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestGovernanceSingleton verifies only row id 1 may exist
func TestGovernanceSingleton(t *testing.T) {
	db := NewTestDB(t)
	_, err := db.Exec(`INSERT INTO governance (id, super_admin, platform_wallet, updated_at) VALUES (2, 'a', 'b', CURRENT_TIMESTAMP)`)
	require.Error(t, err)
}

func TestWithinTx_RollsBack(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		_, err := db.q(ctx).ExecContext(ctx, `INSERT INTO balances (principal, amount) VALUES ('alice', '10')`)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM balances`).Scan(&count))
	require.Zero(t, count)
}

func TestWithinTx_JoinsOuterTransaction(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		return db.WithinTx(ctx, func(ctx context.Context) error {
			_, err := db.q(ctx).ExecContext(ctx, `INSERT INTO balances (principal, amount) VALUES ('alice', '10')`)
			return err
		})
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM balances`).Scan(&count))
	require.Equal(t, 1, count)
}
