package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/referydo/internal/bolt"
	"github.com/rpggio/referydo/internal/config"
	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/rpggio/referydo/internal/sqlite"
)

// APIKeys provisions and resolves bearer tokens.
type APIKeys interface {
	// Add stores token for principal, generating one when token is empty,
	// and returns it.
	Add(ctx context.Context, principal escrow.Principal, token, description string) (string, error)
	ResolvePrincipal(ctx context.Context, token string) (escrow.Principal, error)
}

// Store is one opened persistence backend.
type Store struct {
	Driver     string
	Projects   escrow.Repository
	Ledger     ledger.Repository
	Governance governance.Repository
	Activity   activity.Repository
	APIKeys    APIKeys
	Tx         escrow.TxRunner

	close func() error
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the backend named by cfg.Driver and prepares its schema.
func OpenStore(cfg config.DBConfig) (*Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return openSQLite(cfg.Path)
	case "bolt":
		return openBolt(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidDriver, cfg.Driver)
	}
}

func openSQLite(path string) (*Store, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		Driver:     "sqlite",
		Projects:   sqlite.NewProjectRepository(db),
		Ledger:     sqlite.NewLedgerRepository(db),
		Governance: sqlite.NewGovernanceRepository(db),
		Activity:   sqlite.NewActivityRepository(db),
		APIKeys:    sqlite.NewAPIKeyRepository(db),
		Tx:         db,
		close:      db.Close,
	}, nil
}

func openBolt(path string) (*Store, error) {
	db, err := bolt.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{
		Driver:     "bolt",
		Projects:   db.Projects(),
		Ledger:     db.Ledger(),
		Governance: db.Governance(),
		Activity:   db.Activity(),
		APIKeys:    db.APIKeys(),
		Tx:         db,
		close:      db.Close,
	}, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
