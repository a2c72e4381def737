package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/repository"
)

// GovernanceRepository implements governance.Repository for SQLite
type GovernanceRepository struct {
	db *DB
}

// NewGovernanceRepository creates a new GovernanceRepository
func NewGovernanceRepository(db *DB) *GovernanceRepository {
	return &GovernanceRepository{db: db}
}

// Get returns the singleton row
func (r *GovernanceRepository) Get(ctx context.Context) (*governance.State, error) {
	var st governance.State
	err := r.db.q(ctx).QueryRowContext(ctx,
		`SELECT super_admin, platform_wallet, custody, updated_at FROM governance WHERE id = 1`,
	).Scan(&st.SuperAdmin, &st.PlatformWallet, &st.Custody, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get governance: %w", err)
	}
	return &st, nil
}

// Put inserts or replaces the singleton row
func (r *GovernanceRepository) Put(ctx context.Context, st *governance.State) error {
	query := `
		INSERT INTO governance (id, super_admin, platform_wallet, custody, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			super_admin = excluded.super_admin,
			platform_wallet = excluded.platform_wallet,
			custody = excluded.custody,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.q(ctx).ExecContext(ctx, query, st.SuperAdmin, st.PlatformWallet, st.Custody, st.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save governance: %w", err)
	}
	return nil
}
