package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/rpggio/referydo/internal/repository"
)

// LedgerRepository implements ledger.Repository for SQLite
type LedgerRepository struct {
	db *DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Balance returns the stored balance, 0 if the principal has no row
func (r *LedgerRepository) Balance(ctx context.Context, p escrow.Principal) (uint64, error) {
	var amount string
	err := r.db.q(ctx).QueryRowContext(ctx,
		`SELECT amount FROM balances WHERE principal = ?`, p).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return parseAmount(amount)
}

// SetBalance upserts a balance row
func (r *LedgerRepository) SetBalance(ctx context.Context, p escrow.Principal, amount uint64) error {
	query := `
		INSERT INTO balances (principal, amount) VALUES (?, ?)
		ON CONFLICT(principal) DO UPDATE SET amount = excluded.amount
	`
	if _, err := r.db.q(ctx).ExecContext(ctx, query, p, formatAmount(amount)); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

// AppendTransfer adds an event to the transfer log
func (r *LedgerRepository) AppendTransfer(ctx context.Context, ev *escrow.TransferEvent) error {
	query := `
		INSERT INTO transfers (id, project_id, sender, recipient, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.q(ctx).ExecContext(ctx, query,
		ev.ID,
		uint64(ev.ProjectID),
		ev.Sender,
		ev.Recipient,
		formatAmount(ev.Amount),
		ev.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

// ListTransfers returns logged transfers oldest first
func (r *LedgerRepository) ListTransfers(ctx context.Context, opts ledger.ListOptions) ([]escrow.TransferEvent, error) {
	query := `
		SELECT id, project_id, sender, recipient, amount, created_at
		FROM transfers
		WHERE 1 = 1
	`
	var args []any
	if opts.ProjectID != nil {
		query += " AND project_id = ?"
		args = append(args, uint64(*opts.ProjectID))
	}
	if opts.Principal != nil {
		query += " AND (sender = ? OR recipient = ?)"
		args = append(args, *opts.Principal, *opts.Principal)
	}
	query += " ORDER BY seq ASC"
	query, args = paginate(query, args, opts.Limit, opts.Offset)

	rows, err := r.db.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	events := []escrow.TransferEvent{}
	for rows.Next() {
		var (
			ev     escrow.TransferEvent
			amount string
		)
		if err := rows.Scan(&ev.ID, &ev.ProjectID, &ev.Sender, &ev.Recipient, &amount, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		if ev.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer rows: %w", err)
	}
	return events, nil
}

// paginate appends LIMIT/OFFSET clauses. SQLite requires a LIMIT before an
// OFFSET, so -1 stands in for no limit.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 && offset <= 0 {
		return query, args
	}
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ?"
	args = append(args, limit)
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}
