package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
)

// ProjectRepository implements escrow.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create assigns the next project id and inserts the record. It must run
// inside WithinTx so the counter advances only if the insert succeeds.
func (r *ProjectRepository) Create(ctx context.Context, pr *escrow.Project) (escrow.ProjectID, error) {
	q := r.db.q(ctx)
	if _, ok := q.(*sql.Tx); !ok {
		return 0, repository.ErrNoTransaction
	}

	var next int64
	err := q.QueryRowContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = 'project_id' RETURNING value`,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to advance project counter: %w", err)
	}

	query := `
		INSERT INTO projects (
			id, client, talent, scout, amount,
			scout_fee_percent, platform_fee_percent, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = q.ExecContext(ctx, query,
		next,
		pr.Client,
		pr.Talent,
		pr.Scout,
		formatAmount(pr.Amount),
		pr.ScoutFeePercent,
		pr.PlatformFeePercent,
		uint8(pr.Status),
		pr.CreatedAt,
		pr.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrConflict
		}
		return 0, fmt.Errorf("failed to create project: %w", err)
	}

	return escrow.ProjectID(next), nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id escrow.ProjectID) (*escrow.Project, error) {
	query := `
		SELECT id, client, talent, scout, amount,
			scout_fee_percent, platform_fee_percent, status, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	var (
		pr     escrow.Project
		amount string
		status uint8
	)
	err := r.db.q(ctx).QueryRowContext(ctx, query, uint64(id)).Scan(
		&pr.ID,
		&pr.Client,
		&pr.Talent,
		&pr.Scout,
		&amount,
		&pr.ScoutFeePercent,
		&pr.PlatformFeePercent,
		&status,
		&pr.CreatedAt,
		&pr.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if pr.Amount, err = parseAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %w", escrow.ErrCorruptRecord, err)
	}
	if pr.Status, err = escrow.ParseStatus(status); err != nil {
		return nil, err
	}
	return &pr, nil
}

// SetStatus overwrites the status of an existing project
func (r *ProjectRepository) SetStatus(ctx context.Context, id escrow.ProjectID, status escrow.Status, updatedAt time.Time) error {
	res, err := r.db.q(ctx).ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		uint8(status), updatedAt, uint64(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
