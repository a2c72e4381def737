package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
	"go.etcd.io/bbolt"
)

// ProjectRepository implements escrow.Repository on the projects bucket.
// The bucket sequence is the project counter.
type ProjectRepository struct {
	s *Store
}

var _ escrow.Repository = (*ProjectRepository)(nil)

// Create assigns the next bucket sequence as the id. It must run inside
// WithinTx; a rolled back transaction also rolls back the sequence.
func (r *ProjectRepository) Create(ctx context.Context, pr *escrow.Project) (escrow.ProjectID, error) {
	if !inTx(ctx) {
		return 0, repository.ErrNoTransaction
	}
	var id uint64
	err := r.s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		next, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("bolt: next project id: %w", err)
		}
		if b.Get(idKey(next)) != nil {
			return repository.ErrConflict
		}
		rec := *pr
		rec.ID = escrow.ProjectID(next)
		data, err := encodeGob(rec)
		if err != nil {
			return fmt.Errorf("bolt: encode project: %w", err)
		}
		if err := b.Put(idKey(next), data); err != nil {
			return fmt.Errorf("bolt: put project: %w", err)
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return escrow.ProjectID(id), nil
}

// Get retrieves a project by id.
func (r *ProjectRepository) Get(ctx context.Context, id escrow.ProjectID) (*escrow.Project, error) {
	var pr escrow.Project
	err := r.s.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProjects).Get(idKey(uint64(id)))
		if data == nil {
			return repository.ErrNotFound
		}
		if err := decodeGob(data, &pr); err != nil {
			return fmt.Errorf("%w: decode project %d: %w", escrow.ErrCorruptRecord, id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := escrow.ParseStatus(uint8(pr.Status)); err != nil {
		return nil, err
	}
	return &pr, nil
}

// SetStatus overwrites the status of an existing project.
func (r *ProjectRepository) SetStatus(ctx context.Context, id escrow.ProjectID, status escrow.Status, updatedAt time.Time) error {
	return r.s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		data := b.Get(idKey(uint64(id)))
		if data == nil {
			return repository.ErrNotFound
		}
		var pr escrow.Project
		if err := decodeGob(data, &pr); err != nil {
			return fmt.Errorf("%w: decode project %d: %w", escrow.ErrCorruptRecord, id, err)
		}
		pr.Status = status
		pr.UpdatedAt = updatedAt
		out, err := encodeGob(pr)
		if err != nil {
			return fmt.Errorf("bolt: encode project: %w", err)
		}
		return b.Put(idKey(uint64(id)), out)
	})
}
