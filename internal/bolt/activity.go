package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/referydo/internal/domain/activity"
	"go.etcd.io/bbolt"
)

// ActivityRepository implements activity.Repository keyed by sequence.
type ActivityRepository struct {
	s *Store
}

var _ activity.Repository = (*ActivityRepository)(nil)

// Log appends an entry and assigns its id.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketActivity)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("bolt: next activity id: %w", err)
		}
		rec := *entry
		rec.ID = int64(seq)
		data, err := encodeGob(rec)
		if err != nil {
			return fmt.Errorf("bolt: encode activity: %w", err)
		}
		if err := b.Put(idKey(seq), data); err != nil {
			return fmt.Errorf("bolt: put activity: %w", err)
		}
		entry.ID = rec.ID
		return nil
	})
}

// List returns entries newest first. Entries are appended in time order, so
// walking the sequence backwards is newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	entries := []activity.Entry{}
	pg := page{offset: opts.Offset, limit: opts.Limit}
	err := r.s.view(ctx, func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketActivity).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var entry activity.Entry
			if err := decodeGob(v, &entry); err != nil {
				return fmt.Errorf("bolt: decode activity: %w", err)
			}
			if opts.ProjectID != nil && (entry.ProjectID == nil || *entry.ProjectID != *opts.ProjectID) {
				continue
			}
			if opts.Type != nil && entry.Type != *opts.Type {
				continue
			}
			keep, done := pg.take()
			if keep {
				entries = append(entries, entry)
			}
			if done {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
