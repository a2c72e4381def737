package bolt

import (
	"context"
	"fmt"

	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/repository"
	"go.etcd.io/bbolt"
)

// GovernanceRepository implements governance.Repository under a single key.
type GovernanceRepository struct {
	s *Store
}

var _ governance.Repository = (*GovernanceRepository)(nil)

// Get returns the singleton.
func (r *GovernanceRepository) Get(ctx context.Context) (*governance.State, error) {
	var st governance.State
	err := r.s.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketGovernance).Get(keyGovernance)
		if data == nil {
			return repository.ErrNotFound
		}
		if err := decodeGob(data, &st); err != nil {
			return fmt.Errorf("bolt: decode governance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Put replaces the singleton.
func (r *GovernanceRepository) Put(ctx context.Context, st *governance.State) error {
	data, err := encodeGob(st)
	if err != nil {
		return fmt.Errorf("bolt: encode governance: %w", err)
	}
	return r.s.update(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketGovernance).Put(keyGovernance, data)
	})
}
