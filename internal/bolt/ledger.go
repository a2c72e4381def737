package bolt

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/rpggio/referydo/internal/repository"
	"go.etcd.io/bbolt"
)

// LedgerRepository implements ledger.Repository. Balances are 8-byte
// big-endian values keyed by principal; transfers are gob records keyed by
// sequence.
type LedgerRepository struct {
	s *Store
}

var _ ledger.Repository = (*LedgerRepository)(nil)

// Balance returns 0 for principals without an entry.
func (r *LedgerRepository) Balance(ctx context.Context, p escrow.Principal) (uint64, error) {
	var bal uint64
	err := r.s.view(ctx, func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketBalances).Get([]byte(p))
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return fmt.Errorf("bolt: balance for %s has %d bytes", p, len(v))
		}
		bal = binary.BigEndian.Uint64(v)
		return nil
	})
	return bal, err
}

// SetBalance stores a balance.
func (r *LedgerRepository) SetBalance(ctx context.Context, p escrow.Principal, amount uint64) error {
	return r.s.update(ctx, func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBalances).Put([]byte(p), idKey(amount))
	})
}

// AppendTransfer adds an event to the transfer log.
func (r *LedgerRepository) AppendTransfer(ctx context.Context, ev *escrow.TransferEvent) error {
	data, err := encodeGob(ev)
	if err != nil {
		return fmt.Errorf("bolt: encode transfer: %w", err)
	}
	return r.s.update(ctx, func(tx *bbolt.Tx) error {
		ids := tx.Bucket(bucketTransferIDs)
		if ids.Get([]byte(ev.ID)) != nil {
			return repository.ErrConflict
		}
		b := tx.Bucket(bucketTransfers)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("bolt: next transfer seq: %w", err)
		}
		if err := ids.Put([]byte(ev.ID), idKey(seq)); err != nil {
			return fmt.Errorf("bolt: index transfer: %w", err)
		}
		return b.Put(idKey(seq), data)
	})
}

// ListTransfers returns logged transfers oldest first.
func (r *LedgerRepository) ListTransfers(ctx context.Context, opts ledger.ListOptions) ([]escrow.TransferEvent, error) {
	events := []escrow.TransferEvent{}
	pg := page{offset: opts.Offset, limit: opts.Limit}
	err := r.s.view(ctx, func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketTransfers).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev escrow.TransferEvent
			if err := decodeGob(v, &ev); err != nil {
				return fmt.Errorf("bolt: decode transfer: %w", err)
			}
			if opts.ProjectID != nil && ev.ProjectID != *opts.ProjectID {
				continue
			}
			if opts.Principal != nil && ev.Sender != *opts.Principal && ev.Recipient != *opts.Principal {
				continue
			}
			keep, done := pg.take()
			if keep {
				events = append(events, ev)
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
	return events, nil
}
