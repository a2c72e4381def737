// Package bolt persists escrow state in a single bbolt file.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketProjects    = []byte("projects")
	bucketGovernance  = []byte("governance")
	bucketBalances    = []byte("balances")
	bucketTransfers   = []byte("transfers")
	bucketTransferIDs = []byte("transfer_ids")
	bucketActivity    = []byte("activity")
	bucketAPIKeys     = []byte("api_keys")

	keyGovernance = []byte("state")
)

// Store wraps a bbolt database holding every escrow bucket.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt database at path. The parent directory is
// created if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("bolt: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketProjects, bucketGovernance, bucketBalances, bucketTransfers, bucketTransferIDs, bucketActivity, bucketAPIKeys} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Projects returns the project repository.
func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }

// Governance returns the governance repository.
func (s *Store) Governance() *GovernanceRepository { return &GovernanceRepository{s: s} }

// Ledger returns the balance and transfer repository.
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{s: s} }

// Activity returns the activity repository.
func (s *Store) Activity() *ActivityRepository { return &ActivityRepository{s: s} }

// APIKeys returns the bearer token repository.
func (s *Store) APIKeys() *APIKeyRepository { return &APIKeyRepository{s: s} }

type txKey struct{}

// WithinTx runs fn inside one read-write bbolt transaction carried on the
// context. A transaction already on ctx is joined.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*bbolt.Tx); ok {
		return fn(ctx)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (s *Store) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*bbolt.Tx); ok {
		return fn(tx)
	}
	return s.db.View(fn)
}

func (s *Store) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*bbolt.Tx); ok {
		return fn(tx)
	}
	return s.db.Update(fn)
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*bbolt.Tx)
	return ok
}

// idKey encodes an id as an 8-byte big-endian key for sorted storage.
func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// page applies offset and limit to a filtered iteration. It reports whether
// the item at the current position should be kept and whether iteration can
// stop.
type page struct {
	offset, limit, seen, kept int
}

func (p *page) take() (keep, done bool) {
	p.seen++
	if p.seen <= p.offset {
		return false, false
	}
	p.kept++
	return true, p.limit > 0 && p.kept >= p.limit
}
