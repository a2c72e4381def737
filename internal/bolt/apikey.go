package bolt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
	"go.etcd.io/bbolt"
)

type apiKey struct {
	Principal   escrow.Principal
	Description string
	CreatedAt   time.Time
	LastUsed    time.Time
}

// APIKeyRepository stores hashed bearer tokens.
type APIKeyRepository struct {
	s *Store
}

// Add registers token for principal. An empty token is generated and
// returned.
func (r *APIKeyRepository) Add(ctx context.Context, principal escrow.Principal, token, description string) (string, error) {
	if !principal.Valid() {
		return "", escrow.ErrInvalidPrincipal
	}
	if token == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("bolt: generate token: %w", err)
		}
		token = hex.EncodeToString(buf)
	}
	data, err := encodeGob(apiKey{Principal: principal, Description: description, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("bolt: encode api key: %w", err)
	}
	hash := []byte(repository.HashToken(token))
	err = r.s.update(ctx, func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAPIKeys)
		if b.Get(hash) != nil {
			return repository.ErrConflict
		}
		return b.Put(hash, data)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResolvePrincipal returns the principal a bearer token belongs to.
func (r *APIKeyRepository) ResolvePrincipal(ctx context.Context, token string) (escrow.Principal, error) {
	hash := []byte(repository.HashToken(token))
	var key apiKey
	err := r.s.view(ctx, func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAPIKeys).Get(hash)
		if data == nil {
			return repository.ErrNotFound
		}
		return decodeGob(data, &key)
	})
	if err != nil {
		return "", err
	}
	if key.Principal == "" {
		return "", repository.ErrNotFound
	}
	return key.Principal, nil
}
