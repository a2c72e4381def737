package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/repository"
)

// APIKeyRepository stores hashed bearer tokens and resolves them to
// principals.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
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
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		token = hex.EncodeToString(buf)
	}

	_, err := r.db.q(ctx).ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, principal, created_at, description) VALUES (?, ?, ?, ?)`,
		repository.HashToken(token), principal, time.Now().UTC(), description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", repository.ErrConflict
		}
		return "", fmt.Errorf("failed to add api key: %w", err)
	}
	return token, nil
}

// ResolvePrincipal returns the principal a bearer token belongs to and
// stamps its last use.
func (r *APIKeyRepository) ResolvePrincipal(ctx context.Context, token string) (escrow.Principal, error) {
	hash := repository.HashToken(token)
	var principal escrow.Principal
	err := r.db.q(ctx).QueryRowContext(ctx,
		`SELECT principal FROM api_keys WHERE key_hash = ?`, hash).Scan(&principal)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && principal == "") {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	_, _ = r.db.q(ctx).ExecContext(ctx,
		`UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash)
	return principal, nil
}
