package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rpggio/referydo/internal/domain/escrow"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type principalKey struct{}

// PrincipalResolver resolves the calling principal from a bearer token.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (escrow.Principal, error)
}

// PrincipalFromContext returns the calling principal from context, if present.
func PrincipalFromContext(ctx context.Context) (escrow.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(escrow.Principal)
	return p, ok && p != ""
}

// WithPrincipal stores the calling principal in ctx.
func WithPrincipal(ctx context.Context, p escrow.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			p, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil || !p.Valid() {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// StaticPrincipal attributes every request to p. Used when authentication is
// disabled.
func StaticPrincipal(p escrow.Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
