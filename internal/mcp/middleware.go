package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/transport"
)

type callerKey struct{}

func callerFromContext(ctx context.Context) (escrow.Principal, bool) {
	p, ok := ctx.Value(callerKey{}).(escrow.Principal)
	return p, ok && p != ""
}

func withCaller(ctx context.Context, p escrow.Principal) context.Context {
	return context.WithValue(ctx, callerKey{}, p)
}

// authMiddleware resolves the caller of each tool call from its bearer
// token. Other methods pass through untouched.
func authMiddleware(resolver transport.PrincipalResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("%w: missing headers", transport.ErrUnauthorized)
			}
			token := transport.BearerToken(extra.Header.Get("Authorization"))
			if token == "" {
				return nil, fmt.Errorf("%w: missing bearer token", transport.ErrUnauthorized)
			}
			p, err := resolver.ResolvePrincipal(ctx, token)
			if err != nil || p == "" {
				return nil, fmt.Errorf("%w: invalid bearer token", transport.ErrUnauthorized)
			}
			return next(withCaller(ctx, p), method, req)
		}
	}
}

// defaultCallerMiddleware acts as p for every request.
func defaultCallerMiddleware(p escrow.Principal) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(withCaller(ctx, p), method, req)
		}
	}
}
