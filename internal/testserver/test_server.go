// Package testserver runs a complete escrow server on an in-memory store for
// integration tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/referydo/internal/app"
	"github.com/rpggio/referydo/internal/config"
	"github.com/rpggio/referydo/internal/domain/escrow"
)

// Deployer becomes super-admin of every test server.
const Deployer = escrow.Principal("ST1DEPLOYER")

// PlatformWallet is the initial platform fee recipient.
const PlatformWallet = escrow.Principal("ST1PLATFORM")

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	tokens map[escrow.Principal]string
}

// New starts a server with auth enabled on the given driver ("sqlite" or
// "bolt").
func New(t *testing.T, driver string) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Driver = driver
	cfg.DB.Path = ":memory:"
	if driver == "bolt" {
		cfg.DB.Path = filepath.Join(t.TempDir(), "escrow.db")
	}
	cfg.Governance.Deployer = Deployer.String()
	cfg.Governance.PlatformWallet = PlatformWallet.String()

	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)

	ts := &TestServer{
		Server: httptest.NewServer(a.HTTPHandler()),
		App:    a,
		tokens: make(map[escrow.Principal]string),
	}
	t.Cleanup(func() {
		ts.Server.Close()
		_ = a.Close()
	})
	return ts
}

// Token returns the bearer token for p, provisioning one on first use.
func (ts *TestServer) Token(t *testing.T, p escrow.Principal) string {
	t.Helper()
	if tok, ok := ts.tokens[p]; ok {
		return tok
	}
	tok, err := ts.App.Store.APIKeys.Add(context.Background(), p, fmt.Sprintf("token-%s", p), "")
	require.NoError(t, err)
	ts.tokens[p] = tok
	return tok
}

// Credit mints ledger balance for p.
func (ts *TestServer) Credit(t *testing.T, p escrow.Principal, amount uint64) {
	t.Helper()
	_, err := ts.App.Ledger.Credit(context.Background(), p, amount)
	require.NoError(t, err)
}

// Connect opens an MCP session at /mcp acting as p.
func (ts *TestServer) Connect(t *testing.T, p escrow.Principal) *sdkmcp.ClientSession {
	t.Helper()
	transport := &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{
			token: ts.Token(t, p),
			next:  http.DefaultTransport,
		}},
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver", Version: "v0.0.1"}, nil)
	session, err := client.Connect(context.Background(), transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}
