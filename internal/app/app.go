// Package app assembles the services, stores and surfaces of the escrow
// server from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rpggio/referydo/internal/config"
	"github.com/rpggio/referydo/internal/domain/activity"
	"github.com/rpggio/referydo/internal/domain/escrow"
	"github.com/rpggio/referydo/internal/domain/governance"
	"github.com/rpggio/referydo/internal/domain/ledger"
	"github.com/rpggio/referydo/internal/mcp"
	"github.com/rpggio/referydo/internal/transport"
)

// Version is reported to MCP clients.
var Version = "dev"

// App holds the wired services.
type App struct {
	Config     config.Config
	Store      *Store
	Escrow     *escrow.Engine
	Ledger     *ledger.Service
	Governance *governance.Service
	Activity   *activity.Service
	Registry   *prometheus.Registry
	Logger     *slog.Logger
}

// New opens the configured store and builds the App on it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	store, err := OpenStore(cfg.DB)
	if err != nil {
		return nil, err
	}
	a, err := Build(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// Build wires the services on an open store and bootstraps governance.
func Build(ctx context.Context, cfg config.Config, store *Store, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	activitySvc := activity.NewService(store.Activity, logger)
	ledgerSvc := ledger.NewService(store.Ledger, store.Tx, logger)
	govSvc := governance.NewService(store.Governance, store.Tx, activitySvc, logger)

	st, err := govSvc.Bootstrap(ctx, governance.Seed{
		Deployer:       escrow.Principal(cfg.Governance.Deployer),
		PlatformWallet: escrow.Principal(cfg.Governance.PlatformWallet),
		Custody:        escrow.Principal(cfg.Custody()),
		CustodyPinned:  cfg.Ledger.Custody != "",
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrapping governance: %w", err)
	}

	engine := escrow.NewEngine(escrow.Dependencies{
		Projects: store.Projects,
		Ledger:   ledgerSvc,
		Wallets:  govSvc,
		Activity: activitySvc,
		Tx:       store.Tx,
		Custody:  st.Custody,
		Metrics:  escrow.NewMetrics(reg),
	}, logger)

	logger.Info("escrow ready",
		"driver", store.Driver,
		"super_admin", st.SuperAdmin,
		"platform_wallet", st.PlatformWallet,
		"custody", engine.Custody(),
	)

	return &App{
		Config:     cfg,
		Store:      store,
		Escrow:     engine,
		Ledger:     ledgerSvc,
		Governance: govSvc,
		Activity:   activitySvc,
		Registry:   reg,
		Logger:     logger,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Services returns the service set the surfaces dispatch to.
func (a *App) Services() mcp.Services {
	return mcp.Services{
		Escrow:     a.Escrow,
		Governance: a.Governance,
		Activity:   a.Activity,
		Ledger:     a.Ledger,
	}
}

// MCPServer builds an MCP server for the given transport mode.
func (a *App) MCPServer(mode string) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services:      a.Services(),
		Resolver:      a.Store.APIKeys,
		AuthEnabled:   a.Config.Auth.Enabled,
		DefaultCaller: escrow.Principal(a.Config.DefaultCaller()),
		TransportMode: mode,
		Version:       Version,
		Logger:        a.Logger,
	})
}

// HTTPHandler returns the router serving /rpc, /mcp, /metrics and /health.
func (a *App) HTTPHandler() http.Handler {
	auth := transport.StaticPrincipal(escrow.Principal(a.Config.DefaultCaller()))
	if a.Config.Auth.Enabled {
		auth = transport.AuthMiddleware(a.Store.APIKeys)
	}
	return transport.NewServer(transport.Options{
		Handler: mcp.NewHandler(a.Services()),
		Auth:    auth,
		MCP:     mcp.NewHTTPHandler(a.MCPServer("http")),
		Metrics: promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}),
		Logger:  a.Logger,
	})
}
