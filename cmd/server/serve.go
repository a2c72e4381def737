package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/rpggio/referydo/internal/app"
	"github.com/rpggio/referydo/internal/config"
)

func serveCommand() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC and MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, mode)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "transport mode: http or stdio (overrides config)")
	return cmd
}

func serveRun(cmd *cobra.Command, mode string) error {
	if mode != "" {
		cfg.Transport.Mode = mode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	stdio := cfg.Transport.Mode == "stdio"

	logger, closeLog, err := newLogger(cfg.Log, stdio)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	if stdio {
		logger.Info("starting stdio transport", "auth", "disabled", "caller", cfg.DefaultCaller())
		if err := a.MCPServer("stdio").Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("stdio server error", "error", err)
			return err
		}
		return nil
	}
	return runHTTP(ctx, a, cfg.Server)
}

func runHTTP(ctx context.Context, a *app.App, sc config.ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", sc.Host, sc.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", addr, "auth", a.Config.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			a.Logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.Logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
