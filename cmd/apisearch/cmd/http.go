package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devapihub/apisearch/internal/httpapi"
	"github.com/devapihub/apisearch/internal/logging"
	mcpapi "github.com/devapihub/apisearch/internal/mcp"
)

const shutdownTimeout = 10 * time.Second

func newHTTPCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Start the companion HTTP server",
		Long: `Start the companion HTTP server.

Exposes GET /health, GET /mcp/tools and POST /mcp/tools/{toolName}
so clients without an MCP session can call the same search tools.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHTTP(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config, e.g. :3200)")

	return cmd
}

func runHTTP(ctx context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		WriteToStderr: true,
	}
	if cfg.Logging.Dir != "" {
		logCfg = logging.FileConfig(cfg.Logging.Level, cfg.Logging.Dir)
		logCfg.WriteToStderr = true
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	tools, err := mcpapi.NewServer(rt.engine)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpapi.NewServer(rt.engine, tools).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	slog.Info("http server stopped")
	return nil
}
