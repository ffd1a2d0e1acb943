package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/devapihub/apisearch/internal/logging"
	mcpapi "github.com/devapihub/apisearch/internal/mcp"
	"github.com/devapihub/apisearch/pkg/version"
)

func newServeCmd() *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server on stdio for AI coding assistants.

The protocol stream uses stdout exclusively, so logs go to file only.
With --warm the search index is built before the server accepts
requests; otherwise the first search triggers the build.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), warm)
		},
	}

	cmd.Flags().BoolVar(&warm, "warm", false, "Build the search index before serving")

	return cmd
}

func runServe(ctx context.Context, warm bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout carries JSON-RPC; logging must never touch it.
	cleanup, err := logging.SetupMCPMode(cfg.Logging.Level, cfg.Logging.Dir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	if warm {
		warmCtx, cancel := context.WithTimeout(ctx, warmTimeout)
		snap, err := rt.cache.Get(warmCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to build search index: %w", err)
		}
		slog.Info("search index warmed", slog.Int("documents", snap.DocumentCount()))
	}

	srv, err := mcpapi.NewServer(rt.engine)
	if err != nil {
		return err
	}

	slog.Info("apisearch serving",
		slog.String("version", version.Version),
		slog.String("db", cfg.Database.Path),
		slog.String("embedding_provider", cfg.Embedding.Provider))

	return srv.Serve(ctx)
}
