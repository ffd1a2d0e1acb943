package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/devapihub/apisearch/internal/logging"
	"github.com/devapihub/apisearch/internal/output"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the search index from the catalog",
		Long: `Rebuild the search index from the catalog database and report
the document count and active embedding model.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefresh(cmd.Context(), cmd)
		},
	}

	return cmd
}

func runRefresh(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.Setup(logging.FileConfig(cfg.Logging.Level, cfg.Logging.Dir))
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

	out := output.New(cmd.OutOrStdout())
	out.Info("Rebuilding search index from " + cfg.Database.Path)

	buildCtx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()

	resp, err := rt.engine.BuildVectorIndex(buildCtx)
	if err != nil {
		out.Error("Index rebuild failed")
		return err
	}

	out.Successf("Indexed %d documents", resp.DocumentCount)
	if resp.UseFallback {
		out.Warning("Neural encoder unavailable; using lexical embeddings (model: " + resp.Model + ")")
	} else {
		out.Info("Embedding model: " + resp.Model)
	}

	return nil
}
