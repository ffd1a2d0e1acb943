package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devapihub/apisearch/internal/logging"
	"github.com/devapihub/apisearch/internal/output"
	"github.com/devapihub/apisearch/internal/search"
	"github.com/devapihub/apisearch/internal/store"
)

// searchOptions holds CLI flags for one-shot search.
type searchOptions struct {
	limit  int
	types  []string
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot hybrid search against the catalog",
		Long: `Run a one-shot hybrid search against the catalog.

Combines fuzzy keyword matching and semantic similarity into a
single ranked list, the same way the hybrid_search MCP tool does.

Examples:
  apisearch search "create user"
  apisearch search "支付回调" --types apis --limit 5
  apisearch search "order webhook" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runOneShotSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringSliceVarP(&opts.types, "types", "t", nil, "Entity types to search (projects, apis, tags, tables, issues)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runOneShotSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Keep stdout clean for results; logs go to file only.
	logger, cleanup, err := logging.Setup(logging.FileConfig(cfg.Logging.Level, cfg.Logging.Dir))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	types := make([]store.EntityType, 0, len(opts.types))
	for _, name := range opts.types {
		typ := store.EntityType(name)
		if !store.ValidEntityType(typ) {
			return fmt.Errorf("unknown entity type %q (valid: projects, apis, tags, tables, issues)", name)
		}
		types = append(types, typ)
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	searchCtx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()

	resp, err := rt.engine.HybridSearch(searchCtx, search.HybridParams{
		Query: query,
		Types: types,
		Limit: opts.limit,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	printResults(output.New(cmd.OutOrStdout()), resp)
	return nil
}

func printResults(out *output.Writer, resp *search.Response) {
	if len(resp.Results) == 0 {
		out.Info(fmt.Sprintf("No results for %q", resp.Query))
		return
	}

	out.Info(fmt.Sprintf("%d result(s) for %q", resp.Total, resp.Query))
	for i, r := range resp.Results {
		name := r.Name
		if name == "" {
			name = r.Title
		}

		line := fmt.Sprintf("%2d. [%.3f] %-8s %s", i+1, r.Score, r.Type, name)
		if r.Method != "" && r.Path != "" {
			line += fmt.Sprintf("  %s %s", r.Method, r.Path)
		}
		out.Plain(line)

		if r.Description != "" {
			out.Plain("      " + truncate(r.Description, 100))
		}
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
