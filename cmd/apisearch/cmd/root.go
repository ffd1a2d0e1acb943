// Package cmd provides the CLI commands for apisearch.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devapihub/apisearch/internal/config"
	"github.com/devapihub/apisearch/internal/corpus"
	"github.com/devapihub/apisearch/internal/embed"
	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/index"
	"github.com/devapihub/apisearch/internal/profiling"
	"github.com/devapihub/apisearch/internal/search"
	"github.com/devapihub/apisearch/internal/store"
	"github.com/devapihub/apisearch/pkg/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	profileCPU string
	profileMem string
}

var (
	rootOpts   rootOptions
	profiler   = profiling.NewProfiler()
	cpuCleanup func()
)

// NewRootCmd creates the root command for the apisearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apisearch",
		Short: "Hybrid search server for API documentation catalogs",
		Long: `apisearch serves fuzzy, semantic and hybrid search over an API
documentation catalog (projects, endpoints, tags, data tables and
issues) as MCP tools for AI coding assistants, with a companion
HTTP surface for other clients.

Run 'apisearch serve' to start the MCP stdio server.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("apisearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&rootOpts.configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&rootOpts.dbPath, "db", "", "Path to the catalog SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().StringVar(&rootOpts.profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&rootOpts.profileMem, "profile-mem", "", "Write memory profile to file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHTTPCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig resolves the effective configuration from file, env and
// persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootOpts.configPath)
	if err != nil {
		return nil, err
	}

	if rootOpts.dbPath != "" {
		cfg.Database.Path = rootOpts.dbPath
	}
	if rootOpts.logLevel != "" {
		cfg.Logging.Level = rootOpts.logLevel
	}

	return cfg, nil
}

// runtime bundles the wired search stack for one command invocation.
type runtime struct {
	store   *store.SQLiteStore
	factory *embed.Factory
	cache   *index.Cache
	engine  *search.Engine
}

// newRuntime wires storage, encoder, index cache and engine from the
// configuration. Call close when done.
func newRuntime(cfg *config.Config) (*runtime, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	factory := embed.NewFactory(embed.FactoryConfig{
		Provider:       cfg.Embedding.Provider,
		Endpoint:       cfg.Embedding.Endpoint,
		Models:         cfg.Embedding.Models,
		Dimensions:     cfg.Embedding.Dimensions,
		CacheSize:      cfg.Embedding.CacheSize,
		MaxAttempts:    cfg.Embedding.MaxAttempts,
		RequestTimeout: cfg.Embedding.RequestTimeout,
	})

	cb, err := corpus.NewBuilder(st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	builder := index.NewBuilder(cb, factory,
		index.WithVectorStore(index.VectorStore(strings.ToLower(cfg.Search.VectorStore))))

	ttl := cfg.Search.IndexTTL
	if ttl <= 0 {
		ttl = index.DefaultTTL
	}
	cache := index.NewCache(ttl, builder.Build)

	engine := search.NewEngine(st, cache, factory,
		search.WithDefaultLimit(cfg.Search.DefaultLimit),
		search.WithWeights(cfg.Search.VectorWeight, cfg.Search.FuzzyWeight),
		search.WithVectorThreshold(cfg.Search.VectorThreshold),
	)

	return &runtime{
		store:   st,
		factory: factory,
		cache:   cache,
		engine:  engine,
	}, nil
}

func (r *runtime) close() {
	_ = r.factory.Close()
	_ = r.store.Close()
}

// warmTimeout bounds the initial index build on startup.
const warmTimeout = 2 * time.Minute

// startProfiling starts CPU profiling if --profile-cpu is set.
func startProfiling(_ *cobra.Command, _ []string) error {
	if rootOpts.profileCPU == "" {
		return nil
	}

	cleanup, err := profiler.StartCPU(rootOpts.profileCPU)
	if err != nil {
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	cpuCleanup = cleanup
	return nil
}

// stopProfiling stops CPU profiling and writes a heap profile if
// --profile-mem is set.
func stopProfiling(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	if rootOpts.profileMem != "" {
		if err := profiler.WriteHeap(rootOpts.profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	return nil
}

// Execute runs the root command, printing a formatted error on
// failure.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
	}
	return err
}
