package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for MCP stdio server mode.
// The MCP protocol uses stdout exclusively for JSON-RPC, so any write
// to stdout or stderr would corrupt the stream; logs go to file only.
// An empty dir uses the default log directory.
func SetupMCPMode(level, dir string) (func(), error) {
	cfg := FileConfig(level, dir)

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("mcp mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
