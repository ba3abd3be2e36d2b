package main

import (
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/docsearch-summarizer/internal/adapters/mcp"
	"github.com/kirillkom/docsearch-summarizer/internal/bootstrap"
	"github.com/kirillkom/docsearch-summarizer/internal/config"
	"github.com/kirillkom/docsearch-summarizer/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	search, err := bootstrap.NewSearch(cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	if err := mcpadapter.NewServer(search.CatalogUC, search.QueryUC).ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
