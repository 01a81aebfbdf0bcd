package main

import (
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/ktanabe/askrag/internal/adapters/mcp"
	"github.com/ktanabe/askrag/internal/bootstrap"
	"github.com/ktanabe/askrag/internal/config"
	"github.com/ktanabe/askrag/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	// Stdout carries the MCP protocol, so logs must go to stderr only.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	answerUC, err := bootstrap.NewAnswerOnly(cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}

	s := mcpadapter.NewServer(answerUC, "1.0.0")
	if err := server.ServeStdio(s); err != nil {
		slog.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
