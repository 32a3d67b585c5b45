package main

import (
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/eco-invoice-tracker/internal/adapters/mcp"
	"github.com/kirillkom/eco-invoice-tracker/internal/bootstrap"
	"github.com/kirillkom/eco-invoice-tracker/internal/config"
	"github.com/kirillkom/eco-invoice-tracker/internal/infrastructure/resilience"
	"github.com/kirillkom/eco-invoice-tracker/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	engine, err := bootstrap.NewEngine(cfg, resilience.NewExecutor(cfg.Resilience))
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	slog.Info("mcp_server_starting", "transport", "stdio", "version", version)
	if err := server.ServeStdio(mcpadapter.NewServer(engine.Materials, version)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
