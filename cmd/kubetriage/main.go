package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/valentinpelus/kubetriage/internal/app"
	"github.com/valentinpelus/kubetriage/internal/config"
	"github.com/valentinpelus/kubetriage/internal/logging"
)

func main() {
	// A .env file is optional; deployments configure through the pod env.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	application.LogStartupInfo()

	return application.Server.Start(ctx)
}
