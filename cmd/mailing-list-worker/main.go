package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/paid-signup/internal/app/worker"
	"github.com/magabrotheeeer/paid-signup/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting mailing list worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := worker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize mailing list worker", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("mailing list worker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("mailing list worker stopped gracefully")
}
