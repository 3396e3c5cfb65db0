package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/paid-signup/internal/app/seedadmin"
	"github.com/magabrotheeeer/paid-signup/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := seedadmin.Run(ctx, cfg, logger); err != nil {
		logger.Error("failed to seed admin account", slog.Any("err", err))
		os.Exit(1)
	}
}
