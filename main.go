package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/trackscope/trackscope/internal/app"
	"github.com/trackscope/trackscope/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if err := app.Run(context.Background(), cfg); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}
