package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/trackscope/trackscope/internal/api"
	"github.com/trackscope/trackscope/internal/catalog"
	"github.com/trackscope/trackscope/internal/config"
	"github.com/trackscope/trackscope/internal/leaderboard"
	"github.com/trackscope/trackscope/internal/locale"
	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/riot/cdn"
	"github.com/trackscope/trackscope/internal/storage/postgres"
	"github.com/trackscope/trackscope/internal/summoner"
)

const (
	dbTimeout           = 5 * time.Second
	catalogSyncInterval = 24 * time.Hour
	shutdownTimeout     = 10 * time.Second
)

func Run(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := setupLogger(cfg)

	db, closeDB, err := connectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer closeDB()
	if err := db.CreateSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	ddLocale := cfg.Locale
	if ddLocale == "" {
		ddLocale = locale.System()
	}

	riotClient := riot.NewClient(cfg.RiotAPIKey)
	cdnClient := cdn.NewClient()

	syncer := catalog.NewSyncer(cdnClient, db, ddLocale, logger)
	board := leaderboard.NewService(riotClient, db, logger)
	players := summoner.NewService(riotClient, db, cfg.PlatformRegion, logger)

	goSafe(logger, "catalog_sync_loop", func() {
		runCatalogSync(ctx, syncer)
	})

	router := api.NewRouter(board, players, db, cfg.PlatformRegion, logger)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	goSafe(logger, "http_server", func() {
		logger.Info("HTTP server listening", "addr", cfg.ListenAddr, "region", cfg.PlatformRegion, "locale", ddLocale)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// runCatalogSync keeps the champion catalog current without restarts.
func runCatalogSync(ctx context.Context, syncer *catalog.Syncer) {
	syncer.Sync(ctx)

	ticker := time.NewTicker(catalogSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncer.Sync(ctx)
		}
	}
}

func connectDB(ctx context.Context, url string) (*postgres.Database, func(), error) {
	// Retry logic to handle transient connection issues at startup, such as the database not being ready yet.
	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			timer := time.NewTimer(2 * time.Second)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, nil, fmt.Errorf("database connection canceled: %w", ctx.Err())
			case <-timer.C:
			}
		}
		tCtx, cancel := context.WithTimeout(ctx, dbTimeout)
		pool, err := postgres.NewPool(tCtx, url)
		cancel()

		if err == nil {
			return postgres.NewDB(pool), pool.Close, nil
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("database connection failed after retries: %w", lastErr)
}

func setupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)
	if cfg.IsDev {
		logger.Info("Development mode enabled")
	}
	return logger
}

func goSafe(logger *slog.Logger, task string, fn func()) {
	if logger == nil {
		logger = slog.Default()
	}
	task = strings.TrimSpace(task)
	if task == "" {
		task = "unnamed"
	}
	if fn == nil {
		logger.Error("Background task not started: nil func", "task", task)
		return
	}

	taskLogger := logger.With("task", task)
	go func() {
		startedAt := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				taskLogger.Error("Background task panicked", "panic", recovered, "elapsed", time.Since(startedAt), "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
