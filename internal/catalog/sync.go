package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trackscope/trackscope/internal/riot/cdn"
	"github.com/trackscope/trackscope/internal/storage"
)

// SyncKey identifies the champion catalog in the sync_state table.
const SyncKey = "champion_catalog"

const detailConcurrency = 15 // Limit concurrent Data Dragon detail fetches

// CatalogClient is the slice of the Data Dragon client the syncer needs.
type CatalogClient interface {
	Versions(ctx context.Context) ([]string, error)
	Champions(ctx context.Context, version, locale string) (cdn.ChampionList, error)
	ChampionDetail(ctx context.Context, version, locale, key string) (cdn.Champion, error)
}

type Syncer struct {
	client CatalogClient
	db     storage.CatalogDB
	locale string
	logger *slog.Logger
}

func NewSyncer(client CatalogClient, db storage.CatalogDB, locale string, logger *slog.Logger) *Syncer {
	if locale == "" {
		locale = cdn.DefaultLocale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{client: client, db: db, locale: locale, logger: logger}
}

// Sync brings the champion catalog up to the latest Data Dragon version.
// It never propagates failures to its caller; a failed round leaves the
// previous catalog and version in place for the next round to retry.
func (s *Syncer) Sync(ctx context.Context) {
	if err := s.run(ctx); err != nil {
		s.logger.Error("Champion catalog sync failed", "err", err)
	}
}

func (s *Syncer) run(ctx context.Context) error {
	versions, err := s.client.Versions(ctx)
	if err != nil {
		return fmt.Errorf("fetch versions: %w", err)
	}
	if len(versions) == 0 {
		return fmt.Errorf("version list is empty")
	}
	latest := versions[0]

	needsSync := true
	cur, found, err := s.db.SyncVersion(ctx, SyncKey)
	if err != nil {
		s.logger.Warn("Failed to read sync version; forcing sync", "err", err)
	} else if found && cur == latest {
		needsSync = false
	}

	// Bootstrap safeguard: a recorded version with an empty catalog still
	// needs a full sync.
	if !needsSync {
		count, countErr := s.db.CountChampions(ctx)
		if countErr != nil {
			s.logger.Warn("Failed to count cached champions; forcing sync", "err", countErr)
			needsSync = true
		} else if count == 0 {
			needsSync = true
		}
	}
	if !needsSync {
		s.logger.Debug("Champion catalog up to date", "version", latest)
		return nil
	}

	s.logger.Info("Starting champion catalog sync...", "version", latest, "locale", s.locale)
	index, err := s.client.Champions(ctx, latest, s.locale)
	if err != nil {
		return fmt.Errorf("fetch champion index: %w", err)
	}

	keys := make([]string, 0, len(index.Data))
	for key := range index.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		mu        sync.Mutex
		collected []cdn.Champion
		failed    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			detail, err := s.client.ChampionDetail(gctx, latest, s.locale, key)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				s.logger.Warn("Failed to fetch champion detail", "champion", key, "err", err)
				return nil
			}
			mu.Lock()
			collected = append(collected, detail)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(collected) == 0 {
		return fmt.Errorf("no champion details fetched for version %s", latest)
	}

	if err := s.db.UpsertChampions(ctx, latest, collected, time.Now().UTC()); err != nil {
		return fmt.Errorf("persist champions: %w", err)
	}
	if err := s.db.SetSyncVersion(ctx, SyncKey, latest); err != nil {
		return fmt.Errorf("save sync version: %w", err)
	}
	s.logger.Info("Champion catalog sync complete!", "version", latest, "synced", len(collected), "failed", failed)
	return nil
}
