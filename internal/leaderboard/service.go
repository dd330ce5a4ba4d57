package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/storage"
	"github.com/trackscope/trackscope/internal/storage/postgres"
)

const enrichConcurrency = 5 // Limit concurrent Riot enrichment fetches

// RiotClient is the slice of the Riot client the service needs.
type RiotClient interface {
	LeagueEntries(ctx context.Context, region, queue, tier, division string, page int) ([]riot.LeagueEntry, error)
	SummonerByPUUID(ctx context.Context, region, puuid string) (riot.SummonerProfile, error)
	AccountByPUUID(ctx context.Context, region, puuid string) (riot.Account, error)
}

type Service struct {
	client RiotClient
	db     storage.LeaderboardDB
	logger *slog.Logger
}

func NewService(client RiotClient, db storage.LeaderboardDB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, db: db, logger: logger}
}

type enrichedSummoner struct {
	ranked  postgres.RankedRow
	profile postgres.ProfileRow
	account postgres.AccountRow
}

// Fetch refreshes the cached standings for one region/tier/division
// bucket, keeping at most limit players from the requested page. An empty
// queue means solo queue. Failures never propagate to the caller; the
// cached board simply keeps its previous content.
func (s *Service) Fetch(ctx context.Context, region, tier, division, queue string, page, limit int) {
	if err := s.fetch(ctx, region, tier, division, queue, page, limit); err != nil {
		s.logger.Error("Leaderboard fetch failed", "region", region, "tier", tier, "division", division, "err", err)
	}
}

func (s *Service) fetch(ctx context.Context, region, tier, division, queue string, page, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	if queue == "" {
		queue = riot.QueueSolo
	}
	if page < 1 {
		page = 1
	}
	entries, err := s.client.LeagueEntries(ctx, region, queue, tier, division, page)
	if err != nil {
		return fmt.Errorf("fetch league entries: %w", err)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	// Each triple is persisted as soon as its own fetches complete; a batch
	// torn down mid-flight keeps the players already written, with no
	// rollback. Upserts by primary key make overlapping rounds convergent.
	var (
		mu        sync.Mutex
		persisted int
		dropped   int
	)
	drop := func(puuid, stage string, err error) {
		mu.Lock()
		dropped++
		mu.Unlock()
		s.logger.Warn("Failed to enrich summoner; dropping from board", "stage", stage, "puuid", puuid, "err", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			profile, err := s.client.SummonerByPUUID(gctx, region, entry.PUUID)
			if err != nil {
				drop(entry.PUUID, "profile", err)
				return nil
			}
			account, err := s.client.AccountByPUUID(gctx, region, entry.PUUID)
			if err != nil {
				drop(entry.PUUID, "account", err)
				return nil
			}
			item := s.buildSummoner(region, entry, profile, account)
			if err := s.db.UpsertSummoner(gctx, item.ranked, item.profile, item.account); err != nil {
				drop(entry.PUUID, "persist", err)
				return nil
			}
			mu.Lock()
			persisted++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("Leaderboard refreshed", "region", region, "tier", tier, "division", division, "persisted", persisted, "dropped", dropped)
	return nil
}

func (s *Service) buildSummoner(region string, entry riot.LeagueEntry, profile riot.SummonerProfile, account riot.Account) enrichedSummoner {
	return enrichedSummoner{
		ranked: postgres.RankedRow{
			SummonerID:   entry.SummonerID,
			PUUID:        entry.PUUID,
			LeaguePoints: entry.LeaguePoints,
			Wins:         entry.Wins,
			Losses:       entry.Losses,
			Rank:         entry.Rank,
			Tier:         entry.Tier,
			HotStreak:    entry.HotStreak,
			Veteran:      entry.Veteran,
			FreshBlood:   entry.FreshBlood,
			Inactive:     entry.Inactive,
			Region:       region,
		},
		profile: postgres.ProfileRow{
			ID:            profile.ID,
			PUUID:         profile.PUUID,
			AccountID:     profile.AccountID,
			ProfileIconID: profile.ProfileIconID,
			SummonerLevel: profile.SummonerLevel,
			RevisionDate:  profile.RevisionDate,
		},
		account: postgres.AccountRow{
			PUUID:    account.PUUID,
			GameName: account.GameName,
			TagLine:  account.TagLine,
		},
	}
}

// Leaderboard reads one page of cached standings, strongest first.
func (s *Service) Leaderboard(ctx context.Context, region, tier, division string, limit, offset int) ([]postgres.Summoner, error) {
	return s.db.Leaderboard(ctx, region, tier, division, limit, offset)
}
