package storage

import (
	"context"
	"time"

	"github.com/trackscope/trackscope/internal/riot/cdn"
	"github.com/trackscope/trackscope/internal/storage/postgres"
)

type VersionDB interface {
	SyncVersion(ctx context.Context, syncKey string) (string, bool, error)
	SetSyncVersion(ctx context.Context, syncKey, version string) error
}

type CatalogDB interface {
	VersionDB
	UpsertChampions(ctx context.Context, version string, champs []cdn.Champion, fetchedAt time.Time) error
	Champions(ctx context.Context) ([]cdn.Champion, error)
	ChampionByKey(ctx context.Context, key string) (cdn.Champion, bool, error)
	CountChampions(ctx context.Context) (int, error)
}

type LeaderboardDB interface {
	UpsertSummoner(ctx context.Context, ranked postgres.RankedRow, profile postgres.ProfileRow, account postgres.AccountRow) error
	Leaderboard(ctx context.Context, region, tier, division string, limit, offset int) ([]postgres.Summoner, error)
}
