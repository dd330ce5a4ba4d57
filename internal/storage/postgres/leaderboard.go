package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// RankedRow is one summoner_ranked row.
type RankedRow struct {
	SummonerID   string
	PUUID        string
	LeaguePoints int
	Wins         int
	Losses       int
	Rank         string
	Tier         string
	HotStreak    bool
	Veteran      bool
	FreshBlood   bool
	Inactive     bool
	Region       string
}

// ProfileRow is one summoner_profile row.
type ProfileRow struct {
	ID            string
	PUUID         string
	AccountID     string
	ProfileIconID int
	SummonerLevel int64
	RevisionDate  int64
}

// AccountRow is one riot_account row.
type AccountRow struct {
	PUUID    string
	GameName string
	TagLine  string
}

// Summoner is the joined leaderboard projection: ranked standing plus
// profile and account identity for one player.
type Summoner struct {
	SummonerID    string
	PUUID         string
	GameName      string
	TagLine       string
	Tier          string
	Rank          string
	LeaguePoints  int
	Wins          int
	Losses        int
	HotStreak     bool
	ProfileIconID int
	SummonerLevel int64
	Region        string
}

const upsertRankedSQL = `
INSERT INTO summoner_ranked (summoner_id, puuid, league_points, wins, losses, rank, tier,
	hot_streak, veteran, fresh_blood, inactive, region, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (summoner_id) DO UPDATE
SET puuid = excluded.puuid,
	league_points = excluded.league_points,
	wins = excluded.wins,
	losses = excluded.losses,
	rank = excluded.rank,
	tier = excluded.tier,
	hot_streak = excluded.hot_streak,
	veteran = excluded.veteran,
	fresh_blood = excluded.fresh_blood,
	inactive = excluded.inactive,
	region = excluded.region,
	fetched_at = excluded.fetched_at`

const upsertProfileSQL = `
INSERT INTO summoner_profile (id, puuid, account_id, profile_icon_id, summoner_level, revision_date, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET puuid = excluded.puuid,
	account_id = excluded.account_id,
	profile_icon_id = excluded.profile_icon_id,
	summoner_level = excluded.summoner_level,
	revision_date = excluded.revision_date,
	fetched_at = excluded.fetched_at`

const upsertAccountSQL = `
INSERT INTO riot_account (puuid, game_name, tag_line, fetched_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (puuid) DO UPDATE
SET game_name = excluded.game_name,
	tag_line = excluded.tag_line,
	fetched_at = excluded.fetched_at`

// UpsertSummoner persists one player's triple as three independent
// writes, ranked first so a partially written player never surfaces on
// the leaderboard before its profile and account land. Readers join all
// three tables, so an interrupted write stays invisible rather than
// half-rendered.
func (db *Database) UpsertSummoner(ctx context.Context, ranked RankedRow, profile ProfileRow, account AccountRow) error {
	if err := db.ensureReady(); err != nil {
		return err
	}
	if strings.TrimSpace(ranked.SummonerID) == "" {
		return fmt.Errorf("summoner id is required")
	}
	now := time.Now().UTC()

	if _, err := db.pool.Exec(ctx, upsertRankedSQL,
		ranked.SummonerID, ranked.PUUID, ranked.LeaguePoints, ranked.Wins, ranked.Losses,
		ranked.Rank, ranked.Tier, ranked.HotStreak, ranked.Veteran, ranked.FreshBlood,
		ranked.Inactive, ranked.Region, now); err != nil {
		return fmt.Errorf("upsert ranked %s: %w", ranked.SummonerID, err)
	}
	if _, err := db.pool.Exec(ctx, upsertProfileSQL,
		profile.ID, profile.PUUID, profile.AccountID, profile.ProfileIconID,
		profile.SummonerLevel, profile.RevisionDate, now); err != nil {
		return fmt.Errorf("upsert profile %s: %w", profile.ID, err)
	}
	if _, err := db.pool.Exec(ctx, upsertAccountSQL,
		account.PUUID, account.GameName, account.TagLine, now); err != nil {
		return fmt.Errorf("upsert account %s: %w", account.PUUID, err)
	}
	return nil
}

// Leaderboard reads the joined standings for one region/tier/division
// slice, strongest first. Players missing any leg of the triple are
// excluded by the inner joins.
func (db *Database) Leaderboard(ctx context.Context, region, tier, division string, limit, offset int) ([]Summoner, error) {
	if err := db.ensureReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if offset < 0 {
		offset = 0
	}

	query := `
	SELECT r.summoner_id, r.puuid, a.game_name, a.tag_line,
		r.tier, r.rank, r.league_points, r.wins, r.losses, r.hot_streak,
		p.profile_icon_id, p.summoner_level, r.region
	FROM summoner_ranked r
	INNER JOIN summoner_profile p ON p.puuid = r.puuid
	INNER JOIN riot_account a ON a.puuid = r.puuid
	WHERE r.region = $1 AND r.tier = $2 AND r.rank = $3
	ORDER BY r.league_points DESC, r.summoner_id
	LIMIT $4 OFFSET $5`
	rows, err := db.pool.Query(ctx, query, region, tier, division, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	summoners, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Summoner])
	if err != nil {
		return nil, fmt.Errorf("collect leaderboard rows: %w", err)
	}
	return summoners, nil
}
