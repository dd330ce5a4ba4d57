package summoner

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/trackscope/trackscope/internal/catalog"
	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/riot/cdn"
	"github.com/trackscope/trackscope/internal/storage"
)

const (
	// TierUnranked is the sentinel tier for players with no solo entry.
	// Downstream surfaces branch on the exact string.
	TierUnranked = "UNRANKED"

	rankUnranked     = "-"
	recentMatchCount = 10
)

// RiotClient is the slice of the Riot client the service needs.
type RiotClient interface {
	AccountByRiotID(ctx context.Context, region, gameName, tagLine string) (riot.Account, error)
	SummonerByPUUID(ctx context.Context, region, puuid string) (riot.SummonerProfile, error)
	LeagueEntriesByPUUID(ctx context.Context, region, puuid string) ([]riot.LeagueEntry, error)
	MatchIDs(ctx context.Context, region, puuid string, start, count int) ([]string, error)
	Match(ctx context.Context, region, matchID string) (riot.Match, error)
	Masteries(ctx context.Context, region, puuid string) ([]riot.ChampionMastery, error)
}

// Profile is the resolved identity plus solo-ranked standing of one player.
type Profile struct {
	Account       riot.Account
	ProfileIconID int
	IconURL       string
	SummonerLevel int64
	Tier          string
	Rank          string
	LeaguePoints  int
	Wins          int
	Losses        int
	Ranked        bool
}

// Stats is a player's aggregate performance summary.
type Stats struct {
	Wins         int
	Losses       int
	WinRatePct   int
	LeaguePoints int
	Kills        int
	Deaths       int
	Assists      int
	KDA          string
}

// MasteryRow is one champion mastery joined with catalog display data.
type MasteryRow struct {
	ChampionID     int
	ChampionKey    string
	ChampionName   string
	ChampionLevel  int
	ChampionPoints int
	ChestGranted   bool
	ImageURL       string
}

// Service resolves player profiles, stats, matches and masteries on
// demand, memoizing everything it fetches for the process lifetime.
// Profiles are keyed by riot id, match and mastery lists by PUUID, and
// match details by match id (immutable once played). Nothing here writes
// to the local store.
type Service struct {
	client RiotClient
	db     storage.CatalogDB
	region string
	logger *slog.Logger

	mu              sync.Mutex
	profiles        map[string]*Profile
	matchIDs        map[string][]string
	matches         map[string]riot.Match
	masteries       map[string][]riot.ChampionMastery
	championsByID   map[int]cdn.Champion
	championVersion string
}

func NewService(client RiotClient, db storage.CatalogDB, region string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		db:        db,
		region:    region,
		logger:    logger,
		profiles:  make(map[string]*Profile),
		matchIDs:  make(map[string][]string),
		matches:   make(map[string]riot.Match),
		masteries: make(map[string][]riot.ChampionMastery),
	}
}

// Profile resolves a player by riot id. A player that does not exist
// yields (nil, nil); a cached key never goes back to the network.
func (s *Service) Profile(ctx context.Context, gameName, tagLine string) (*Profile, error) {
	key := riot.FormatRiotID(gameName, tagLine)

	s.mu.Lock()
	if cached, ok := s.profiles[key]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	account, err := s.client.AccountByRiotID(ctx, s.region, gameName, tagLine)
	if err != nil {
		if riot.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve account %s: %w", key, err)
	}

	summoner, err := s.client.SummonerByPUUID(ctx, s.region, account.PUUID)
	if err != nil {
		return nil, fmt.Errorf("fetch summoner for %s: %w", key, err)
	}
	entries, err := s.client.LeagueEntriesByPUUID(ctx, s.region, account.PUUID)
	if err != nil {
		return nil, fmt.Errorf("fetch league entries for %s: %w", key, err)
	}

	profile := &Profile{
		Account:       account,
		ProfileIconID: summoner.ProfileIconID,
		SummonerLevel: summoner.SummonerLevel,
		Tier:          TierUnranked,
		Rank:          rankUnranked,
	}
	if solo := riot.SoloEntry(entries); solo != nil {
		profile.Tier = solo.Tier
		profile.Rank = solo.Rank
		profile.LeaguePoints = solo.LeaguePoints
		profile.Wins = solo.Wins
		profile.Losses = solo.Losses
		profile.Ranked = true
	}
	if version, ok, err := s.db.SyncVersion(ctx, catalog.SyncKey); err == nil && ok {
		profile.IconURL = cdn.ProfileIconURL(version, profile.ProfileIconID)
	}

	s.mu.Lock()
	s.profiles[key] = profile
	s.mu.Unlock()
	return profile, nil
}

// Stats summarizes a player's performance. Ranked players report the
// standing straight off their solo entry; unranked players are aggregated
// from their recent matches.
func (s *Service) Stats(ctx context.Context, gameName, tagLine string) (*Stats, error) {
	profile, err := s.Profile(ctx, gameName, tagLine)
	if err != nil || profile == nil {
		return nil, err
	}

	if profile.Ranked {
		stats := &Stats{
			Wins:         profile.Wins,
			Losses:       profile.Losses,
			LeaguePoints: profile.LeaguePoints,
			// TODO: aggregate ranked KDA from solo-queue match history once
			// match fetches can filter by queue id.
			KDA: "0.00:1",
		}
		if total := stats.Wins + stats.Losses; total > 0 {
			stats.WinRatePct = stats.Wins * 100 / total
		}
		return stats, nil
	}

	matches, err := s.recentMatches(ctx, profile.Account.PUUID)
	if err != nil {
		return nil, err
	}
	stats := &Stats{}
	for _, match := range matches {
		for _, p := range match.Info.Participants {
			if p.PUUID != profile.Account.PUUID {
				continue
			}
			stats.Kills += p.Kills
			stats.Deaths += p.Deaths
			stats.Assists += p.Assists
			if p.Win {
				stats.Wins++
			} else {
				stats.Losses++
			}
		}
	}
	deaths := stats.Deaths
	if deaths < 1 {
		deaths = 1
	}
	stats.KDA = fmt.Sprintf("%.2f:1", float64(stats.Kills+stats.Assists)/float64(deaths))
	if total := stats.Wins + stats.Losses; total > 0 {
		stats.WinRatePct = stats.Wins * 100 / total
	}
	return stats, nil
}

// Matches returns the player's recent match details, newest first.
func (s *Service) Matches(ctx context.Context, gameName, tagLine string) ([]riot.Match, error) {
	profile, err := s.Profile(ctx, gameName, tagLine)
	if err != nil || profile == nil {
		return nil, err
	}
	return s.recentMatches(ctx, profile.Account.PUUID)
}

func (s *Service) recentMatches(ctx context.Context, puuid string) ([]riot.Match, error) {
	s.mu.Lock()
	ids, ok := s.matchIDs[puuid]
	s.mu.Unlock()
	if !ok {
		var err error
		ids, err = s.client.MatchIDs(ctx, s.region, puuid, 0, recentMatchCount)
		if err != nil {
			return nil, fmt.Errorf("fetch match ids for %s: %w", puuid, err)
		}
		s.mu.Lock()
		s.matchIDs[puuid] = ids
		s.mu.Unlock()
	}

	out := make([]riot.Match, 0, len(ids))
	for _, id := range ids {
		s.mu.Lock()
		match, ok := s.matches[id]
		s.mu.Unlock()
		if !ok {
			var err error
			match, err = s.client.Match(ctx, s.region, id)
			if err != nil {
				return nil, fmt.Errorf("fetch match %s: %w", id, err)
			}
			s.mu.Lock()
			s.matches[id] = match
			s.mu.Unlock()
		}
		out = append(out, match)
	}
	return out, nil
}

// Masteries returns the player's champion masteries joined with catalog
// display data. Masteries whose champion is missing from the catalog are
// skipped rather than rendered half-empty.
func (s *Service) Masteries(ctx context.Context, gameName, tagLine string) ([]MasteryRow, error) {
	profile, err := s.Profile(ctx, gameName, tagLine)
	if err != nil || profile == nil {
		return nil, err
	}

	puuid := profile.Account.PUUID
	s.mu.Lock()
	masteries, ok := s.masteries[puuid]
	s.mu.Unlock()
	if !ok {
		masteries, err = s.client.Masteries(ctx, s.region, puuid)
		if err != nil {
			return nil, fmt.Errorf("fetch masteries for %s: %w", puuid, err)
		}
		s.mu.Lock()
		s.masteries[puuid] = masteries
		s.mu.Unlock()
	}

	champions, version, err := s.championMap(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]MasteryRow, 0, len(masteries))
	for _, mastery := range masteries {
		champ, ok := champions[mastery.ChampionID]
		if !ok {
			s.logger.Debug("Mastery champion missing from catalog; skipping", "championId", mastery.ChampionID)
			continue
		}
		rows = append(rows, MasteryRow{
			ChampionID:     mastery.ChampionID,
			ChampionKey:    champ.Key,
			ChampionName:   champ.Name,
			ChampionLevel:  mastery.ChampionLevel,
			ChampionPoints: mastery.ChampionPoints,
			ChestGranted:   mastery.ChestGranted,
			ImageURL:       cdn.ChampionSquareURL(version, champ.ID),
		})
	}
	return rows, nil
}

// championMap memoizes the catalog keyed by numeric champion id, dropping
// the memo whenever the synced catalog version moves.
func (s *Service) championMap(ctx context.Context) (map[int]cdn.Champion, string, error) {
	version, _, err := s.db.SyncVersion(ctx, catalog.SyncKey)
	if err != nil {
		return nil, "", fmt.Errorf("read catalog version: %w", err)
	}

	s.mu.Lock()
	if s.championsByID != nil && s.championVersion == version {
		cached := s.championsByID
		s.mu.Unlock()
		return cached, version, nil
	}
	s.mu.Unlock()

	champions, err := s.db.Champions(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("load champions: %w", err)
	}
	byID := make(map[int]cdn.Champion, len(champions))
	for _, champ := range champions {
		id, err := strconv.Atoi(champ.Key)
		if err != nil {
			continue
		}
		byID[id] = champ
	}

	s.mu.Lock()
	s.championsByID = byID
	s.championVersion = version
	s.mu.Unlock()
	return byID, version, nil
}
