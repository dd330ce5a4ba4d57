package summoner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/trackscope/trackscope/internal/catalog"
	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/riot/cdn"
)

type fakeRiot struct {
	mu sync.Mutex

	accounts  map[string]riot.Account // keyed gameName#tagLine
	entries   map[string][]riot.LeagueEntry
	matchIDs  map[string][]string
	matches   map[string]riot.Match
	masteries map[string][]riot.ChampionMastery

	accountCalls  int
	matchIDCalls  int
	matchCalls    int
	masteryCalls  int
	summonerCalls int
}

func (f *fakeRiot) AccountByRiotID(ctx context.Context, region, gameName, tagLine string) (riot.Account, error) {
	f.mu.Lock()
	f.accountCalls++
	f.mu.Unlock()
	account, ok := f.accounts[riot.FormatRiotID(gameName, tagLine)]
	if !ok {
		return riot.Account{}, &riot.HTTPStatusError{URL: "test", StatusCode: http.StatusNotFound}
	}
	return account, nil
}

func (f *fakeRiot) SummonerByPUUID(ctx context.Context, region, puuid string) (riot.SummonerProfile, error) {
	f.mu.Lock()
	f.summonerCalls++
	f.mu.Unlock()
	return riot.SummonerProfile{ID: puuid + "_sid", PUUID: puuid, ProfileIconID: 42, SummonerLevel: 120}, nil
}

func (f *fakeRiot) LeagueEntriesByPUUID(ctx context.Context, region, puuid string) ([]riot.LeagueEntry, error) {
	return f.entries[puuid], nil
}

func (f *fakeRiot) MatchIDs(ctx context.Context, region, puuid string, start, count int) ([]string, error) {
	f.mu.Lock()
	f.matchIDCalls++
	f.mu.Unlock()
	ids := f.matchIDs[puuid]
	if len(ids) > count {
		ids = ids[:count]
	}
	return ids, nil
}

func (f *fakeRiot) Match(ctx context.Context, region, matchID string) (riot.Match, error) {
	f.mu.Lock()
	f.matchCalls++
	f.mu.Unlock()
	match, ok := f.matches[matchID]
	if !ok {
		return riot.Match{}, fmt.Errorf("unknown match %s", matchID)
	}
	return match, nil
}

func (f *fakeRiot) Masteries(ctx context.Context, region, puuid string) ([]riot.ChampionMastery, error) {
	f.mu.Lock()
	f.masteryCalls++
	f.mu.Unlock()
	return f.masteries[puuid], nil
}

type fakeCatalog struct {
	version string
	champs  []cdn.Champion
}

func (f *fakeCatalog) SyncVersion(ctx context.Context, syncKey string) (string, bool, error) {
	if syncKey != catalog.SyncKey {
		return "", false, fmt.Errorf("unexpected sync key %q", syncKey)
	}
	return f.version, f.version != "", nil
}

func (f *fakeCatalog) SetSyncVersion(ctx context.Context, syncKey, version string) error {
	f.version = version
	return nil
}

func (f *fakeCatalog) UpsertChampions(ctx context.Context, version string, champs []cdn.Champion, fetchedAt time.Time) error {
	f.champs = champs
	return nil
}

func (f *fakeCatalog) Champions(ctx context.Context) ([]cdn.Champion, error) {
	return f.champs, nil
}

func (f *fakeCatalog) ChampionByKey(ctx context.Context, key string) (cdn.Champion, bool, error) {
	for _, champ := range f.champs {
		if champ.Key == key {
			return champ, true, nil
		}
	}
	return cdn.Champion{}, false, nil
}

func (f *fakeCatalog) CountChampions(ctx context.Context) (int, error) {
	return len(f.champs), nil
}

func rankedFake() *fakeRiot {
	return &fakeRiot{
		accounts: map[string]riot.Account{
			"Ahri#EUW": {PUUID: "puuid-1", GameName: "Ahri", TagLine: "EUW"},
		},
		entries: map[string][]riot.LeagueEntry{
			"puuid-1": {
				{QueueType: "RANKED_FLEX_SR", Tier: "GOLD", Rank: "IV", LeaguePoints: 10},
				{QueueType: riot.QueueSolo, Tier: "DIAMOND", Rank: "II", LeaguePoints: 75, Wins: 60, Losses: 40},
			},
		},
	}
}

func newTestService(client RiotClient, db *fakeCatalog) *Service {
	if db == nil {
		db = &fakeCatalog{}
	}
	return NewService(client, db, "euw1", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProfile_UnknownPlayerIsNilNotError(t *testing.T) {
	client := &fakeRiot{accounts: map[string]riot.Account{}}
	svc := newTestService(client, nil)

	profile, err := svc.Profile(context.Background(), "Ghost", "EUW")
	if err != nil {
		t.Fatalf("Profile() error = %v, want nil for unknown player", err)
	}
	if profile != nil {
		t.Fatalf("Profile() = %+v, want nil for unknown player", profile)
	}
	if client.summonerCalls != 0 {
		t.Fatalf("summoner calls = %d, want 0 after unknown player", client.summonerCalls)
	}
}

func TestProfile_CachesByRiotID(t *testing.T) {
	client := rankedFake()
	svc := newTestService(client, nil)

	first, err := svc.Profile(context.Background(), "Ahri", "EUW")
	if err != nil || first == nil {
		t.Fatalf("Profile() = %v, %v; want profile, nil", first, err)
	}
	second, err := svc.Profile(context.Background(), "Ahri", "EUW")
	if err != nil {
		t.Fatalf("Profile(cached) error = %v", err)
	}
	if second != first {
		t.Fatalf("cached lookup returned a different profile")
	}
	if client.accountCalls != 1 {
		t.Fatalf("account calls = %d, want 1; second lookup must skip the network", client.accountCalls)
	}
}

func TestProfile_SelectsSoloQueueEntry(t *testing.T) {
	svc := newTestService(rankedFake(), nil)

	profile, err := svc.Profile(context.Background(), "Ahri", "EUW")
	if err != nil || profile == nil {
		t.Fatalf("Profile() = %v, %v; want profile, nil", profile, err)
	}
	if profile.Tier != "DIAMOND" || profile.Rank != "II" || profile.LeaguePoints != 75 {
		t.Fatalf("Profile() picked %s %s %d LP, want solo entry DIAMOND II 75", profile.Tier, profile.Rank, profile.LeaguePoints)
	}
}

func TestProfile_UnrankedSentinel(t *testing.T) {
	client := rankedFake()
	client.entries = map[string][]riot.LeagueEntry{}
	svc := newTestService(client, nil)

	profile, err := svc.Profile(context.Background(), "Ahri", "EUW")
	if err != nil || profile == nil {
		t.Fatalf("Profile() = %v, %v; want profile, nil", profile, err)
	}
	if profile.Tier != TierUnranked || profile.Rank != "-" || profile.LeaguePoints != 0 {
		t.Fatalf("unranked profile = %s %s %d LP, want %s - 0", profile.Tier, profile.Rank, profile.LeaguePoints, TierUnranked)
	}
	if profile.Ranked {
		t.Fatalf("Ranked = true, want false without a solo entry")
	}
}

func TestStats_RankedUsesEntryAndPlaceholderKDA(t *testing.T) {
	svc := newTestService(rankedFake(), nil)

	stats, err := svc.Stats(context.Background(), "Ahri", "EUW")
	if err != nil || stats == nil {
		t.Fatalf("Stats() = %v, %v; want stats, nil", stats, err)
	}
	if stats.Wins != 60 || stats.Losses != 40 || stats.LeaguePoints != 75 {
		t.Fatalf("Stats() = %d/%d %d LP, want 60/40 75", stats.Wins, stats.Losses, stats.LeaguePoints)
	}
	if stats.KDA != "0.00:1" {
		t.Fatalf("Stats().KDA = %q, want placeholder %q for ranked players", stats.KDA, "0.00:1")
	}
	if stats.WinRatePct != 60 {
		t.Fatalf("Stats().WinRatePct = %d, want 60", stats.WinRatePct)
	}
}

func TestStats_UnrankedAggregatesRecentMatches(t *testing.T) {
	client := rankedFake()
	client.entries = map[string][]riot.LeagueEntry{}
	client.matchIDs = map[string][]string{"puuid-1": matchIDList(10)}
	client.matches = make(map[string]riot.Match)
	for i, id := range matchIDList(10) {
		client.matches[id] = riot.Match{
			Metadata: riot.MatchMetadata{MatchID: id, Participants: []string{"puuid-1"}},
			Info: riot.MatchInfo{Participants: []riot.Participant{
				{PUUID: "puuid-1", Kills: 4, Deaths: 0, Assists: 6, Win: i < 7},
				{PUUID: "someone-else", Kills: 9, Deaths: 9, Assists: 9},
			}},
		}
	}
	svc := newTestService(client, nil)

	stats, err := svc.Stats(context.Background(), "Ahri", "EUW")
	if err != nil || stats == nil {
		t.Fatalf("Stats() = %v, %v; want stats, nil", stats, err)
	}
	if stats.Kills != 40 || stats.Assists != 60 || stats.Deaths != 0 {
		t.Fatalf("aggregates = %d/%d/%d, want 40/0/60", stats.Kills, stats.Deaths, stats.Assists)
	}
	// Zero deaths divide against the floor of 1.
	if stats.KDA != "100.00:1" {
		t.Fatalf("Stats().KDA = %q, want %q", stats.KDA, "100.00:1")
	}
	if stats.Wins != 7 || stats.Losses != 3 || stats.WinRatePct != 70 {
		t.Fatalf("record = %d/%d (%d%%), want 7/3 (70%%)", stats.Wins, stats.Losses, stats.WinRatePct)
	}
}

func TestMatches_CachesIDsAndDetails(t *testing.T) {
	client := rankedFake()
	client.matchIDs = map[string][]string{"puuid-1": matchIDList(3)}
	client.matches = make(map[string]riot.Match)
	for _, id := range matchIDList(3) {
		client.matches[id] = riot.Match{Metadata: riot.MatchMetadata{MatchID: id}}
	}
	svc := newTestService(client, nil)

	for round := 0; round < 2; round++ {
		matches, err := svc.Matches(context.Background(), "Ahri", "EUW")
		if err != nil {
			t.Fatalf("Matches(round %d) error = %v", round, err)
		}
		if len(matches) != 3 {
			t.Fatalf("len(Matches(round %d)) = %d, want 3", round, len(matches))
		}
	}

	if client.matchIDCalls != 1 {
		t.Fatalf("match id calls = %d, want 1", client.matchIDCalls)
	}
	if client.matchCalls != 3 {
		t.Fatalf("match detail calls = %d, want 3; details are cached by match id", client.matchCalls)
	}
}

func TestMasteries_JoinsCatalogAndSkipsUnknownChampions(t *testing.T) {
	client := rankedFake()
	client.masteries = map[string][]riot.ChampionMastery{
		"puuid-1": {
			{ChampionID: 266, ChampionLevel: 7, ChampionPoints: 250000, ChestGranted: true},
			{ChampionID: 999, ChampionLevel: 1, ChampionPoints: 100},
		},
	}
	db := &fakeCatalog{
		version: "14.2.1",
		champs:  []cdn.Champion{{ID: "Aatrox", Key: "266", Name: "Aatrox", Image: cdn.Image{Full: "Aatrox.png"}}},
	}
	svc := newTestService(client, db)

	rows, err := svc.Masteries(context.Background(), "Ahri", "EUW")
	if err != nil {
		t.Fatalf("Masteries() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(Masteries()) = %d, want 1 with unknown champion skipped", len(rows))
	}
	row := rows[0]
	if row.ChampionName != "Aatrox" || row.ChampionLevel != 7 || !row.ChestGranted {
		t.Fatalf("mastery row = %+v, want joined Aatrox level 7 with chest", row)
	}
	if row.ImageURL != cdn.ChampionSquareURL("14.2.1", "Aatrox") {
		t.Fatalf("ImageURL = %q, want square url for version 14.2.1", row.ImageURL)
	}
}

func TestMasteries_ChampionMapFollowsCatalogVersion(t *testing.T) {
	client := rankedFake()
	client.masteries = map[string][]riot.ChampionMastery{
		"puuid-1": {{ChampionID: 266, ChampionLevel: 5, ChampionPoints: 1000}},
	}
	db := &fakeCatalog{
		version: "14.1.1",
		champs:  []cdn.Champion{{ID: "Aatrox", Key: "266", Name: "Aatrox"}},
	}
	svc := newTestService(client, db)

	rows, err := svc.Masteries(context.Background(), "Ahri", "EUW")
	if err != nil || len(rows) != 1 {
		t.Fatalf("Masteries() = %v, %v; want one row", rows, err)
	}

	// A new catalog version invalidates the memoized champion map.
	db.version = "14.2.1"
	db.champs = []cdn.Champion{{ID: "Aatrox", Key: "266", Name: "Aatrox, the Darkin Blade"}}

	rows, err = svc.Masteries(context.Background(), "Ahri", "EUW")
	if err != nil || len(rows) != 1 {
		t.Fatalf("Masteries(after version change) = %v, %v; want one row", rows, err)
	}
	if rows[0].ChampionName != "Aatrox, the Darkin Blade" {
		t.Fatalf("ChampionName = %q, want refreshed catalog data", rows[0].ChampionName)
	}
	if client.masteryCalls != 1 {
		t.Fatalf("mastery calls = %d, want 1; mastery list cache survives catalog refresh", client.masteryCalls)
	}
}

func matchIDList(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, "EUW1_"+strconv.Itoa(1000+i))
	}
	return out
}

func TestProfile_IconURLFollowsCatalogVersion(t *testing.T) {
	svc := newTestService(rankedFake(), &fakeCatalog{version: "14.10.1"})

	profile, err := svc.Profile(context.Background(), "Ahri", "EUW")
	if err != nil || profile == nil {
		t.Fatalf("Profile() = %v, %v, want profile", profile, err)
	}
	want := cdn.ProfileIconURL("14.10.1", profile.ProfileIconID)
	if profile.IconURL != want {
		t.Fatalf("IconURL = %q, want %q", profile.IconURL, want)
	}
}

func TestProfile_NoIconURLBeforeFirstSync(t *testing.T) {
	svc := newTestService(rankedFake(), &fakeCatalog{})

	profile, err := svc.Profile(context.Background(), "Ahri", "EUW")
	if err != nil || profile == nil {
		t.Fatalf("Profile() = %v, %v, want profile", profile, err)
	}
	if profile.IconURL != "" {
		t.Fatalf("IconURL = %q, want empty before the catalog has a version", profile.IconURL)
	}
}
