package leaderboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/storage/postgres"
)

type fakeRiot struct {
	mu           sync.Mutex
	entries      []riot.LeagueEntry
	failProfiles map[string]bool
	failAccounts map[string]bool
	enrichDelay  time.Duration

	inFlight   int
	peakFlight int
}

func (f *fakeRiot) LeagueEntries(ctx context.Context, region, queue, tier, division string, page int) ([]riot.LeagueEntry, error) {
	return f.entries, nil
}

func (f *fakeRiot) SummonerByPUUID(ctx context.Context, region, puuid string) (riot.SummonerProfile, error) {
	f.track()
	if f.failProfiles[puuid] {
		return riot.SummonerProfile{}, fmt.Errorf("profile fetch failed for %s", puuid)
	}
	return riot.SummonerProfile{
		ID:            puuid + "_sid",
		AccountID:     puuid + "_aid",
		PUUID:         puuid,
		ProfileIconID: 100,
		SummonerLevel: 300,
	}, nil
}

func (f *fakeRiot) AccountByPUUID(ctx context.Context, region, puuid string) (riot.Account, error) {
	f.track()
	if f.failAccounts[puuid] {
		return riot.Account{}, fmt.Errorf("account fetch failed for %s", puuid)
	}
	return riot.Account{PUUID: puuid, GameName: "Player " + puuid, TagLine: "EUW"}, nil
}

func (f *fakeRiot) track() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peakFlight {
		f.peakFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.enrichDelay > 0 {
		time.Sleep(f.enrichDelay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

type fakeBoardDB struct {
	mu       sync.Mutex
	ranked   map[string]postgres.RankedRow
	profiles map[string]postgres.ProfileRow
	accounts map[string]postgres.AccountRow
	upserts  int
}

func newFakeBoardDB() *fakeBoardDB {
	return &fakeBoardDB{
		ranked:   make(map[string]postgres.RankedRow),
		profiles: make(map[string]postgres.ProfileRow),
		accounts: make(map[string]postgres.AccountRow),
	}
}

func (f *fakeBoardDB) UpsertSummoner(ctx context.Context, ranked postgres.RankedRow, profile postgres.ProfileRow, account postgres.AccountRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.ranked[ranked.PUUID] = ranked
	f.profiles[profile.PUUID] = profile
	f.accounts[account.PUUID] = account
	return nil
}

func (f *fakeBoardDB) Leaderboard(ctx context.Context, region, tier, division string, limit, offset int) ([]postgres.Summoner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []postgres.Summoner
	for puuid, ranked := range f.ranked {
		profile, hasProfile := f.profiles[puuid]
		account, hasAccount := f.accounts[puuid]
		if !hasProfile || !hasAccount {
			continue
		}
		if ranked.Region != region || ranked.Tier != tier || ranked.Rank != division {
			continue
		}
		out = append(out, postgres.Summoner{
			SummonerID:    ranked.SummonerID,
			PUUID:         puuid,
			GameName:      account.GameName,
			TagLine:       account.TagLine,
			Tier:          ranked.Tier,
			Rank:          ranked.Rank,
			LeaguePoints:  ranked.LeaguePoints,
			Wins:          ranked.Wins,
			Losses:        ranked.Losses,
			HotStreak:     ranked.HotStreak,
			ProfileIconID: profile.ProfileIconID,
			SummonerLevel: profile.SummonerLevel,
			Region:        ranked.Region,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaguePoints > out[j].LeaguePoints })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testEntries(n int) []riot.LeagueEntry {
	out := make([]riot.LeagueEntry, 0, n)
	for i := 0; i < n; i++ {
		puuid := "puuid-" + strconv.Itoa(i)
		out = append(out, riot.LeagueEntry{
			QueueType:    riot.QueueSolo,
			SummonerID:   puuid + "_sid",
			PUUID:        puuid,
			Tier:         "DIAMOND",
			Rank:         "I",
			LeaguePoints: 1000 - i,
			Wins:         10,
			Losses:       5,
		})
	}
	return out
}

func newTestService(client RiotClient, db *fakeBoardDB) *Service {
	return NewService(client, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetch_TruncatesToLimit(t *testing.T) {
	client := &fakeRiot{entries: testEntries(30)}
	db := newFakeBoardDB()

	newTestService(client, db).Fetch(context.Background(), "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)

	if db.upserts != 25 {
		t.Fatalf("upserts = %d, want 25", db.upserts)
	}
	got, err := db.Leaderboard(context.Background(), "euw1", "DIAMOND", "I", 50, 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(got) != 25 {
		t.Fatalf("len(Leaderboard()) = %d, want 25", len(got))
	}
}

func TestFetch_BoundsEnrichmentConcurrency(t *testing.T) {
	client := &fakeRiot{entries: testEntries(20), enrichDelay: 5 * time.Millisecond}
	db := newFakeBoardDB()

	newTestService(client, db).Fetch(context.Background(), "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)

	if client.peakFlight > enrichConcurrency {
		t.Fatalf("peak concurrent enrichment fetches = %d, want <= %d", client.peakFlight, enrichConcurrency)
	}
	if db.upserts != 20 {
		t.Fatalf("upserts = %d, want 20", db.upserts)
	}
}

func TestFetch_DropsFailedEnrichments(t *testing.T) {
	client := &fakeRiot{
		entries:      testEntries(10),
		failProfiles: map[string]bool{"puuid-3": true},
		failAccounts: map[string]bool{"puuid-7": true},
	}
	db := newFakeBoardDB()

	newTestService(client, db).Fetch(context.Background(), "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)

	if db.upserts != 8 {
		t.Fatalf("upserts = %d, want 8 with two players dropped", db.upserts)
	}
	for _, puuid := range []string{"puuid-3", "puuid-7"} {
		if _, ok := db.ranked[puuid]; ok {
			t.Fatalf("player %s should be absent after failed enrichment", puuid)
		}
	}
}

func TestFetch_IsIdempotent(t *testing.T) {
	client := &fakeRiot{entries: testEntries(5)}
	db := newFakeBoardDB()
	svc := newTestService(client, db)

	svc.Fetch(context.Background(), "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)
	svc.Fetch(context.Background(), "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)

	got, err := db.Leaderboard(context.Background(), "euw1", "DIAMOND", "I", 50, 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(Leaderboard()) = %d, want 5 after repeated fetch", len(got))
	}
}

func TestLeaderboard_OrdersByLeaguePoints(t *testing.T) {
	client := &fakeRiot{entries: testEntries(6)}
	db := newFakeBoardDB()
	svc := newTestService(client, db)

	svc.Fetch(context.Background(), "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)

	got, err := svc.Leaderboard(context.Background(), "euw1", "DIAMOND", "I", 3, 0)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Leaderboard()) = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].LeaguePoints < got[i].LeaguePoints {
			t.Fatalf("Leaderboard() not ordered by points: %d before %d", got[i-1].LeaguePoints, got[i].LeaguePoints)
		}
	}
}

// blockingRiot lets one player through, then parks every other
// enrichment until the context is torn down.
type blockingRiot struct {
	fakeRiot
	allow string
}

func (b *blockingRiot) SummonerByPUUID(ctx context.Context, region, puuid string) (riot.SummonerProfile, error) {
	if puuid != b.allow {
		<-ctx.Done()
		return riot.SummonerProfile{}, ctx.Err()
	}
	return b.fakeRiot.SummonerByPUUID(ctx, region, puuid)
}

type cancelOnUpsertDB struct {
	*fakeBoardDB
	cancel context.CancelFunc
}

func (c *cancelOnUpsertDB) UpsertSummoner(ctx context.Context, ranked postgres.RankedRow, profile postgres.ProfileRow, account postgres.AccountRow) error {
	if err := c.fakeBoardDB.UpsertSummoner(ctx, ranked, profile, account); err != nil {
		return err
	}
	c.cancel()
	return nil
}

func TestFetch_CancellationKeepsPersistedTriples(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &blockingRiot{fakeRiot: fakeRiot{entries: testEntries(4)}, allow: "puuid-0"}
	inner := newFakeBoardDB()
	db := &cancelOnUpsertDB{fakeBoardDB: inner, cancel: cancel}

	NewService(client, db, slog.New(slog.NewTextHandler(io.Discard, nil))).Fetch(ctx, "euw1", "DIAMOND", "I", riot.QueueSolo, 1, 25)

	if inner.upserts != 1 {
		t.Fatalf("upserts = %d, want 1; the completed triple survives the torn-down batch", inner.upserts)
	}
	if _, ok := inner.ranked["puuid-0"]; !ok {
		t.Fatalf("puuid-0 should remain persisted after cancellation")
	}
}
