package leaderboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/trackscope/trackscope/internal/storage/postgres"
)

const (
	viewPageSize    = 25
	defaultDebounce = 500 * time.Millisecond
	defaultSettle   = 300 * time.Millisecond
)

// apexDivision is the only division apex tiers carry; selecting an apex
// tier pins the division to it and division changes become no-ops.
const apexDivision = "I"

var apexTiers = map[string]bool{
	"CHALLENGER":  true,
	"GRANDMASTER": true,
	"MASTER":      true,
}

// FilterTriple is one committed leaderboard selection.
type FilterTriple struct {
	Region   string
	Tier     string
	Division string
}

type boardSource interface {
	Fetch(ctx context.Context, region, tier, division, queue string, page, limit int)
	Leaderboard(ctx context.Context, region, tier, division string, limit, offset int) ([]postgres.Summoner, error)
}

// View derives a stable page of cached standings from a filter triple.
// Rapid filter changes collapse into one load: each change restarts a
// single debounce timer, a fixed settle delay follows it, and only a
// triple that differs from the last applied one triggers the load.
type View struct {
	source   boardSource
	logger   *slog.Logger
	debounce time.Duration
	settle   time.Duration
	ctx      context.Context

	mu       sync.Mutex
	selected FilterTriple
	applied  *FilterTriple
	timer    *time.Timer
	rows     []postgres.Summoner
	page     int

	loadMu  sync.Mutex
	updates chan struct{}
}

func NewView(ctx context.Context, source boardSource, initial FilterTriple, logger *slog.Logger) *View {
	return newView(ctx, source, initial, logger, defaultDebounce, defaultSettle)
}

func newView(ctx context.Context, source boardSource, initial FilterTriple, logger *slog.Logger, debounce, settle time.Duration) *View {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if apexTiers[initial.Tier] {
		initial.Division = apexDivision
	}
	v := &View{
		source:   source,
		logger:   logger,
		debounce: debounce,
		settle:   settle,
		ctx:      ctx,
		selected: initial,
		updates:  make(chan struct{}, 1),
	}
	v.mu.Lock()
	v.scheduleLocked()
	v.mu.Unlock()
	return v
}

// Updates signals after every completed load or page turn. The channel
// is coalescing: a slow consumer sees at least one signal, not one per
// change.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

func (v *View) SetRegion(region string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected.Region = region
	v.scheduleLocked()
}

func (v *View) SetTier(tier string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected.Tier = tier
	if apexTiers[tier] {
		v.selected.Division = apexDivision
	}
	v.scheduleLocked()
}

func (v *View) SetDivision(division string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if apexTiers[v.selected.Tier] {
		v.selected.Division = apexDivision
	} else {
		v.selected.Division = division
	}
	v.scheduleLocked()
}

// Selected reports the current raw selection, applied coupling included.
func (v *View) Selected() FilterTriple {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// scheduleLocked restarts the single pending timer; callers hold v.mu.
func (v *View) scheduleLocked() {
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.debounce, v.fire)
}

func (v *View) fire() {
	v.mu.Lock()
	target := v.selected
	applied := v.applied
	v.timer = nil
	v.mu.Unlock()

	if applied != nil && *applied == target {
		return
	}

	select {
	case <-v.ctx.Done():
		return
	case <-time.After(v.settle):
	}
	v.load(target, false)
}

// Refresh reloads the applied triple, always going to the network first.
func (v *View) Refresh() {
	v.mu.Lock()
	target := v.selected
	if v.applied != nil {
		target = *v.applied
	}
	v.mu.Unlock()
	v.load(target, true)
}

func (v *View) load(target FilterTriple, force bool) {
	v.loadMu.Lock()
	defer v.loadMu.Unlock()

	if force {
		v.source.Fetch(v.ctx, target.Region, target.Tier, target.Division, "", 1, viewPageSize)
	}
	rows, err := v.source.Leaderboard(v.ctx, target.Region, target.Tier, target.Division, viewPageSize, 0)
	if err != nil {
		v.logger.Error("Leaderboard read failed", "region", target.Region, "tier", target.Tier, "division", target.Division, "err", err)
		return
	}
	if len(rows) == 0 && !force {
		v.source.Fetch(v.ctx, target.Region, target.Tier, target.Division, "", 1, viewPageSize)
		rows, err = v.source.Leaderboard(v.ctx, target.Region, target.Tier, target.Division, viewPageSize, 0)
		if err != nil {
			v.logger.Error("Leaderboard read failed", "region", target.Region, "tier", target.Tier, "division", target.Division, "err", err)
			return
		}
	}

	v.mu.Lock()
	v.rows = rows
	v.page = 0
	v.applied = &target
	v.mu.Unlock()
	v.notify()
}

// Page returns the current in-memory page. Out-of-range pages are empty,
// never an error.
func (v *View) Page() []postgres.Summoner {
	v.mu.Lock()
	defer v.mu.Unlock()

	start := v.page * viewPageSize
	if start >= len(v.rows) {
		return nil
	}
	end := start + viewPageSize
	if end > len(v.rows) {
		end = len(v.rows)
	}
	return v.rows[start:end]
}

func (v *View) PageIndex() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *View) NextPage() {
	v.mu.Lock()
	v.page++
	v.mu.Unlock()
	v.notify()
}

func (v *View) PrevPage() {
	v.mu.Lock()
	if v.page > 0 {
		v.page--
	}
	v.mu.Unlock()
	v.notify()
}

// Close stops the pending timer; in-flight loads finish on their own.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *View) notify() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}
