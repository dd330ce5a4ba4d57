package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/storage/postgres"
)

const (
	defaultBoardLimit = 25
	maxBoardLimit     = 100
)

// Board is the slice of the leaderboard service the handler needs.
type Board interface {
	Fetch(ctx context.Context, region, tier, division, queue string, page, limit int)
	Leaderboard(ctx context.Context, region, tier, division string, limit, offset int) ([]postgres.Summoner, error)
}

type LeaderboardHandler struct {
	board         Board
	defaultRegion string
	logger        *slog.Logger
}

func NewLeaderboardHandler(board Board, defaultRegion string, logger *slog.Logger) *LeaderboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardHandler{board: board, defaultRegion: defaultRegion, logger: logger}
}

type leaderboardRow struct {
	GameName      string `json:"gameName"`
	TagLine       string `json:"tagLine"`
	Tier          string `json:"tier"`
	Rank          string `json:"rank"`
	LeaguePoints  int    `json:"leaguePoints"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	HotStreak     bool   `json:"hotStreak"`
	ProfileIconID int    `json:"profileIconId"`
	SummonerLevel int64  `json:"summonerLevel"`
	Region        string `json:"region"`
}

type leaderboardResponse struct {
	Entries []leaderboardRow `json:"entries"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func (h *LeaderboardHandler) boardParams(r *http.Request) (region, tier, division string, limit, offset int) {
	q := r.URL.Query()
	region = riot.NormalizePlatformRegion(q.Get("region"))
	if region == "" {
		region = h.defaultRegion
	}
	tier = strings.ToUpper(strings.TrimSpace(q.Get("tier")))
	if tier == "" {
		tier = "CHALLENGER"
	}
	division = strings.ToUpper(strings.TrimSpace(q.Get("division")))
	if division == "" {
		division = "I"
	}
	limit = defaultBoardLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxBoardLimit {
			limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return region, tier, division, limit, offset
}

// Get serves one page of cached standings.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	region, tier, division, limit, offset := h.boardParams(r)

	rows, err := h.board.Leaderboard(r.Context(), region, tier, division, limit, offset)
	if err != nil {
		h.logger.Error("Leaderboard read failed", "region", region, "tier", tier, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}

	resp := leaderboardResponse{Entries: make([]leaderboardRow, len(rows)), Limit: limit, Offset: offset}
	for i, row := range rows {
		resp.Entries[i] = leaderboardRow{
			GameName:      row.GameName,
			TagLine:       row.TagLine,
			Tier:          row.Tier,
			Rank:          row.Rank,
			LeaguePoints:  row.LeaguePoints,
			Wins:          row.Wins,
			Losses:        row.Losses,
			HotStreak:     row.HotStreak,
			ProfileIconID: row.ProfileIconID,
			SummonerLevel: row.SummonerLevel,
			Region:        row.Region,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh forces a remote fetch for the requested bucket, then serves the
// refreshed page.
func (h *LeaderboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	region, tier, division, limit, offset := h.boardParams(r)
	queue := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("queue")))
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	h.board.Fetch(r.Context(), region, tier, division, queue, page, limit)
	rows, err := h.board.Leaderboard(r.Context(), region, tier, division, limit, offset)
	if err != nil {
		h.logger.Error("Leaderboard read after refresh failed", "region", region, "tier", tier, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}

	resp := leaderboardResponse{Entries: make([]leaderboardRow, len(rows)), Limit: limit, Offset: offset}
	for i, row := range rows {
		resp.Entries[i] = leaderboardRow{
			GameName:      row.GameName,
			TagLine:       row.TagLine,
			Tier:          row.Tier,
			Rank:          row.Rank,
			LeaguePoints:  row.LeaguePoints,
			Wins:          row.Wins,
			Losses:        row.Losses,
			HotStreak:     row.HotStreak,
			ProfileIconID: row.ProfileIconID,
			SummonerLevel: row.SummonerLevel,
			Region:        row.Region,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
