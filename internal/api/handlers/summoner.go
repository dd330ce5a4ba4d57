package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trackscope/trackscope/internal/riot"
	"github.com/trackscope/trackscope/internal/summoner"
)

// PlayerDirectory is the slice of the summoner service the handler needs.
type PlayerDirectory interface {
	Profile(ctx context.Context, gameName, tagLine string) (*summoner.Profile, error)
	Stats(ctx context.Context, gameName, tagLine string) (*summoner.Stats, error)
	Matches(ctx context.Context, gameName, tagLine string) ([]riot.Match, error)
	Masteries(ctx context.Context, gameName, tagLine string) ([]summoner.MasteryRow, error)
}

type SummonerHandler struct {
	players PlayerDirectory
	logger  *slog.Logger
}

func NewSummonerHandler(players PlayerDirectory, logger *slog.Logger) *SummonerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummonerHandler{players: players, logger: logger}
}

type profileResponse struct {
	GameName      string `json:"gameName"`
	TagLine       string `json:"tagLine"`
	PUUID         string `json:"puuid"`
	ProfileIconID int    `json:"profileIconId"`
	IconURL       string `json:"iconUrl,omitempty"`
	SummonerLevel int64  `json:"summonerLevel"`
	Tier          string `json:"tier"`
	Rank          string `json:"rank"`
	LeaguePoints  int    `json:"leaguePoints"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Ranked        bool   `json:"ranked"`
}

func riotIDParams(r *http.Request) (string, string) {
	return chi.URLParam(r, "name"), chi.URLParam(r, "tag")
}

// Get resolves a player profile. An unknown riot id is a 404, not an
// internal error.
func (h *SummonerHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, tag := riotIDParams(r)

	profile, err := h.players.Profile(r.Context(), name, tag)
	if err != nil {
		h.logger.Error("Profile lookup failed", "riotId", riot.FormatRiotID(name, tag), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve player")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		GameName:      profile.Account.GameName,
		TagLine:       profile.Account.TagLine,
		PUUID:         profile.Account.PUUID,
		ProfileIconID: profile.ProfileIconID,
		IconURL:       profile.IconURL,
		SummonerLevel: profile.SummonerLevel,
		Tier:          profile.Tier,
		Rank:          profile.Rank,
		LeaguePoints:  profile.LeaguePoints,
		Wins:          profile.Wins,
		Losses:        profile.Losses,
		Ranked:        profile.Ranked,
	})
}

func (h *SummonerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	name, tag := riotIDParams(r)

	stats, err := h.players.Stats(r.Context(), name, tag)
	if err != nil {
		h.logger.Error("Stats lookup failed", "riotId", riot.FormatRiotID(name, tag), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve stats")
		return
	}
	if stats == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *SummonerHandler) Matches(w http.ResponseWriter, r *http.Request) {
	name, tag := riotIDParams(r)
	if !h.requirePlayer(w, r, name, tag) {
		return
	}

	matches, err := h.players.Matches(r.Context(), name, tag)
	if err != nil {
		h.logger.Error("Match lookup failed", "riotId", riot.FormatRiotID(name, tag), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve matches")
		return
	}
	if matches == nil {
		matches = []riot.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *SummonerHandler) Masteries(w http.ResponseWriter, r *http.Request) {
	name, tag := riotIDParams(r)
	if !h.requirePlayer(w, r, name, tag) {
		return
	}

	rows, err := h.players.Masteries(r.Context(), name, tag)
	if err != nil {
		h.logger.Error("Mastery lookup failed", "riotId", riot.FormatRiotID(name, tag), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve masteries")
		return
	}
	if rows == nil {
		rows = []summoner.MasteryRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// requirePlayer distinguishes "no such player" from an empty result set;
// the profile lookup is cached, so this costs no extra network round.
func (h *SummonerHandler) requirePlayer(w http.ResponseWriter, r *http.Request, name, tag string) bool {
	profile, err := h.players.Profile(r.Context(), name, tag)
	if err != nil {
		h.logger.Error("Profile lookup failed", "riotId", riot.FormatRiotID(name, tag), "err", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve player")
		return false
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return false
	}
	return true
}
