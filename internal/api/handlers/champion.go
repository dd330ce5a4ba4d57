package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trackscope/trackscope/internal/catalog"
	"github.com/trackscope/trackscope/internal/riot/cdn"
	"github.com/trackscope/trackscope/internal/storage"
)

type ChampionHandler struct {
	db     storage.CatalogDB
	logger *slog.Logger
}

func NewChampionHandler(db storage.CatalogDB, logger *slog.Logger) *ChampionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChampionHandler{db: db, logger: logger}
}

type championResponse struct {
	ID       string   `json:"id"`
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	ImageURL string   `json:"imageUrl"`
}

type championsResponse struct {
	Champions []championResponse `json:"champions"`
	Version   string             `json:"version"`
}

func buildChampionResponse(champ cdn.Champion, version string) championResponse {
	tags := champ.Tags
	if tags == nil {
		tags = []string{}
	}
	return championResponse{
		ID:       champ.ID,
		Key:      champ.Key,
		Name:     champ.Name,
		Title:    champ.Title,
		Tags:     tags,
		ImageURL: cdn.ChampionSquareURL(version, champ.ID),
	}
}

func (h *ChampionHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	champions, err := h.db.Champions(r.Context())
	if err != nil {
		h.logger.Error("Champion list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list champions")
		return
	}
	version, _, err := h.db.SyncVersion(r.Context(), catalog.SyncKey)
	if err != nil {
		h.logger.Error("Catalog version read failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list champions")
		return
	}

	resp := championsResponse{Champions: make([]championResponse, len(champions)), Version: version}
	for i, champ := range champions {
		resp.Champions[i] = buildChampionResponse(champ, version)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChampionHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	champ, found, err := h.db.ChampionByKey(r.Context(), key)
	if err != nil {
		h.logger.Error("Champion lookup failed", "key", key, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to look up champion")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "champion not found")
		return
	}
	version, _, err := h.db.SyncVersion(r.Context(), catalog.SyncKey)
	if err != nil {
		h.logger.Error("Catalog version read failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to look up champion")
		return
	}
	writeJSON(w, http.StatusOK, buildChampionResponse(champ, version))
}
