package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/trackscope/trackscope/internal/api/handlers"
	"github.com/trackscope/trackscope/internal/storage"
)

func NewRouter(board handlers.Board, players handlers.PlayerDirectory, catalogDB storage.CatalogDB, defaultRegion string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	leaderboardHandler := handlers.NewLeaderboardHandler(board, defaultRegion, logger)
	summonerHandler := handlers.NewSummonerHandler(players, logger)
	championHandler := handlers.NewChampionHandler(catalogDB, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/", leaderboardHandler.Get)
			r.Post("/refresh", leaderboardHandler.Refresh)
		})

		r.Route("/summoners/{name}/{tag}", func(r chi.Router) {
			r.Get("/", summonerHandler.Get)
			r.Get("/stats", summonerHandler.Stats)
			r.Get("/matches", summonerHandler.Matches)
			r.Get("/masteries", summonerHandler.Masteries)
		})

		r.Route("/champions", func(r chi.Router) {
			r.Get("/", championHandler.GetAll)
			r.Get("/{key}", championHandler.Get)
		})
	})

	return r
}
