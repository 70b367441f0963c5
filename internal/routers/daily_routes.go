package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
)

func DailyRoutes(router *chi.Mux, dailyHandler *handlers.DailyHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/daily", func(r chi.Router) {
		r.Use(auth, chimiddleware.Timeout(requestTimeout))
		r.Get("/questions", dailyHandler.QuestionsHandler)
		r.With(middleware.ValidateRequest[*models.DailyAnswerRequest]()).Post("/answer", dailyHandler.AnswerHandler)
		r.Get("/leaderboard", dailyHandler.LeaderboardHandler)
		r.Get("/stats", dailyHandler.StatsHandler)
	})
}
