package routers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/middleware"
	"peerprep/interview/internal/models"
	"peerprep/interview/internal/realtime"
)

// AI calls dominate request time; the websocket route is exempt.
const requestTimeout = 60 * time.Second

// InterviewRoutes registers the session REST API behind auth and the
// websocket endpoint, which authenticates before upgrading.
func InterviewRoutes(router *chi.Mux, interviewHandler *handlers.InterviewHandler, ws *realtime.Handler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/interviews", func(r chi.Router) {
		r.Use(auth, chimiddleware.Timeout(requestTimeout))
		r.With(middleware.ValidateRequest[*models.StartInterviewRequest]()).Post("/", interviewHandler.StartHandler)
		r.Get("/{id}", interviewHandler.GetHandler)
		r.Post("/{id}/abandon", interviewHandler.AbandonHandler)
		r.Get("/{id}/follow-up", interviewHandler.FollowUpHandler)
	})
	router.Get("/ws/interview", ws.ServeWS)
}
