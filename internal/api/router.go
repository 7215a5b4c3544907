package api

import (
	"net/http"
	"time"
	"trailquest/internal/api/handler"
	"trailquest/internal/app/service"
	"trailquest/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	challengeService *service.ChallengeService,
	progressionService *service.ProgressionService,
	rankingService *service.RankingService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// JWT Auth Middleware Setup
	// Verifies a "Authorization: Bearer T" token and puts claims in context.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Challenge catalog + progression actions on a challenge
		challengeHandler := handler.NewChallengeHandler(challengeService, progressionService)
		v1.Route("/challenges", challengeHandler.RegisterRoutes)

		// Review queue and own submission history
		submissionHandler := handler.NewSubmissionHandler(progressionService)
		v1.Route("/submissions", submissionHandler.RegisterRoutes)

		// Leaderboards and the group-scoped review queue
		rankingHandler := handler.NewRankingHandler(rankingService, progressionService)
		v1.Route("/groups", rankingHandler.RegisterRoutes)
	})

	return r
}
