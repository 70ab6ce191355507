package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/techcorp/gatehouse/internal/auth"
	"github.com/techcorp/gatehouse/internal/handlers"
	"github.com/techcorp/gatehouse/internal/middleware"
	"github.com/techcorp/gatehouse/internal/session"
)

// RegisterRoutes registers the auth endpoint and the protected admin subtree
// the CMS content handlers mount under.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	sessions *session.Manager,
	csrf *session.CSRFManager,
	logger *slog.Logger,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// The single action-dispatched endpoint the dashboard talks to.
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Handle("/api/auth", authHandler)

	// Everything under /api/admin requires a live session, and state-changing
	// requests additionally require the X-CSRF-Token header.
	router.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.RequireSession(sessions))
		r.Use(middleware.CSRFProtection(csrf, logger))

		r.Get("/session", authHandler.SessionInfo)
	})
}
