package httpapi

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotheca/bibliotheca/internal/auth"
	"github.com/bibliotheca/bibliotheca/internal/domain"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// Version is reported by /api/ping. It is overridden at build time.
var Version = "dev"

// Register attaches API routes to the provided router. tokens may be nil,
// in which case every route is public.
func Register(router chi.Router, logger *slog.Logger, domainServices domain.Container, tokens *auth.Manager) {
	admin := tokens.Require(users.RoleAdmin)
	member := tokens.Require(users.RoleUser, users.RoleAdmin)

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{
				"status":  "ok",
				"time":    time.Now().UTC().Format(time.RFC3339),
				"server":  "bibliotheca",
				"version": Version,
			})
		})

		r.Route("/book", func(r chi.Router) {
			registerBookRoutes(r, logger, domainServices.Books, admin)
			registerLoanRoutes(r, logger, domainServices.Loans, member)
		})
		r.Route("/user", func(r chi.Router) {
			registerUserRoutes(r, logger, domainServices.Users, admin)
		})
		r.Route("/genre", func(r chi.Router) {
			registerGenreRoutes(r, logger, domainServices.Genres, admin)
		})
		r.Route("/comment", func(r chi.Router) {
			registerCommentRoutes(r, logger, domainServices.Comments, member)
		})
	})
}

// actingFor reports whether the caller may act on behalf of userID. Admins
// and unauthenticated deployments may act for anyone.
func actingFor(r *http.Request, userID string) bool {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok || claims.Role == users.RoleAdmin {
		return true
	}
	return claims.Subject == userID
}
