package httpapi

import (
	"net/http"
	"net/url"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
)

func registerGenreRoutes(r chi.Router, logger *slog.Logger, service genres.Service, admin middleware) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		list, err := service.List(r.Context())
		if err != nil {
			respondServiceError(w, logger, "list genres", err)
			return
		}
		respondList(w, list)
	})

	r.With(admin).Post("/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		genre, err := service.Create(r.Context(), payload.Name)
		if err != nil {
			respondServiceError(w, logger, "create genre", err)
			return
		}
		respondJSON(w, http.StatusCreated, genre)
	})

	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		name, err := pathParam(r, "name")
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid genre name")
			return
		}
		shelf, err := service.BooksByName(r.Context(), name)
		if err != nil {
			respondServiceError(w, logger, "list genre books", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"genre": shelf.Genre,
			"data":  shelf.Books,
			"count": len(shelf.Books),
		})
	})
}

// pathParam returns the decoded URL parameter. chi matches on RawPath when
// the request carries escapes such as %2F, leaving those params encoded.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}
