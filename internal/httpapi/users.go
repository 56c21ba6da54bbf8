package httpapi

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

func registerUserRoutes(r chi.Router, logger *slog.Logger, service users.Service, admin middleware) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := parsePage(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		list, err := service.List(r.Context(), offset, limit)
		if err != nil {
			respondServiceError(w, logger, "list users", err)
			return
		}
		respondList(w, list)
	})

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var input users.RegisterInput
		if err := decodeJSON(r, &input); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		user, err := service.Register(r.Context(), input)
		if err != nil {
			respondServiceError(w, logger, "register user", err)
			return
		}
		respondJSON(w, http.StatusCreated, user)
	})

	r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
		var q users.Query
		if err := decodeJSON(r, &q); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		list, err := service.Search(r.Context(), q)
		if err != nil {
			respondServiceError(w, logger, "search users", err)
			return
		}
		respondList(w, list)
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		user, err := service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, logger, "get user", err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	})

	r.With(admin).Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var patch users.Patch
		if err := decodeJSON(r, &patch); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		user, err := service.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			respondServiceError(w, logger, "update user", err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	})

	r.With(admin).Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		user, err := service.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, logger, "delete user", err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	})
}
