package httpapi

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
)

type middleware = func(http.Handler) http.Handler

func registerBookRoutes(r chi.Router, logger *slog.Logger, service books.Service, admin middleware) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := parsePage(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		list, err := service.List(r.Context(), offset, limit)
		if err != nil {
			respondServiceError(w, logger, "list books", err)
			return
		}
		respondList(w, list)
	})

	r.With(admin).Post("/", func(w http.ResponseWriter, r *http.Request) {
		var input books.CreateInput
		if err := decodeJSON(r, &input); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		book, err := service.Create(r.Context(), input)
		if err != nil {
			respondServiceError(w, logger, "create book", err)
			return
		}
		respondJSON(w, http.StatusCreated, book)
	})

	r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
		var q books.Query
		if err := decodeJSON(r, &q); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		list, err := service.Search(r.Context(), q)
		if err != nil {
			respondServiceError(w, logger, "search books", err)
			return
		}
		respondList(w, list)
	})

	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		book, err := service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, logger, "get book", err)
			return
		}
		respondJSON(w, http.StatusOK, book)
	})

	r.With(admin).Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var patch books.Patch
		if err := decodeJSON(r, &patch); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		book, err := service.Update(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			respondServiceError(w, logger, "update book", err)
			return
		}
		respondJSON(w, http.StatusOK, book)
	})

	r.With(admin).Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		book, err := service.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, logger, "delete book", err)
			return
		}
		respondJSON(w, http.StatusOK, book)
	})
}
