package httpapi

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
)

// ratingSearch is the body of a rating search.
type ratingSearch struct {
	Operator string   `json:"operator"`
	Rating   *float64 `json:"rating"`
}

func registerCommentRoutes(r chi.Router, logger *slog.Logger, service comments.Service, member middleware) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		list, err := service.List(r.Context())
		if err != nil {
			respondServiceError(w, logger, "list comments", err)
			return
		}
		respondList(w, list)
	})

	r.With(member).Post("/", func(w http.ResponseWriter, r *http.Request) {
		var input comments.CreateInput
		if err := decodeJSON(r, &input); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !actingFor(r, input.UserID) {
			respondError(w, http.StatusForbidden, "cannot act for another user")
			return
		}
		comment, err := service.Create(r.Context(), input)
		if err != nil {
			respondServiceError(w, logger, "create comment", err)
			return
		}
		respondJSON(w, http.StatusCreated, comment)
	})

	searchByRating := func(w http.ResponseWriter, r *http.Request) {
		search, err := readRatingSearch(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		op, err := comments.ParseOperator(search.Operator)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid rating operator "+strconv.Quote(search.Operator))
			return
		}
		list, err := service.SearchByRating(r.Context(), op, *search.Rating)
		if err != nil {
			respondServiceError(w, logger, "search by rating", err)
			return
		}
		respondList(w, list)
	}
	r.Get("/search/rating", searchByRating)
	r.Post("/search/rating", searchByRating)

	r.Get("/rating/{book_id}", func(w http.ResponseWriter, r *http.Request) {
		summary, err := service.Rating(r.Context(), chi.URLParam(r, "book_id"))
		if err != nil {
			respondServiceError(w, logger, "book rating", err)
			return
		}
		respondJSON(w, http.StatusOK, summary)
	})

	r.Get("/user/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		list, err := service.ListByUser(r.Context(), chi.URLParam(r, "user_id"))
		if err != nil {
			respondServiceError(w, logger, "list user comments", err)
			return
		}
		respondList(w, list)
	})

	r.Get("/{book_id}", func(w http.ResponseWriter, r *http.Request) {
		list, err := service.ListByBook(r.Context(), chi.URLParam(r, "book_id"))
		if err != nil {
			respondServiceError(w, logger, "list book comments", err)
			return
		}
		respondList(w, list)
	})
}

// readRatingSearch takes operator and rating from the query string, falling
// back to a JSON body.
func readRatingSearch(r *http.Request) (ratingSearch, error) {
	var search ratingSearch
	query := r.URL.Query()
	if v := query.Get("rating"); v != "" {
		value, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return ratingSearch{}, errors.New("invalid rating parameter")
		}
		search.Operator = query.Get("operator")
		search.Rating = &value
		return search, nil
	}

	if err := decodeJSON(r, &search); err != nil {
		return ratingSearch{}, err
	}
	if search.Rating == nil {
		return ratingSearch{}, errors.New("rating is required")
	}
	return search, nil
}
