package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// If encoding fails there's not much we can do; log to stderr.
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

// statusFor maps domain sentinel errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, books.ErrNotImplemented),
		errors.Is(err, users.ErrNotImplemented),
		errors.Is(err, genres.ErrNotImplemented),
		errors.Is(err, comments.ErrNotImplemented),
		errors.Is(err, loans.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, books.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, genres.ErrNotFound),
		errors.Is(err, comments.ErrUnknownBook),
		errors.Is(err, comments.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, users.ErrEmailExists),
		errors.Is(err, genres.ErrExists),
		errors.Is(err, books.ErrOnLoan),
		errors.Is(err, users.ErrHasLoans),
		errors.Is(err, loans.ErrUnavailable),
		errors.Is(err, loans.ErrNotBorrowed),
		errors.Is(err, loans.ErrNotHolder):
		return http.StatusConflict
	case errors.Is(err, books.ErrInvalid),
		errors.Is(err, books.ErrUnknownGenre),
		errors.Is(err, users.ErrInvalid),
		errors.Is(err, users.ErrNoCriteria),
		errors.Is(err, genres.ErrInvalid),
		errors.Is(err, comments.ErrInvalid),
		errors.Is(err, comments.ErrInvalidOperator):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondServiceError writes err with its mapped status. Unmapped errors
// are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", "err", err)
		respondError(w, status, "internal error")
		return
	}
	respondError(w, status, err.Error())
}

// decodeJSON reads a JSON body into v. An empty body is an error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

// parsePage reads offset and limit query parameters. Limit 0 means all.
func parsePage(r *http.Request) (int, int, error) {
	query := r.URL.Query()
	offset, limit := 0, 0
	if v := query.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid offset parameter")
		}
		offset = parsed
	}
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("invalid limit parameter")
		}
		limit = parsed
	}
	return offset, limit, nil
}
