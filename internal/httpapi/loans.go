package httpapi

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
)

func registerLoanRoutes(r chi.Router, logger *slog.Logger, service loans.Service, member middleware) {
	move := func(op string, fn func(ctx context.Context, bookID, userID string) (loans.Loan, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			bookID := chi.URLParam(r, "id")
			userID := chi.URLParam(r, "user_id")
			if !actingFor(r, userID) {
				respondError(w, http.StatusForbidden, "cannot act for another user")
				return
			}
			loan, err := fn(r.Context(), bookID, userID)
			if err != nil {
				respondServiceError(w, logger, op, err)
				return
			}
			respondJSON(w, http.StatusOK, loan)
		}
	}

	r.With(member).Post("/{id}/{user_id}/borrow", move("borrow book", service.Borrow))
	r.With(member).Post("/{id}/{user_id}/return", move("return book", service.Return))
}
