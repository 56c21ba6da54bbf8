package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// LoanRepository records circulation in the loans table. Each move runs in
// one transaction holding row locks on the book and the user.
type LoanRepository struct {
	db *sql.DB
}

// NewLoanRepository constructs a postgres-backed loan repository.
func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Borrow(ctx context.Context, bookID, userID string) (loans.Loan, error) {
	return r.move(ctx, true, bookID, userID)
}

func (r *LoanRepository) Return(ctx context.Context, bookID, userID string) (loans.Loan, error) {
	return r.move(ctx, false, bookID, userID)
}

func (r *LoanRepository) move(ctx context.Context, borrow bool, bookID, userID string) (loans.Loan, error) {
	if !validID(bookID) {
		return loans.Loan{}, books.ErrNotFound
	}
	if !validID(userID) {
		return loans.Loan{}, users.ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return loans.Loan{}, fmt.Errorf("begin loan: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	book, err := scanBook(tx.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, bookID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return loans.Loan{}, books.ErrNotFound
		}
		return loans.Loan{}, fmt.Errorf("lock book: %w", err)
	}

	var locked string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return loans.Loan{}, users.ErrNotFound
		}
		return loans.Loan{}, fmt.Errorf("lock user: %w", err)
	}
	user, err := findUser(ctx, tx, userID)
	if err != nil {
		return loans.Loan{}, err
	}

	if err := loans.Check(borrow, book, user); err != nil {
		return loans.Loan{}, err
	}

	now := time.Now().UTC()
	if borrow {
		if _, err := tx.ExecContext(ctx, `INSERT INTO loans (book_id, user_id, borrowed_at) VALUES ($1,$2,$3)`, bookID, userID, now); err != nil {
			return loans.Loan{}, fmt.Errorf("insert loan: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE book_id = $1 AND user_id = $2`, bookID, userID); err != nil {
			return loans.Loan{}, fmt.Errorf("delete loan: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE books SET availability = $2, updated_at = $3 WHERE id = $1`, bookID, !borrow, now); err != nil {
		return loans.Loan{}, fmt.Errorf("update book availability: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, userID, now); err != nil {
		return loans.Loan{}, fmt.Errorf("touch user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return loans.Loan{}, fmt.Errorf("commit loan: %w", err)
	}

	book, user = loans.Apply(borrow, book, user)
	book.UpdatedAt = now
	user.UpdatedAt = now
	return loans.Loan{User: user, Book: book}, nil
}

var _ loans.Repository = (*LoanRepository)(nil)
