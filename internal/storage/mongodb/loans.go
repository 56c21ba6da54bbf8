package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// LoanRepository moves books between the shelf and a member with
// conditional single-document updates. The book flip is the
// serialization point; a failed user update undoes it.
type LoanRepository struct {
	books *BookRepository
	users *UserRepository
}

func (r *LoanRepository) Borrow(ctx context.Context, bookID, userID string) (loans.Loan, error) {
	book, user, err := r.load(ctx, bookID, userID)
	if err != nil {
		return loans.Loan{}, err
	}
	if err := loans.Check(true, book, user); err != nil {
		return loans.Loan{}, err
	}

	bookOID, _ := objectID(bookID)
	userOID, _ := objectID(userID)
	ts := now()

	updated, ok, err := r.books.setAvailability(ctx, bookOID, false, ts)
	if err != nil {
		return loans.Loan{}, fmt.Errorf("borrow book: %w", err)
	}
	if !ok {
		return loans.Loan{}, loans.ErrUnavailable
	}

	member, err := r.users.addLoan(ctx, userOID, bookID, ts)
	if err != nil {
		if _, _, undoErr := r.books.setAvailability(ctx, bookOID, true, ts); undoErr != nil {
			err = errors.Join(err, fmt.Errorf("restore availability: %w", undoErr))
		}
		return loans.Loan{}, err
	}
	return loans.Loan{User: member, Book: updated}, nil
}

func (r *LoanRepository) Return(ctx context.Context, bookID, userID string) (loans.Loan, error) {
	book, user, err := r.load(ctx, bookID, userID)
	if err != nil {
		return loans.Loan{}, err
	}
	if err := loans.Check(false, book, user); err != nil {
		return loans.Loan{}, err
	}

	bookOID, _ := objectID(bookID)
	userOID, _ := objectID(userID)
	ts := now()

	member, err := r.users.removeLoan(ctx, userOID, bookID, ts)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return loans.Loan{}, loans.ErrNotHolder
		}
		return loans.Loan{}, fmt.Errorf("return book: %w", err)
	}

	updated, ok, err := r.books.setAvailability(ctx, bookOID, true, ts)
	if err == nil && !ok {
		err = loans.ErrNotBorrowed
	}
	if err != nil {
		if _, undoErr := r.users.addLoan(ctx, userOID, bookID, ts); undoErr != nil {
			err = errors.Join(err, fmt.Errorf("restore loan: %w", undoErr))
		}
		return loans.Loan{}, err
	}
	return loans.Loan{User: member, Book: updated}, nil
}

func (r *LoanRepository) load(ctx context.Context, bookID, userID string) (books.Book, users.User, error) {
	book, err := r.books.FindByID(ctx, bookID)
	if err != nil {
		return books.Book{}, users.User{}, err
	}
	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return books.Book{}, users.User{}, err
	}
	return book, user, nil
}

var _ loans.Repository = (*LoanRepository)(nil)
