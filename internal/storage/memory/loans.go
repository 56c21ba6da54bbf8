package memory

import (
	"context"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

// LoanRepository moves books between the shelf and members by locking the
// book store and then the user store.
type LoanRepository struct {
	books *BookRepository
	users *UserRepository
}

// NewLoanRepository builds a loan repository over the given stores.
func NewLoanRepository(bookRepo *BookRepository, userRepo *UserRepository) *LoanRepository {
	return &LoanRepository{books: bookRepo, users: userRepo}
}

func (r *LoanRepository) Borrow(_ context.Context, bookID, userID string) (loans.Loan, error) {
	return r.move(true, bookID, userID)
}

func (r *LoanRepository) Return(_ context.Context, bookID, userID string) (loans.Loan, error) {
	return r.move(false, bookID, userID)
}

func (r *LoanRepository) move(borrow bool, bookID, userID string) (loans.Loan, error) {
	r.books.mu.Lock()
	defer r.books.mu.Unlock()
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	book, ok := r.books.books[bookID]
	if !ok {
		return loans.Loan{}, books.ErrNotFound
	}
	user, ok := r.users.store[userID]
	if !ok {
		return loans.Loan{}, users.ErrNotFound
	}

	if err := loans.Check(borrow, book, user); err != nil {
		return loans.Loan{}, err
	}

	book, user = loans.Apply(borrow, book, user)
	r.books.put(book)
	r.users.put(user)
	return loans.Loan{User: clone(r.users.store[userID]), Book: r.books.books[bookID]}, nil
}

var _ loans.Repository = (*LoanRepository)(nil)
