package loans

import (
	"context"
	"errors"
	"strings"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

var (
	ErrNotImplemented = errors.New("loans repository: not implemented")
	ErrUnavailable    = errors.New("book not available")
	ErrNotBorrowed    = errors.New("book not borrowed")
	ErrNotHolder      = errors.New("book is borrowed by another user")
)

// Loan is the pair of records touched by a borrow or return.
type Loan struct {
	User users.User `json:"user"`
	Book books.Book `json:"book"`
}

// Repository performs circulation changes atomically across the book and
// user records. Implementations return books.ErrNotFound or
// users.ErrNotFound for missing records.
type Repository interface {
	Borrow(ctx context.Context, bookID, userID string) (Loan, error)
	Return(ctx context.Context, bookID, userID string) (Loan, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) Borrow(context.Context, string, string) (Loan, error) {
	return Loan{}, ErrNotImplemented
}

func (NullRepository) Return(context.Context, string, string) (Loan, error) {
	return Loan{}, ErrNotImplemented
}

// Recorder observes circulation outcomes.
type Recorder interface {
	IncLoan(action, result string)
}

// Service handles borrowing and returning.
type Service interface {
	Borrow(ctx context.Context, bookID, userID string) (Loan, error)
	Return(ctx context.Context, bookID, userID string) (Loan, error)
}

// NewService builds a loan service. rec may be nil.
func NewService(repo Repository, rec Recorder) Service {
	return &service{repo: repo, rec: rec}
}

type service struct {
	repo Repository
	rec  Recorder
}

func (s *service) Borrow(ctx context.Context, bookID, userID string) (Loan, error) {
	loan, err := s.repo.Borrow(ctx, strings.TrimSpace(bookID), strings.TrimSpace(userID))
	s.record("borrow", err)
	return loan, err
}

func (s *service) Return(ctx context.Context, bookID, userID string) (Loan, error) {
	loan, err := s.repo.Return(ctx, strings.TrimSpace(bookID), strings.TrimSpace(userID))
	s.record("return", err)
	return loan, err
}

func (s *service) record(action string, err error) {
	if s.rec == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrNotBorrowed), errors.Is(err, ErrNotHolder):
		result = "rejected"
	case errors.Is(err, books.ErrNotFound), errors.Is(err, users.ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.rec.IncLoan(action, result)
}

// Check validates a borrow or return against the current records. Storage
// implementations call it while holding whatever guarantees atomicity.
func Check(borrow bool, book books.Book, user users.User) error {
	if borrow {
		if !book.Availability {
			return ErrUnavailable
		}
		return nil
	}
	if book.Availability {
		return ErrNotBorrowed
	}
	if !user.Holds(book.ID) {
		return ErrNotHolder
	}
	return nil
}

// Apply returns the records after a borrow or return that passed Check.
func Apply(borrow bool, book books.Book, user users.User) (books.Book, users.User) {
	held := make([]string, 0, len(user.BorrowedBooks)+1)
	for _, id := range user.BorrowedBooks {
		if id != book.ID {
			held = append(held, id)
		}
	}
	if borrow {
		held = append(held, book.ID)
	}
	book.Availability = !borrow
	user.BorrowedBooks = held
	return book, user
}
