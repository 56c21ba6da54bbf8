package comments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrNotImplemented  = errors.New("comments repository: not implemented")
	ErrInvalid         = errors.New("invalid comment")
	ErrUnknownBook     = errors.New("comment references unknown book")
	ErrUnknownUser     = errors.New("comment references unknown user")
	ErrInvalidOperator = errors.New("invalid rating operator")
)

// Comment is a member's review of a book.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary aggregates the ratings of one book. Average is nil when the book
// has no comments.
type Summary struct {
	BookID  string   `json:"book_id"`
	Average *float64 `json:"average,omitempty"`
	Count   int      `json:"count"`
}

// RatedBook is a book annotated with its rating summary.
type RatedBook struct {
	books.Book
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
}

// Repository abstracts comment persistence.
type Repository interface {
	Create(ctx context.Context, comment Comment) (Comment, error)
	List(ctx context.Context) ([]Comment, error)
	ListByBook(ctx context.Context, bookID string) ([]Comment, error)
	ListByUser(ctx context.Context, userID string) ([]Comment, error)
	// Summary aggregates the ratings of one book.
	Summary(ctx context.Context, bookID string) (Summary, error)
	// Summaries aggregates ratings for every book that has comments.
	Summaries(ctx context.Context) ([]Summary, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) Create(context.Context, Comment) (Comment, error) {
	return Comment{}, ErrNotImplemented
}
func (NullRepository) List(context.Context) ([]Comment, error) { return nil, ErrNotImplemented }
func (NullRepository) ListByBook(context.Context, string) ([]Comment, error) {
	return nil, ErrNotImplemented
}
func (NullRepository) ListByUser(context.Context, string) ([]Comment, error) {
	return nil, ErrNotImplemented
}
func (NullRepository) Summary(context.Context, string) (Summary, error) {
	return Summary{}, ErrNotImplemented
}
func (NullRepository) Summaries(context.Context) ([]Summary, error) { return nil, ErrNotImplemented }

// Service defines comment and rating operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (Comment, error)
	List(ctx context.Context) ([]Comment, error)
	ListByBook(ctx context.Context, bookID string) ([]Comment, error)
	ListByUser(ctx context.Context, userID string) ([]Comment, error)
	Rating(ctx context.Context, bookID string) (Summary, error)
	SearchByRating(ctx context.Context, op Operator, value float64) ([]RatedBook, error)
}

// CreateInput is used to post a comment.
type CreateInput struct {
	UserID  string `json:"user_id"`
	BookID  string `json:"book_id"`
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// NewService builds a comment service.
func NewService(repo Repository, catalog books.Repository, members users.Repository) Service {
	return &service{repo: repo, catalog: catalog, members: members}
}

type service struct {
	repo    Repository
	catalog books.Repository
	members users.Repository
}

func (s *service) Create(ctx context.Context, input CreateInput) (Comment, error) {
	c := Comment{
		UserID:  strings.TrimSpace(input.UserID),
		BookID:  strings.TrimSpace(input.BookID),
		Comment: strings.TrimSpace(input.Comment),
		Rating:  input.Rating,
	}
	if c.UserID == "" {
		return Comment{}, fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	if c.BookID == "" {
		return Comment{}, fmt.Errorf("%w: book_id is required", ErrInvalid)
	}
	if c.Rating < MinRating || c.Rating > MaxRating {
		return Comment{}, fmt.Errorf("%w: rating must be between %d and %d", ErrInvalid, MinRating, MaxRating)
	}

	if _, err := s.members.FindByID(ctx, c.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Comment{}, ErrUnknownUser
		}
		return Comment{}, err
	}
	if _, err := s.catalog.FindByID(ctx, c.BookID); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return Comment{}, ErrUnknownBook
		}
		return Comment{}, err
	}

	return s.repo.Create(ctx, c)
}

func (s *service) List(ctx context.Context) ([]Comment, error) {
	return s.repo.List(ctx)
}

func (s *service) ListByBook(ctx context.Context, bookID string) ([]Comment, error) {
	return s.repo.ListByBook(ctx, bookID)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]Comment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Rating(ctx context.Context, bookID string) (Summary, error) {
	return s.repo.Summary(ctx, bookID)
}

func (s *service) SearchByRating(ctx context.Context, op Operator, value float64) ([]RatedBook, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, string(op))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: rating must be a finite number", ErrInvalid)
	}

	summaries, err := s.repo.Summaries(ctx)
	if err != nil {
		return nil, err
	}

	matched := make(map[string]Summary)
	ids := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		if sum.Average == nil || !op.Compare(*sum.Average, value) {
			continue
		}
		matched[sum.BookID] = sum
		ids = append(ids, sum.BookID)
	}
	if len(ids) == 0 {
		return []RatedBook{}, nil
	}

	found, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]RatedBook, 0, len(found))
	for _, b := range found {
		sum := matched[b.ID]
		out = append(out, RatedBook{Book: b, AverageRating: *sum.Average, RatingCount: sum.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageRating != out[j].AverageRating {
			return out[i].AverageRating > out[j].AverageRating
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Summarize computes the rating summary of bookID from its comments.
func Summarize(bookID string, list []Comment) Summary {
	sum := Summary{BookID: bookID, Count: len(list)}
	if len(list) == 0 {
		return sum
	}
	total := 0
	for _, c := range list {
		total += c.Rating
	}
	avg := float64(total) / float64(len(list))
	sum.Average = &avg
	return sum
}
