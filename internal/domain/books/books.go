package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoGenre marks a book that has not been attached to a genre yet.
const NoGenre = "000000000000000000000000"

var (
	ErrNotImplemented = errors.New("books repository: not implemented")
	ErrNotFound       = errors.New("book not found")
	ErrInvalid        = errors.New("invalid book")
	ErrUnknownGenre   = errors.New("unknown genre")
	ErrOnLoan         = errors.New("book is on loan")
)

// Book is a catalog entry.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Year         int       `json:"year"`
	Resume       string    `json:"resume"`
	Availability bool      `json:"availability"`
	GenreID      string    `json:"genre_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Query filters books by exact field values. Nil fields are ignored.
type Query struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Year   *int    `json:"year,omitempty"`
}

// Empty reports whether no criteria are set.
func (q Query) Empty() bool {
	return q.Title == nil && q.Author == nil && q.Year == nil
}

// Patch carries a partial update. Availability is owned by the loans
// package and cannot be patched.
type Patch struct {
	Title   *string `json:"title,omitempty"`
	Author  *string `json:"author,omitempty"`
	Year    *int    `json:"year,omitempty"`
	Resume  *string `json:"resume,omitempty"`
	GenreID *string `json:"genre_id,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Year == nil && p.Resume == nil && p.GenreID == nil
}

// Repository abstracts persistence for books.
type Repository interface {
	FindByID(ctx context.Context, id string) (Book, error)
	FindByIDs(ctx context.Context, ids []string) ([]Book, error)
	List(ctx context.Context, offset, limit int) ([]Book, error)
	ListByGenre(ctx context.Context, genreID string) ([]Book, error)
	Search(ctx context.Context, q Query) ([]Book, error)
	Create(ctx context.Context, book Book) (Book, error)
	Update(ctx context.Context, id string, patch Patch) (Book, error)
	// Delete removes an available book. It returns ErrOnLoan when the
	// book is currently borrowed.
	Delete(ctx context.Context, id string) (Book, error)
}

// NullRepository stub implementation returning ErrNotImplemented.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Book, error) {
	return Book{}, ErrNotImplemented
}

func (NullRepository) FindByIDs(context.Context, []string) ([]Book, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) List(context.Context, int, int) ([]Book, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) ListByGenre(context.Context, string) ([]Book, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Search(context.Context, Query) ([]Book, error) {
	return nil, ErrNotImplemented
}

func (NullRepository) Create(context.Context, Book) (Book, error) {
	return Book{}, ErrNotImplemented
}

func (NullRepository) Update(context.Context, string, Patch) (Book, error) {
	return Book{}, ErrNotImplemented
}

func (NullRepository) Delete(context.Context, string) (Book, error) {
	return Book{}, ErrNotImplemented
}

// GenreLookup resolves genre ids referenced by books.
type GenreLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service defines catalog operations.
type Service interface {
	Get(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, offset, limit int) ([]Book, error)
	Create(ctx context.Context, input CreateInput) (Book, error)
	Update(ctx context.Context, id string, patch Patch) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
	Search(ctx context.Context, q Query) ([]Book, error)
}

// CreateInput is used to add a book to the catalog.
type CreateInput struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
	Resume string `json:"resume"`
}

// NewService creates a catalog service. genres may be nil, in which case
// genre references are not checked.
func NewService(repo Repository, genres GenreLookup) Service {
	return &service{repo: repo, genres: genres, now: time.Now}
}

type service struct {
	repo   Repository
	genres GenreLookup
	now    func() time.Time
}

func (s *service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, offset, limit int) ([]Book, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *service) Create(ctx context.Context, input CreateInput) (Book, error) {
	book := Book{
		Title:        strings.TrimSpace(input.Title),
		Author:       strings.TrimSpace(input.Author),
		Year:         input.Year,
		Resume:       strings.TrimSpace(input.Resume),
		Availability: true,
		GenreID:      NoGenre,
	}
	if book.Title == "" {
		return Book{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if book.Author == "" {
		return Book{}, fmt.Errorf("%w: author is required", ErrInvalid)
	}
	if err := s.checkYear(book.Year); err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, book)
}

func (s *service) Update(ctx context.Context, id string, patch Patch) (Book, error) {
	if patch.Empty() {
		return s.repo.FindByID(ctx, id)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Book{}, fmt.Errorf("%w: title cannot be empty", ErrInvalid)
		}
		patch.Title = &title
	}
	if patch.Author != nil {
		author := strings.TrimSpace(*patch.Author)
		if author == "" {
			return Book{}, fmt.Errorf("%w: author cannot be empty", ErrInvalid)
		}
		patch.Author = &author
	}
	if patch.Year != nil {
		if err := s.checkYear(*patch.Year); err != nil {
			return Book{}, err
		}
	}
	if patch.Resume != nil {
		resume := strings.TrimSpace(*patch.Resume)
		patch.Resume = &resume
	}
	if patch.GenreID != nil {
		genreID := strings.TrimSpace(*patch.GenreID)
		if genreID == "" {
			genreID = NoGenre
		}
		if genreID != NoGenre && s.genres != nil {
			ok, err := s.genres.Exists(ctx, genreID)
			if err != nil {
				return Book{}, err
			}
			if !ok {
				return Book{}, ErrUnknownGenre
			}
		}
		patch.GenreID = &genreID
	}

	return s.repo.Update(ctx, id, patch)
}

func (s *service) Delete(ctx context.Context, id string) (Book, error) {
	return s.repo.Delete(ctx, id)
}

func (s *service) Search(ctx context.Context, q Query) ([]Book, error) {
	if q.Empty() {
		return []Book{}, nil
	}
	return s.repo.Search(ctx, q)
}

func (s *service) checkYear(year int) error {
	if max := s.now().Year() + 1; year > max {
		return fmt.Errorf("%w: year must not be after %d", ErrInvalid, max)
	}
	return nil
}

// Matches reports whether b satisfies every criterion in q.
func (q Query) Matches(b Book) bool {
	if q.Title != nil && b.Title != *q.Title {
		return false
	}
	if q.Author != nil && b.Author != *q.Author {
		return false
	}
	if q.Year != nil && b.Year != *q.Year {
		return false
	}
	return true
}

// Apply returns b with the patch's fields applied.
func (p Patch) Apply(b Book) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Year != nil {
		b.Year = *p.Year
	}
	if p.Resume != nil {
		b.Resume = *p.Resume
	}
	if p.GenreID != nil {
		b.GenreID = *p.GenreID
	}
	return b
}
