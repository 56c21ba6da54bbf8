package genres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
)

var (
	ErrNotImplemented = errors.New("genres repository: not implemented")
	ErrNotFound       = errors.New("genre not found")
	ErrInvalid        = errors.New("invalid genre")
	ErrExists         = errors.New("genre already exists")
)

// Genre groups books.
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Repository abstracts genre persistence.
type Repository interface {
	FindByID(ctx context.Context, id string) (Genre, error)
	FindByName(ctx context.Context, name string) (Genre, error)
	List(ctx context.Context) ([]Genre, error)
	// Create returns ErrExists when the name is taken.
	Create(ctx context.Context, genre Genre) (Genre, error)
}

// NullRepository returns ErrNotImplemented for all operations.
type NullRepository struct{}

func (NullRepository) FindByID(context.Context, string) (Genre, error)   { return Genre{}, ErrNotImplemented }
func (NullRepository) FindByName(context.Context, string) (Genre, error) { return Genre{}, ErrNotImplemented }
func (NullRepository) List(context.Context) ([]Genre, error)             { return nil, ErrNotImplemented }
func (NullRepository) Create(context.Context, Genre) (Genre, error)      { return Genre{}, ErrNotImplemented }

// Shelf is a genre with the books attached to it.
type Shelf struct {
	Genre *Genre       `json:"genre"`
	Books []books.Book `json:"data"`
}

// Service provides genre operations.
type Service interface {
	Create(ctx context.Context, name string) (Genre, error)
	List(ctx context.Context) ([]Genre, error)
	Exists(ctx context.Context, id string) (bool, error)
	BooksByName(ctx context.Context, name string) (Shelf, error)
}

// NewService builds a genre service.
func NewService(repo Repository, catalog books.Repository) Service {
	return &service{repo: repo, catalog: catalog}
}

type service struct {
	repo    Repository
	catalog books.Repository
}

func (s *service) Create(ctx context.Context, name string) (Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Genre{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	return s.repo.Create(ctx, Genre{Name: name})
}

func (s *service) List(ctx context.Context) ([]Genre, error) {
	return s.repo.List(ctx)
}

func (s *service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// BooksByName lists the books of the named genre. An unknown genre yields
// an empty shelf rather than an error.
func (s *service) BooksByName(ctx context.Context, name string) (Shelf, error) {
	genre, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Shelf{Books: []books.Book{}}, nil
		}
		return Shelf{}, err
	}

	list, err := s.catalog.ListByGenre(ctx, genre.ID)
	if err != nil {
		return Shelf{}, err
	}
	if list == nil {
		list = []books.Book{}
	}
	return Shelf{Genre: &genre, Books: list}, nil
}
