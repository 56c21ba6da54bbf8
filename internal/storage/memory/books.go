package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
)

// BookRepository is an in-memory implementation of books.Repository.
type BookRepository struct {
	mu    sync.RWMutex
	books map[string]books.Book
}

// NewBookRepository creates an in-memory book repo.
func NewBookRepository() *BookRepository {
	return &BookRepository{
		books: make(map[string]books.Book),
	}
}

func (r *BookRepository) FindByID(_ context.Context, id string) (books.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return books.Book{}, books.ErrNotFound
	}
	return b, nil
}

func (r *BookRepository) FindByIDs(_ context.Context, ids []string) ([]books.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]books.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.books[id]; ok {
			list = append(list, b)
		}
	}
	return list, nil
}

// List returns books in creation order with offset/limit pagination.
func (r *BookRepository) List(_ context.Context, offset, limit int) ([]books.Book, error) {
	return page(r.filter(func(books.Book) bool { return true }), offset, limit), nil
}

func (r *BookRepository) ListByGenre(_ context.Context, genreID string) ([]books.Book, error) {
	return r.filter(func(b books.Book) bool { return b.GenreID == genreID }), nil
}

func (r *BookRepository) Search(_ context.Context, q books.Query) ([]books.Book, error) {
	return r.filter(q.Matches), nil
}

func (r *BookRepository) Create(_ context.Context, book books.Book) (books.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	book.ID = newID()
	book.CreatedAt = now
	book.UpdatedAt = now
	r.books[book.ID] = book
	return book, nil
}

func (r *BookRepository) Update(_ context.Context, id string, patch books.Patch) (books.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.books[id]
	if !ok {
		return books.Book{}, books.ErrNotFound
	}
	updated := patch.Apply(existing)
	updated.UpdatedAt = time.Now().UTC()
	r.books[id] = updated
	return updated, nil
}

func (r *BookRepository) Delete(_ context.Context, id string) (books.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return books.Book{}, books.ErrNotFound
	}
	if !b.Availability {
		return books.Book{}, books.ErrOnLoan
	}
	delete(r.books, id)
	return b, nil
}

// put stores b as-is. Callers must hold r.mu.
func (r *BookRepository) put(b books.Book) {
	b.UpdatedAt = time.Now().UTC()
	r.books[b.ID] = b
}

func (r *BookRepository) filter(keep func(books.Book) bool) []books.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]books.Book, 0, len(r.books))
	for _, b := range r.books {
		if keep(b) {
			list = append(list, b)
		}
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

var _ books.Repository = (*BookRepository)(nil)
