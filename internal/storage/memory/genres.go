package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
)

// GenreRepository is an in-memory implementation of genres.Repository.
type GenreRepository struct {
	mu     sync.RWMutex
	genres map[string]genres.Genre
}

// NewGenreRepository creates an in-memory genre repo.
func NewGenreRepository() *GenreRepository {
	return &GenreRepository{genres: make(map[string]genres.Genre)}
}

func (r *GenreRepository) FindByID(_ context.Context, id string) (genres.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.genres[id]
	if !ok {
		return genres.Genre{}, genres.ErrNotFound
	}
	return g, nil
}

func (r *GenreRepository) FindByName(_ context.Context, name string) (genres.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.genres {
		if g.Name == name {
			return g, nil
		}
	}
	return genres.Genre{}, genres.ErrNotFound
}

// List returns genres sorted by name.
func (r *GenreRepository) List(context.Context) ([]genres.Genre, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]genres.Genre, 0, len(r.genres))
	for _, g := range r.genres {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *GenreRepository) Create(_ context.Context, genre genres.Genre) (genres.Genre, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.genres {
		if g.Name == genre.Name {
			return genres.Genre{}, genres.ErrExists
		}
	}
	genre.ID = newID()
	r.genres[genre.ID] = genre
	return genre, nil
}

var _ genres.Repository = (*GenreRepository)(nil)
