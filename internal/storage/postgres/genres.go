package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
)

// GenreRepository persists genres in Postgres.
type GenreRepository struct {
	db *sql.DB
}

// NewGenreRepository constructs a postgres-backed genre repository.
func NewGenreRepository(db *sql.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) FindByID(ctx context.Context, id string) (genres.Genre, error) {
	if !validID(id) {
		return genres.Genre{}, genres.ErrNotFound
	}
	return r.findOne(ctx, `SELECT id, name FROM genres WHERE id = $1`, id)
}

func (r *GenreRepository) FindByName(ctx context.Context, name string) (genres.Genre, error) {
	return r.findOne(ctx, `SELECT id, name FROM genres WHERE name = $1`, name)
}

func (r *GenreRepository) findOne(ctx context.Context, query string, arg string) (genres.Genre, error) {
	var g genres.Genre
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&g.ID, &g.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return genres.Genre{}, genres.ErrNotFound
		}
		return genres.Genre{}, fmt.Errorf("find genre: %w", err)
	}
	return g, nil
}

func (r *GenreRepository) List(ctx context.Context) ([]genres.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	list := make([]genres.Genre, 0)
	for rows.Next() {
		var g genres.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

func (r *GenreRepository) Create(ctx context.Context, genre genres.Genre) (genres.Genre, error) {
	const insert = `INSERT INTO genres (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowContext(ctx, insert, genre.Name).Scan(&genre.ID); err != nil {
		if isUniqueViolation(err) {
			return genres.Genre{}, genres.ErrExists
		}
		return genres.Genre{}, fmt.Errorf("insert genre: %w", err)
	}
	return genre, nil
}

var _ genres.Repository = (*GenreRepository)(nil)
