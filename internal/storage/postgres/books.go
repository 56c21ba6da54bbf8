package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
)

const bookColumns = `id, title, author, year, resume, availability, genre_id, created_at, updated_at`

// BookRepository persists the catalog in Postgres.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository returns a repository backed by a pooled DB connection.
func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (books.Book, error) {
	var b books.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Year,
		&b.Resume,
		&b.Availability,
		&b.GenreID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

// FindByID fetches a book by primary key.
func (r *BookRepository) FindByID(ctx context.Context, id string) (books.Book, error) {
	if !validID(id) {
		return books.Book{}, books.ErrNotFound
	}
	const query = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	b, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return books.Book{}, books.ErrNotFound
		}
		return books.Book{}, fmt.Errorf("find book: %w", err)
	}
	return b, nil
}

func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]books.Book, error) {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			args = append(args, id)
		}
	}
	if len(args) == 0 {
		return []books.Book{}, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE id IN (` + placeholders(1, len(args)) + `)`
	return r.query(ctx, "find books", query, args...)
}

// List returns books ordered by creation date.
func (r *BookRepository) List(ctx context.Context, offset, limit int) ([]books.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at, id` + limitClause(offset, limit)
	return r.query(ctx, "list books", query)
}

func (r *BookRepository) ListByGenre(ctx context.Context, genreID string) ([]books.Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books WHERE genre_id = $1 ORDER BY created_at, id`
	return r.query(ctx, "list books by genre", query, genreID)
}

func (r *BookRepository) Search(ctx context.Context, q books.Query) ([]books.Book, error) {
	var f filterBuilder
	if q.Title != nil {
		f.eq("title", *q.Title)
	}
	if q.Author != nil {
		f.eq("author", *q.Author)
	}
	if q.Year != nil {
		f.eq("year", *q.Year)
	}
	query := `SELECT ` + bookColumns + ` FROM books` + f.clause() + ` ORDER BY created_at, id`
	return r.query(ctx, "search books", query, f.args...)
}

func (r *BookRepository) Create(ctx context.Context, book books.Book) (books.Book, error) {
	now := time.Now().UTC()

	const insert = `
        INSERT INTO books (title, author, year, resume, availability, genre_id, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id
    `
	if err := r.db.QueryRowContext(ctx, insert,
		book.Title,
		book.Author,
		book.Year,
		book.Resume,
		book.Availability,
		book.GenreID,
		now,
		now,
	).Scan(&book.ID); err != nil {
		return books.Book{}, fmt.Errorf("insert book: %w", err)
	}
	book.CreatedAt = now
	book.UpdatedAt = now
	return book, nil
}

func (r *BookRepository) Update(ctx context.Context, id string, patch books.Patch) (books.Book, error) {
	if !validID(id) {
		return books.Book{}, books.ErrNotFound
	}

	var u updateBuilder
	if patch.Title != nil {
		u.set("title", *patch.Title)
	}
	if patch.Author != nil {
		u.set("author", *patch.Author)
	}
	if patch.Year != nil {
		u.set("year", *patch.Year)
	}
	if patch.Resume != nil {
		u.set("resume", *patch.Resume)
	}
	if patch.GenreID != nil {
		u.set("genre_id", *patch.GenreID)
	}
	u.set("updated_at", time.Now().UTC())
	sets, key := u.where(id)

	query := `UPDATE books SET ` + sets + ` WHERE id = ` + key + ` RETURNING ` + bookColumns
	b, err := scanBook(r.db.QueryRowContext(ctx, query, u.args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return books.Book{}, books.ErrNotFound
		}
		return books.Book{}, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) (books.Book, error) {
	if !validID(id) {
		return books.Book{}, books.ErrNotFound
	}
	const query = `DELETE FROM books WHERE id = $1 AND availability RETURNING ` + bookColumns

	b, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return books.Book{}, fmt.Errorf("delete book: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return books.Book{}, err
	}
	return books.Book{}, books.ErrOnLoan
}

func (r *BookRepository) query(ctx context.Context, op, query string, args ...any) ([]books.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	list := make([]books.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

var _ books.Repository = (*BookRepository)(nil)
