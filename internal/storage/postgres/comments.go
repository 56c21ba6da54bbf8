package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
)

const commentColumns = `id, user_id, book_id, comment, rating, created_at`

// CommentRepository persists comments in Postgres.
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository constructs a postgres-backed comment repository.
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c comments.Comment) (comments.Comment, error) {
	now := time.Now().UTC()
	const insert = `
        INSERT INTO comments (user_id, book_id, comment, rating, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id
    `
	if err := r.db.QueryRowContext(ctx, insert, c.UserID, c.BookID, c.Comment, c.Rating, now).Scan(&c.ID); err != nil {
		return comments.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	c.CreatedAt = now
	return c, nil
}

func (r *CommentRepository) List(ctx context.Context) ([]comments.Comment, error) {
	return r.query(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY created_at, id`)
}

func (r *CommentRepository) ListByBook(ctx context.Context, bookID string) ([]comments.Comment, error) {
	return r.query(ctx, `SELECT `+commentColumns+` FROM comments WHERE book_id = $1 ORDER BY created_at, id`, bookID)
}

func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]comments.Comment, error) {
	return r.query(ctx, `SELECT `+commentColumns+` FROM comments WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (r *CommentRepository) Summary(ctx context.Context, bookID string) (comments.Summary, error) {
	const query = `SELECT AVG(rating)::float8, COUNT(*) FROM comments WHERE book_id = $1`

	var (
		avg sql.NullFloat64
		sum = comments.Summary{BookID: bookID}
	)
	if err := r.db.QueryRowContext(ctx, query, bookID).Scan(&avg, &sum.Count); err != nil {
		return comments.Summary{}, fmt.Errorf("summarize ratings: %w", err)
	}
	if avg.Valid {
		sum.Average = &avg.Float64
	}
	return sum, nil
}

func (r *CommentRepository) Summaries(ctx context.Context) ([]comments.Summary, error) {
	const query = `
        SELECT book_id, AVG(rating)::float8, COUNT(*)
          FROM comments
         GROUP BY book_id
         ORDER BY book_id
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize ratings: %w", err)
	}
	defer rows.Close()

	out := make([]comments.Summary, 0)
	for rows.Next() {
		var (
			sum comments.Summary
			avg float64
		)
		if err := rows.Scan(&sum.BookID, &avg, &sum.Count); err != nil {
			return nil, fmt.Errorf("scan rating summary: %w", err)
		}
		sum.Average = &avg
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *CommentRepository) query(ctx context.Context, query string, args ...any) ([]comments.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	list := make([]comments.Comment, 0)
	for rows.Next() {
		var c comments.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.BookID, &c.Comment, &c.Rating, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

var _ comments.Repository = (*CommentRepository)(nil)
