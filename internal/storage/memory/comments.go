package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
)

// CommentRepository is an in-memory implementation of comments.Repository.
type CommentRepository struct {
	mu       sync.RWMutex
	comments []comments.Comment
}

// NewCommentRepository creates an in-memory comment repo.
func NewCommentRepository() *CommentRepository {
	return &CommentRepository{}
}

func (r *CommentRepository) Create(_ context.Context, c comments.Comment) (comments.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = newID()
	c.CreatedAt = time.Now().UTC()
	r.comments = append(r.comments, c)
	return c, nil
}

func (r *CommentRepository) List(context.Context) ([]comments.Comment, error) {
	return r.filter(func(comments.Comment) bool { return true }), nil
}

func (r *CommentRepository) ListByBook(_ context.Context, bookID string) ([]comments.Comment, error) {
	return r.filter(func(c comments.Comment) bool { return c.BookID == bookID }), nil
}

func (r *CommentRepository) ListByUser(_ context.Context, userID string) ([]comments.Comment, error) {
	return r.filter(func(c comments.Comment) bool { return c.UserID == userID }), nil
}

func (r *CommentRepository) Summary(ctx context.Context, bookID string) (comments.Summary, error) {
	list, _ := r.ListByBook(ctx, bookID)
	return comments.Summarize(bookID, list), nil
}

// Summaries groups comments by book, ordered by book id.
func (r *CommentRepository) Summaries(context.Context) ([]comments.Summary, error) {
	r.mu.RLock()
	grouped := make(map[string][]comments.Comment)
	for _, c := range r.comments {
		grouped[c.BookID] = append(grouped[c.BookID], c)
	}
	r.mu.RUnlock()

	out := make([]comments.Summary, 0, len(grouped))
	for bookID, list := range grouped {
		out = append(out, comments.Summarize(bookID, list))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out, nil
}

// filter returns matching comments in insertion order.
func (r *CommentRepository) filter(keep func(comments.Comment) bool) []comments.Comment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]comments.Comment, 0)
	for _, c := range r.comments {
		if keep(c) {
			list = append(list, c)
		}
	}
	return list
}

var _ comments.Repository = (*CommentRepository)(nil)
