package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bibliotheca/bibliotheca/internal/domain/comments"
)

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	BookID    string             `bson:"book_id"`
	Comment   string             `bson:"comment"`
	Rating    int                `bson:"rating"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d commentDoc) comment() comments.Comment {
	return comments.Comment{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		BookID:    d.BookID,
		Comment:   d.Comment,
		Rating:    d.Rating,
		CreatedAt: d.CreatedAt,
	}
}

// summaryDoc is one row of the rating aggregation.
type summaryDoc struct {
	BookID  string  `bson:"_id"`
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}

// CommentRepository stores comments in the "comments" collection and
// computes rating summaries with aggregation pipelines.
type CommentRepository struct {
	coll *mongo.Collection
}

func (r *CommentRepository) Create(ctx context.Context, c comments.Comment) (comments.Comment, error) {
	doc := commentDoc{
		ID:        primitive.NewObjectID(),
		UserID:    c.UserID,
		BookID:    c.BookID,
		Comment:   c.Comment,
		Rating:    c.Rating,
		CreatedAt: now(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return comments.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return doc.comment(), nil
}

func (r *CommentRepository) List(ctx context.Context) ([]comments.Comment, error) {
	return r.find(ctx, bson.M{})
}

func (r *CommentRepository) ListByBook(ctx context.Context, bookID string) ([]comments.Comment, error) {
	return r.find(ctx, bson.M{"book_id": bookID})
}

func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]comments.Comment, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *CommentRepository) Summary(ctx context.Context, bookID string) (comments.Summary, error) {
	rows, err := r.aggregate(ctx, bson.D{{Key: "$match", Value: bson.M{"book_id": bookID}}})
	if err != nil {
		return comments.Summary{}, err
	}
	if len(rows) == 0 {
		return comments.Summary{BookID: bookID}, nil
	}
	return rows[0], nil
}

func (r *CommentRepository) Summaries(ctx context.Context) ([]comments.Summary, error) {
	return r.aggregate(ctx)
}

// aggregate groups comments by book after the optional leading stages.
func (r *CommentRepository) aggregate(ctx context.Context, stages ...bson.D) ([]comments.Summary, error) {
	pipeline := mongo.Pipeline{}
	pipeline = append(pipeline, stages...)
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.M{
			"_id":     "$book_id",
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.M{"_id": 1}}},
	)

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("summarize ratings: %w", err)
	}
	var docs []summaryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("summarize ratings: decode: %w", err)
	}

	out := make([]comments.Summary, 0, len(docs))
	for _, d := range docs {
		avg := d.Average
		out = append(out, comments.Summary{BookID: d.BookID, Average: &avg, Count: d.Count})
	}
	return out, nil
}

func (r *CommentRepository) find(ctx context.Context, filter bson.M) ([]comments.Comment, error) {
	cur, err := r.coll.Find(ctx, filter, findOptions(0, 0))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list comments: decode: %w", err)
	}
	list := make([]comments.Comment, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.comment())
	}
	return list, nil
}

var _ comments.Repository = (*CommentRepository)(nil)
