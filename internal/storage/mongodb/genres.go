package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bibliotheca/bibliotheca/internal/domain/genres"
)

type genreDoc struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

func (d genreDoc) genre() genres.Genre {
	return genres.Genre{ID: d.ID.Hex(), Name: d.Name}
}

// GenreRepository stores genres in the "genres" collection.
type GenreRepository struct {
	coll *mongo.Collection
}

func (r *GenreRepository) FindByID(ctx context.Context, id string) (genres.Genre, error) {
	oid, ok := objectID(id)
	if !ok {
		return genres.Genre{}, genres.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *GenreRepository) FindByName(ctx context.Context, name string) (genres.Genre, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *GenreRepository) findOne(ctx context.Context, filter bson.M) (genres.Genre, error) {
	var doc genreDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return genres.Genre{}, genres.ErrNotFound
		}
		return genres.Genre{}, fmt.Errorf("find genre: %w", err)
	}
	return doc.genre(), nil
}

func (r *GenreRepository) List(ctx context.Context) ([]genres.Genre, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	var docs []genreDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list genres: decode: %w", err)
	}
	list := make([]genres.Genre, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.genre())
	}
	return list, nil
}

func (r *GenreRepository) Create(ctx context.Context, genre genres.Genre) (genres.Genre, error) {
	doc := genreDoc{ID: primitive.NewObjectID(), Name: genre.Name}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return genres.Genre{}, genres.ErrExists
		}
		return genres.Genre{}, fmt.Errorf("insert genre: %w", err)
	}
	return doc.genre(), nil
}

var _ genres.Repository = (*GenreRepository)(nil)
