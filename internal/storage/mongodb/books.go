package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bibliotheca/bibliotheca/internal/domain/books"
)

type bookDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Author       string             `bson:"author"`
	Year         int                `bson:"year"`
	Resume       string             `bson:"resume"`
	Availability bool               `bson:"availability"`
	GenreID      string             `bson:"genre_id"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d bookDoc) book() books.Book {
	return books.Book{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Author:       d.Author,
		Year:         d.Year,
		Resume:       d.Resume,
		Availability: d.Availability,
		GenreID:      d.GenreID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// BookRepository stores books in the "books" collection.
type BookRepository struct {
	coll *mongo.Collection
}

func (r *BookRepository) FindByID(ctx context.Context, id string) (books.Book, error) {
	oid, ok := objectID(id)
	if !ok {
		return books.Book{}, books.ErrNotFound
	}
	var doc bookDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return books.Book{}, books.ErrNotFound
		}
		return books.Book{}, fmt.Errorf("find book: %w", err)
	}
	return doc.book(), nil
}

func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]books.Book, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []books.Book{}, nil
	}
	return r.find(ctx, "find books", bson.M{"_id": bson.M{"$in": oids}}, 0, 0)
}

func (r *BookRepository) List(ctx context.Context, offset, limit int) ([]books.Book, error) {
	return r.find(ctx, "list books", bson.M{}, offset, limit)
}

func (r *BookRepository) ListByGenre(ctx context.Context, genreID string) ([]books.Book, error) {
	return r.find(ctx, "list books by genre", bson.M{"genre_id": genreID}, 0, 0)
}

func (r *BookRepository) Search(ctx context.Context, q books.Query) ([]books.Book, error) {
	filter := bson.M{}
	if q.Title != nil {
		filter["title"] = *q.Title
	}
	if q.Author != nil {
		filter["author"] = *q.Author
	}
	if q.Year != nil {
		filter["year"] = *q.Year
	}
	return r.find(ctx, "search books", filter, 0, 0)
}

func (r *BookRepository) Create(ctx context.Context, book books.Book) (books.Book, error) {
	ts := now()
	doc := bookDoc{
		ID:           primitive.NewObjectID(),
		Title:        book.Title,
		Author:       book.Author,
		Year:         book.Year,
		Resume:       book.Resume,
		Availability: book.Availability,
		GenreID:      book.GenreID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return books.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return doc.book(), nil
}

func (r *BookRepository) Update(ctx context.Context, id string, patch books.Patch) (books.Book, error) {
	oid, ok := objectID(id)
	if !ok {
		return books.Book{}, books.ErrNotFound
	}

	set := bson.M{"updated_at": now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.Year != nil {
		set["year"] = *patch.Year
	}
	if patch.Resume != nil {
		set["resume"] = *patch.Resume
	}
	if patch.GenreID != nil {
		set["genre_id"] = *patch.GenreID
	}

	var doc bookDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, afterUpdate()).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return books.Book{}, books.ErrNotFound
		}
		return books.Book{}, fmt.Errorf("update book: %w", err)
	}
	return doc.book(), nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) (books.Book, error) {
	oid, ok := objectID(id)
	if !ok {
		return books.Book{}, books.ErrNotFound
	}

	var doc bookDoc
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "availability": true}).Decode(&doc)
	if err == nil {
		return doc.book(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return books.Book{}, fmt.Errorf("delete book: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return books.Book{}, err
	}
	return books.Book{}, books.ErrOnLoan
}

// setAvailability flips availability only when it currently equals !to.
// It reports false when another writer got there first.
func (r *BookRepository) setAvailability(ctx context.Context, oid primitive.ObjectID, to bool, ts time.Time) (books.Book, bool, error) {
	var doc bookDoc
	filter := bson.M{"_id": oid, "availability": !to}
	update := bson.M{"$set": bson.M{"availability": to, "updated_at": ts}}
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return books.Book{}, false, nil
		}
		return books.Book{}, false, err
	}
	return doc.book(), true, nil
}

func (r *BookRepository) find(ctx context.Context, op string, filter bson.M, offset, limit int) ([]books.Book, error) {
	cur, err := r.coll.Find(ctx, filter, findOptions(offset, limit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	list := make([]books.Book, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.book())
	}
	return list, nil
}

var _ books.Repository = (*BookRepository)(nil)
