package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bibliotheca/bibliotheca/internal/domain/users"
)

type userDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	FirstName     string             `bson:"first_name"`
	LastName      string             `bson:"last_name"`
	Email         string             `bson:"email"`
	BirthDate     string             `bson:"birth_date"`
	BorrowedBooks []string           `bson:"borrowed_books"`
	Role          string             `bson:"role"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func (d userDoc) user() users.User {
	held := d.BorrowedBooks
	if held == nil {
		held = []string{}
	}
	return users.User{
		ID:            d.ID.Hex(),
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		BirthDate:     d.BirthDate,
		BorrowedBooks: held,
		Role:          d.Role,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// UserRepository stores members in the "users" collection. A unique index
// on email enforces uniqueness.
type UserRepository struct {
	coll *mongo.Collection
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (users.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (users.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("find user: %w", err)
	}
	return doc.user(), nil
}

func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]users.User, error) {
	return r.find(ctx, "list users", bson.M{}, offset, limit)
}

func (r *UserRepository) Search(ctx context.Context, q users.Query) ([]users.User, error) {
	filter := bson.M{}
	if q.FirstName != nil {
		filter["first_name"] = *q.FirstName
	}
	if q.LastName != nil {
		filter["last_name"] = *q.LastName
	}
	if q.Email != nil {
		filter["email"] = strings.ToLower(*q.Email)
	}
	return r.find(ctx, "search users", filter, 0, 0)
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	ts := now()
	doc := userDoc{
		ID:            primitive.NewObjectID(),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         strings.ToLower(user.Email),
		BirthDate:     user.BirthDate,
		BorrowedBooks: []string{},
		Role:          user.Role,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return users.User{}, users.ErrEmailExists
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return doc.user(), nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch users.Patch) (users.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return users.User{}, users.ErrNotFound
	}

	set := bson.M{"updated_at": now()}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = strings.ToLower(*patch.Email)
	}
	if patch.BirthDate != nil {
		set["birth_date"] = *patch.BirthDate
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}

	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, afterUpdate()).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return users.User{}, users.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return users.User{}, users.ErrEmailExists
		}
		return users.User{}, fmt.Errorf("update user: %w", err)
	}
	return doc.user(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (users.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return users.User{}, users.ErrNotFound
	}

	filter := bson.M{"_id": oid, "borrowed_books": bson.M{"$size": 0}}
	var doc userDoc
	err := r.coll.FindOneAndDelete(ctx, filter).Decode(&doc)
	if err == nil {
		return doc.user(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return users.User{}, fmt.Errorf("delete user: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return users.User{}, err
	}
	return users.User{}, users.ErrHasLoans
}

// addLoan appends bookID to the user's loans.
func (r *UserRepository) addLoan(ctx context.Context, oid primitive.ObjectID, bookID string, ts time.Time) (users.User, error) {
	update := bson.M{
		"$addToSet": bson.M{"borrowed_books": bookID},
		"$set":      bson.M{"updated_at": ts},
	}
	return r.modify(ctx, bson.M{"_id": oid}, update)
}

// removeLoan drops bookID from the user's loans. It returns
// users.ErrNotFound when the user does not hold the book.
func (r *UserRepository) removeLoan(ctx context.Context, oid primitive.ObjectID, bookID string, ts time.Time) (users.User, error) {
	update := bson.M{
		"$pull": bson.M{"borrowed_books": bookID},
		"$set":  bson.M{"updated_at": ts},
	}
	return r.modify(ctx, bson.M{"_id": oid, "borrowed_books": bookID}, update)
}

func (r *UserRepository) modify(ctx context.Context, filter, update bson.M) (users.User, error) {
	var doc userDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return doc.user(), nil
}

func (r *UserRepository) find(ctx context.Context, op string, filter bson.M, offset, limit int) ([]users.User, error) {
	cur, err := r.coll.Find(ctx, filter, findOptions(offset, limit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	list := make([]users.User, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.user())
	}
	return list, nil
}

var _ users.Repository = (*UserRepository)(nil)
