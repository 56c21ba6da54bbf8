// Package mongodb implements the domain repositories on a MongoDB database.
// Documents are keyed by ObjectID and exposed to the domain as hex strings.
package mongodb

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	booksCollection    = "books"
	usersCollection    = "users"
	genresCollection   = "genres"
	commentsCollection = "comments"
)

// Options configures the MongoDB connection.
type Options struct {
	URI         string
	Database    string
	Logger      *slog.Logger
	PingTimeout time.Duration
}

const defaultPingTimeout = 5 * time.Second

// Store owns the client and hands out repositories bound to one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// Connect dials MongoDB, verifies the primary is reachable and ensures the
// indexes the repositories rely on.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New("mongo URI is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongo database name is required")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, err
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := &Store{client: client, db: client.Database(opts.Database), logger: log}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("mongo connected", "database", opts.Database)
	return s, nil
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		genresCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		booksCollection: {
			{Keys: bson.D{{Key: "genre_id", Value: 1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "book_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	s.logger.Info("mongo disconnected", "database", s.db.Name())
	return nil
}

// Drop removes every collection and recreates the indexes. Integration
// tests use it to start from an empty database.
func (s *Store) Drop(ctx context.Context) error {
	for _, name := range []string{booksCollection, usersCollection, genresCollection, commentsCollection} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	s.logger.Warn("mongo collections dropped", "database", s.db.Name())
	return s.EnsureIndexes(ctx)
}

func (s *Store) Books() *BookRepository {
	return &BookRepository{coll: s.db.Collection(booksCollection)}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Genres() *GenreRepository {
	return &GenreRepository{coll: s.db.Collection(genresCollection)}
}

func (s *Store) Comments() *CommentRepository {
	return &CommentRepository{coll: s.db.Collection(commentsCollection)}
}

func (s *Store) Loans() *LoanRepository {
	return &LoanRepository{books: s.Books(), users: s.Users()}
}

// objectID parses a hex id. ok is false for anything that cannot name a
// document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

// findOptions sorts by creation and applies offset/limit; limit 0 means no limit.
func findOptions(offset, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// now truncates to the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
