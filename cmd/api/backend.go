package main

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/bibliotheca/bibliotheca/internal/config"
	"github.com/bibliotheca/bibliotheca/internal/database"
	"github.com/bibliotheca/bibliotheca/internal/domain"
	"github.com/bibliotheca/bibliotheca/internal/domain/loans"
	"github.com/bibliotheca/bibliotheca/internal/storage/memory"
	"github.com/bibliotheca/bibliotheca/internal/storage/mongodb"
	pgstorage "github.com/bibliotheca/bibliotheca/internal/storage/postgres"
)

// backend is an initialized domain container plus the resources behind it.
type backend struct {
	domain.Container
	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping reports whether the storage behind the container is reachable.
func (b *backend) Ping(ctx context.Context) error {
	if b == nil || b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

func (b *backend) Close(ctx context.Context) error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// openBackend connects the storage selected by DATA_BACKEND and wires the
// domain container over it.
func openBackend(ctx context.Context, cfg config.Config, logr *slog.Logger, rec loans.Recorder) (*backend, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		logr.Info("using in-memory repositories (DATA_BACKEND=memory)")
		bookRepo := memory.NewBookRepository()
		userRepo := memory.NewUserRepository()
		return &backend{Container: domain.New(domain.Options{
			BookRepo:     bookRepo,
			UserRepo:     userRepo,
			GenreRepo:    memory.NewGenreRepository(),
			CommentRepo:  memory.NewCommentRepository(),
			LoanRepo:     memory.NewLoanRepository(bookRepo, userRepo),
			LoanRecorder: rec,
		})}, nil

	case config.BackendPostgres:
		db, err := database.Connect(ctx, database.Options{
			Driver:          cfg.DatabaseDriver,
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
			ApplicationName: "bibliotheca",
			ConnectAttempts: cfg.DBConnectAttempts,
			RetryDelay:      cfg.DBRetryDelay,
			Logger:          logr,
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}

		migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), database.MigrationsDir, logr)
		if err := db.RunMigrations(ctx, migrator); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database migrations: %w", err)
		}

		logr.Info("using postgres repositories (DATA_BACKEND=postgres)")
		sqlDB := db.DB
		return &backend{
			Container: domain.New(domain.Options{
				BookRepo:     pgstorage.NewBookRepository(sqlDB),
				UserRepo:     pgstorage.NewUserRepository(sqlDB),
				GenreRepo:    pgstorage.NewGenreRepository(sqlDB),
				CommentRepo:  pgstorage.NewCommentRepository(sqlDB),
				LoanRepo:     pgstorage.NewLoanRepository(sqlDB),
				LoanRecorder: rec,
			}),
			ping:  db.Health,
			close: func(context.Context) error { return db.Close() },
		}, nil

	case config.BackendMongo:
		store, err := mongodb.Connect(ctx, mongodb.Options{
			URI:      cfg.MongoURL,
			Database: cfg.DBName,
			Logger:   logr,
		})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}

		logr.Info("using mongo repositories (DATA_BACKEND=mongo)")
		return &backend{
			Container: domain.New(domain.Options{
				BookRepo:     store.Books(),
				UserRepo:     store.Users(),
				GenreRepo:    store.Genres(),
				CommentRepo:  store.Comments(),
				LoanRepo:     store.Loans(),
				LoanRecorder: rec,
			}),
			ping:  store.Ping,
			close: store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
