package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// DriverPgx selects pgx's database/sql adapter.
const DriverPgx = "pgx"

// Options configures the SQL database connection.
type Options struct {
	Driver          string
	DSN             string
	ApplicationName string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Logger          *slog.Logger
	PingTimeout     time.Duration
	// ConnectAttempts bounds the initial ping retries. Zero means one try.
	ConnectAttempts int
	RetryDelay      time.Duration
}

const (
	defaultPingTimeout = 5 * time.Second
	defaultRetryDelay  = time.Second
)

// DB wraps *sql.DB to centralize lifecycle management.
type DB struct {
	*sql.DB
	logger *slog.Logger
}

// Connect opens a pooled connection and waits until the server answers a
// ping, retrying up to opts.ConnectAttempts times.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	if opts.Driver == "" {
		return nil, errors.New("database driver is required")
	}
	if opts.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	pool, target, err := open(opts)
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	db := &DB{DB: pool, logger: log}
	if err := db.waitReady(ctx, opts, target); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("database connected", append([]any{"driver", opts.Driver}, target...)...)
	return db, nil
}

// open builds the pool. pgx DSNs are parsed up front so a malformed URL
// fails before any dial, and so logs can name the target without the
// password.
func open(opts Options) (*sql.DB, []any, error) {
	if opts.Driver != DriverPgx {
		pool, err := sql.Open(opts.Driver, opts.DSN)
		return pool, nil, err
	}

	cfg, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.ApplicationName != "" {
		cfg.RuntimeParams["application_name"] = opts.ApplicationName
	}
	target := []any{"host", cfg.Host, "port", cfg.Port, "database", cfg.Database}
	return stdlib.OpenDB(*cfg), target, nil
}

func (db *DB) waitReady(ctx context.Context, opts Options, target []any) error {
	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	attempts := max(opts.ConnectAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		db.logger.Warn("database not ready", append([]any{"attempt", attempt, "err", err}, target...)...)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("ping database: %w", err)
}

// Health pings the database. It backs the readiness probe.
func (db *DB) Health(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return errors.New("database not connected")
	}
	return db.PingContext(ctx)
}

// Close releases database resources.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// RunMigrations applies pending schema migrations.
func (db *DB) RunMigrations(ctx context.Context, migrator Migrator) error {
	if migrator == nil {
		db.logger.Info("no migrator configured; skipping migrations")
		return nil
	}

	db.logger.Info("running migrations")
	if err := migrator.Up(ctx); err != nil {
		return err
	}

	db.logger.Info("migrations completed")
	return nil
}
