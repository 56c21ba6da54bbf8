//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/bibliotheca/bibliotheca/internal/database"
)

// setupTestDB connects to TEST_DATABASE_URL, applies the embedded schema and
// empties every table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.Options{
		Driver:          database.DriverPgx,
		DSN:             dsn,
		ApplicationName: "bibliotheca-test",
		ConnectAttempts: 3,
		RetryDelay:      500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), database.MigrationsDir, nil)
	if err := db.RunMigrations(ctx, migrator); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := db.ExecContext(ctx, `TRUNCATE loans, comments, books, users, genres CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return db.DB
}
