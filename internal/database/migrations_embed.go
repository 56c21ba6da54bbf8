package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// MigrationsDir is the directory inside MigrationsFS holding the schema.
const MigrationsDir = "migrations"

// MigrationsFS returns the compiled-in schema migrations.
func MigrationsFS() fs.FS {
	return migrations
}
