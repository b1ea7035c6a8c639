// Package db carries the goose migrations so the binaries and tests can apply
// them without a checkout on disk.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the SQL files.
const MigrationsDir = "migrations"
