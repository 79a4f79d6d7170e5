// Package db holds the embedded SQL schema.
package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
