package db

import "embed"

// MigrationsFS holds the tally schema migrations.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
