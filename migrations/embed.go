// Package migrations holds the PostgreSQL schema applied by pg.Migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
