// Package migrations embeds the schemas for the SQL cache backends.
package migrations

import "embed"

// FS holds the PostgreSQL migrations.
//
//go:embed *.sql
var FS embed.FS

// SQLiteFS holds the SQLite migrations under sqlite/.
//
//go:embed sqlite/*.sql
var SQLiteFS embed.FS
