// Package migrations holds the SQL schema migrations applied at server startup.
package migrations

import "embed"

// FS contains the migration files, laid out per database driver.
//
//go:embed postgres/*.sql
var FS embed.FS
