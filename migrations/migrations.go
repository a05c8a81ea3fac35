// Package migrations embeds the SQL schema migrations for both the local
// SQLite database and the remote Postgres sync target.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
