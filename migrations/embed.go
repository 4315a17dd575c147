// Package migrations embeds the SQL schema migrations so the server
// binary can apply them without a checkout of the repository.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
