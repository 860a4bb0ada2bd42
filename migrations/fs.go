// Package migrations embeds the SQL schema migrations so the migrate binary
// ships without loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
