// Package migrations embeds the goose SQL migrations so the binary can
// migrate the database without shipping the files alongside it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
