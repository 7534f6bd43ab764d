// Package migrations embeds the goose SQL migrations.
package migrations

import "embed"

// FS holds every migration file shipped with the binary.
//
//go:embed *.sql
var FS embed.FS
