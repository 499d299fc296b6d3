// Package migrations embeds the image metadata schema.
package migrations

import "embed"

// FS contains the SQLite migrations for image metadata.
//
//go:embed *.sql
var FS embed.FS
