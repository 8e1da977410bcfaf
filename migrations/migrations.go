// Package migrations embeds the tern schema migrations.
package migrations

import "embed"

//go:embed *.sql
var MigrationFiles embed.FS
