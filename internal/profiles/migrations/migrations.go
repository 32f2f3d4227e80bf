// Package migrations embeds the SQL migrations of the profile registry.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
