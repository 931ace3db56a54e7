// Package migrations embeds the catalog's schema migrations for goose.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
