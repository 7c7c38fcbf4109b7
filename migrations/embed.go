// Package migrations embeds the SQL schema applied by cmd/migrate and, optionally, the API on start.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
