// Package migrations embeds the SQL schema for the server, tests and tooling.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
