// Package migrations embeds the SQL schema migrations for the catalog
// database so the migrate command works without a checkout.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS
