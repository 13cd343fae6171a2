// Package migrations embeds the SQL schema migrations for the planner
// reviews service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
