// Package migrations embeds the seed scripts for the lab tables.
// Files are named <version>_<table>.up.sql.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
