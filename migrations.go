package relaybot

import "embed"

// MigrationsFS holds the SQL history schema, one directory per dialect.
//
//go:embed migrations
var MigrationsFS embed.FS
