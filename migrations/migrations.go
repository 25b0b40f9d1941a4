// Package migrations embeds the schema applied at start-up by
// database.RunMigrations.
package migrations

import "embed"

// FS holds the *.up.sql files, applied in name order.
//
//go:embed *.up.sql
var FS embed.FS
