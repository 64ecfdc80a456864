// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql migrations, applied in file name order.
//
//go:embed *.up.sql
var FS embed.FS
