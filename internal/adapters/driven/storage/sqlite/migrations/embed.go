// Package migrations embeds the versioned schema files for the lesson store.
package migrations

import "embed"

// FS holds the numbered up/down SQL files applied in order at open time.
//
//go:embed *.sql
var FS embed.FS
