// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the CLI and server bootstrap.
//
// Each file is one schema version:
//
//	00001  stops and departures (single departure list per stop)
//	00002  departures.day_type, weekday|weekend, existing rows become weekday
//	00003  departures.annotation
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass this to goose.NewProvider instead of relying on
// a filesystem path at runtime.
//
//go:embed *.sql
var FS embed.FS
