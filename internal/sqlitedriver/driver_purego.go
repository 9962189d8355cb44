//go:build !cgo_sqlite

// Package sqlitedriver selects the database/sql driver used to build
// and cross-check fixtures against a real SQLite implementation.
// The default is the pure-Go modernc.org/sqlite port; build with
// -tags cgo_sqlite for the CGO driver.
package sqlitedriver

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	// Name is the database/sql driver name to open.
	Name = "sqlite"
	// Type identifies which implementation is linked in.
	Type = "purego"
)
