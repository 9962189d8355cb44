//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
// This is used when the cgo_sqlite build tag is set.
//
// Build with: go test -tags cgo_sqlite
// Requires: CGO_ENABLED=1
package sqlitedriver

import (
	_ "github.com/mattn/go-sqlite3" // CGO SQLite driver
)

const (
	// Name is the database/sql driver name to open.
	Name = "sqlite3"
	// Type identifies which implementation is linked in.
	Type = "cgo"
)
