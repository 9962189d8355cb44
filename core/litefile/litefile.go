// Package litefile is the read-only SQLite database file reader: it
// ties the pager, b-tree, record, and schema layers together behind a
// small API for inspecting and querying database files.
package litefile

import (
	"fmt"
	"io"

	"github.com/driftdb/litefile/core/btree"
	lferrors "github.com/driftdb/litefile/core/errors"
	"github.com/driftdb/litefile/core/format"
	"github.com/driftdb/litefile/core/pager"
	"github.com/driftdb/litefile/core/schema"
	"github.com/driftdb/litefile/internal/logging"
)

// DB is an open database file.
type DB struct {
	pager   *pager.Pager
	bt      *btree.Btree
	catalog *schema.Catalog
}

// Open opens a database file for reading.
func Open(path string) (*DB, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}
	db, err := newDB(p)
	if err != nil {
		p.Close()
		return nil, err
	}
	logging.DatabaseOpen(path, p.PageSize(), p.PageCount())
	return db, nil
}

// New opens a database from an in-memory or otherwise seekable source.
func New(r io.ReaderAt, size int64) (*DB, error) {
	p, err := pager.New(r, size)
	if err != nil {
		return nil, err
	}
	db, err := newDB(p)
	if err != nil {
		p.Close()
		return nil, err
	}
	return db, nil
}

func newDB(p *pager.Pager) (*DB, error) {
	// Text decoding assumes UTF-8 throughout; refuse the UTF-16 variants
	// up front rather than returning garbled strings.
	if enc := p.Header().TextEncoding; enc != format.EncodingUTF8 {
		return nil, fmt.Errorf("%w: text encoding %s", lferrors.ErrUnsupported, p.Header().EncodingName())
	}

	bt := btree.New(p)
	cat, err := schema.Load(bt)
	if err != nil {
		return nil, err
	}

	return &DB{pager: p, bt: bt, catalog: cat}, nil
}

// Close releases the underlying file.
func (db *DB) Close() error {
	return db.pager.Close()
}

// Header returns the parsed file header.
func (db *DB) Header() *format.Header {
	return db.pager.Header()
}

// Catalog returns the parsed schema catalog.
func (db *DB) Catalog() *schema.Catalog {
	return db.catalog
}

// Info summarizes the database the way `.dbinfo` does.
type Info struct {
	PageSize      int
	ReservedBytes uint8
	PageCount     uint32
	FreelistPages uint32
	SchemaFormat  uint32
	SchemaCookie  uint32
	TextEncoding  string
	UserVersion   uint32

	Tables   int
	Indexes  int
	Views    int
	Triggers int
}

// Info returns header fields and catalog counts.
func (db *DB) Info() Info {
	h := db.pager.Header()
	return Info{
		PageSize:      h.GetPageSize(),
		ReservedBytes: h.ReservedSpace,
		PageCount:     db.pager.PageCount(),
		FreelistPages: h.FreelistCount,
		SchemaFormat:  h.SchemaFormat,
		SchemaCookie:  h.SchemaCookie,
		TextEncoding:  h.EncodingName(),
		UserVersion:   h.UserVersion,

		Tables:   db.catalog.Count(schema.TypeTable),
		Indexes:  db.catalog.Count(schema.TypeIndex),
		Views:    db.catalog.Count(schema.TypeView),
		Triggers: db.catalog.Count(schema.TypeTrigger),
	}
}

// TableNames returns the names of user tables, sorted.
func (db *DB) TableNames() []string {
	return db.catalog.TableNames()
}

// SchemaSQL returns the stored DDL of every user object, in schema
// order. Objects without stored SQL (auto-created indexes) are skipped.
func (db *DB) SchemaSQL() []string {
	var out []string
	for _, obj := range db.catalog.Objects() {
		if obj.Internal() || obj.SQL == "" {
			continue
		}
		out = append(out, obj.SQL)
	}
	return out
}
