// Package btree implements read-only traversal of SQLite table and index b-trees.
//
// A table b-tree keys rows by 64-bit rowid and stores the row record in
// leaf cells. An index b-tree stores key records on both leaf and
// interior pages. The Cursor walks either kind in key order and
// reassembles payloads that spill onto overflow pages.
package btree

import (
	"github.com/driftdb/litefile/core/pager"
)

// Btree provides page access for cursors over a single database file.
type Btree struct {
	pager *pager.Pager
}

// New creates a Btree over the given pager.
func New(p *pager.Pager) *Btree {
	return &Btree{pager: p}
}

// Page returns the raw contents of page pgno.
func (b *Btree) Page(pgno uint32) ([]byte, error) {
	return b.pager.Page(pgno)
}

// UsableSize returns the usable bytes per page.
func (b *Btree) UsableSize() uint32 {
	return b.pager.UsableSize()
}

// PageCount returns the number of pages in the database.
func (b *Btree) PageCount() uint32 {
	return b.pager.PageCount()
}
