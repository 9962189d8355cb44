package btree

import (
	"fmt"

	lferrors "github.com/driftdb/litefile/core/errors"
)

// MaxBtreeDepth bounds the traversal depth to protect against corrupt
// databases with page-reference cycles.
const MaxBtreeDepth = 20

// cursorFrame records one level of the path from the root to the
// current position.
type cursorFrame struct {
	pageNum uint32
	data    []byte
	header  *PageHeader

	// slot meaning depends on the page kind:
	//   leaf page:     index of the current cell
	//   interior page: child slot the cursor is inside (0..NumCells,
	//                  where NumCells is the right-most child), or the
	//                  cell the cursor is positioned at when the cursor
	//                  is atCell (index trees only)
	slot int
}

// Cursor walks a table or index b-tree in key order.
//
// Usage:
//
//	cur := btree.NewCursor(bt, rootPage)
//	for err = cur.MoveToFirst(); err == nil && cur.Valid(); err = cur.Next() {
//	    ...
//	}
type Cursor struct {
	bt    *Btree
	root  uint32
	stack []*cursorFrame

	valid  bool
	atCell bool // positioned at an interior cell (index trees)
	cell   *CellInfo
}

// NewCursor creates a cursor for the b-tree rooted at rootPage.
func NewCursor(bt *Btree, rootPage uint32) *Cursor {
	return &Cursor{bt: bt, root: rootPage}
}

// Valid reports whether the cursor points at an entry.
func (c *Cursor) Valid() bool {
	return c.valid
}

// Rowid returns the rowid of the current entry (table trees).
func (c *Cursor) Rowid() int64 {
	return c.cell.Key
}

// Cell returns the parsed cell at the current position.
func (c *Cursor) Cell() *CellInfo {
	return c.cell
}

// Payload returns the full payload of the current entry, following
// overflow pages when necessary.
func (c *Cursor) Payload() ([]byte, error) {
	if !c.valid {
		return nil, fmt.Errorf("cursor not in valid state")
	}
	return c.bt.AssemblePayload(c.cell)
}

func (c *Cursor) reset() {
	c.stack = c.stack[:0]
	c.valid = false
	c.atCell = false
	c.cell = nil
}

// pushPage reads a page and pushes a frame for it onto the path stack.
func (c *Cursor) pushPage(pgno uint32) (*cursorFrame, error) {
	if len(c.stack) >= MaxBtreeDepth {
		return nil, &lferrors.CorruptError{Page: pgno, Detail: "b-tree deeper than maximum (page cycle?)"}
	}

	data, err := c.bt.Page(pgno)
	if err != nil {
		return nil, fmt.Errorf("failed to get page %d: %w", pgno, err)
	}
	header, err := ParsePageHeader(data, pgno)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %d: %w", pgno, err)
	}

	f := &cursorFrame{pageNum: pgno, data: data, header: header}
	c.stack = append(c.stack, f)
	return f, nil
}

func (c *Cursor) top() *cursorFrame {
	return c.stack[len(c.stack)-1]
}

// loadCell parses the cell at the top frame's slot into the cursor.
func (c *Cursor) loadCell() error {
	f := c.top()
	cell, err := f.header.Cell(f.data, f.slot, c.bt.UsableSize())
	if err != nil {
		c.valid = false
		return fmt.Errorf("page %d cell %d: %w", f.pageNum, f.slot, err)
	}
	c.cell = cell
	c.valid = true
	return nil
}

// MoveToFirst moves the cursor to the first entry in key order.
// An empty tree leaves the cursor invalid without error.
func (c *Cursor) MoveToFirst() error {
	c.reset()
	return c.descendToFirst(c.root)
}

// descendToFirst descends to the first in-order entry at or below pgno.
func (c *Cursor) descendToFirst(pgno uint32) error {
	for {
		f, err := c.pushPage(pgno)
		if err != nil {
			return err
		}

		if f.header.IsLeaf {
			if f.header.NumCells == 0 {
				// Empty leaf. Legal only for an empty root; otherwise keep
				// ascending so an odd-but-readable file still traverses.
				return c.ascend()
			}
			f.slot = 0
			return c.loadCell()
		}

		// Interior page: follow the left-most child. An interior page with
		// no cells still has a right-most child.
		f.slot = 0
		pgno, err = f.header.ChildPage(f.data, 0, c.bt.UsableSize())
		if err != nil {
			return fmt.Errorf("page %d: %w", f.pageNum, err)
		}
	}
}

// Next moves the cursor to the next entry in key order.
// Reaching the end leaves the cursor invalid without error.
func (c *Cursor) Next() error {
	if !c.valid {
		return fmt.Errorf("cursor not in valid state")
	}

	f := c.top()

	if c.atCell {
		// Positioned at an interior index cell: the next entries live in
		// the child subtree to its right.
		c.atCell = false
		f.slot++
		child, err := f.header.ChildPage(f.data, f.slot, c.bt.UsableSize())
		if err != nil {
			c.valid = false
			return fmt.Errorf("page %d: %w", f.pageNum, err)
		}
		return c.descendToFirst(child)
	}

	// Leaf position: advance within the page if possible.
	if f.slot+1 < int(f.header.NumCells) {
		f.slot++
		return c.loadCell()
	}

	return c.ascend()
}

// ascend pops the exhausted top frame and resumes in-order traversal in
// an ancestor: index interior cells are visited between their children,
// table interior pages only route to the next child.
func (c *Cursor) ascend() error {
	c.stack = c.stack[:len(c.stack)-1]

	for len(c.stack) > 0 {
		f := c.top()

		if f.header.IsIndex && f.slot < int(f.header.NumCells) {
			// Visit the separator cell after finishing its left subtree.
			c.atCell = true
			return c.loadCell()
		}

		if f.header.IsTable && f.slot < int(f.header.NumCells) {
			// Move to the next child; slot NumCells is the right-most child.
			f.slot++
			child, err := f.header.ChildPage(f.data, f.slot, c.bt.UsableSize())
			if err != nil {
				c.valid = false
				return fmt.Errorf("page %d: %w", f.pageNum, err)
			}
			return c.descendToFirst(child)
		}

		c.stack = c.stack[:len(c.stack)-1]
	}

	// End of tree
	c.valid = false
	return nil
}

// SeekRowid positions the cursor at the table entry with the given
// rowid. Returns false with the cursor invalid if no such row exists.
func (c *Cursor) SeekRowid(rowid int64) (bool, error) {
	c.reset()

	pgno := c.root
	for {
		f, err := c.pushPage(pgno)
		if err != nil {
			return false, err
		}
		if !f.header.IsTable {
			return false, fmt.Errorf("page %d: rowid seek on non-table page", f.pageNum)
		}

		if f.header.IsLeaf {
			idx, found, err := c.searchLeafRowid(f, rowid)
			if err != nil {
				return false, err
			}
			if !found {
				c.valid = false
				return false, nil
			}
			f.slot = idx
			if err := c.loadCell(); err != nil {
				return false, err
			}
			return true, nil
		}

		// Interior page: the left child of a cell holds keys <= the cell
		// key. Descend the first child that can contain the rowid.
		slot, err := c.searchInteriorRowid(f, rowid)
		if err != nil {
			return false, err
		}
		f.slot = slot
		pgno, err = f.header.ChildPage(f.data, slot, c.bt.UsableSize())
		if err != nil {
			return false, fmt.Errorf("page %d: %w", f.pageNum, err)
		}
	}
}

// searchLeafRowid binary-searches a leaf page for an exact rowid match.
func (c *Cursor) searchLeafRowid(f *cursorFrame, rowid int64) (int, bool, error) {
	lo, hi := 0, int(f.header.NumCells)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		cell, err := f.header.Cell(f.data, mid, c.bt.UsableSize())
		if err != nil {
			return 0, false, fmt.Errorf("page %d cell %d: %w", f.pageNum, mid, err)
		}
		switch {
		case cell.Key == rowid:
			return mid, true, nil
		case cell.Key < rowid:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false, nil
}

// searchInteriorRowid returns the child slot to descend for rowid:
// the first cell whose key is >= rowid, or the right-most child when
// every cell key is smaller.
func (c *Cursor) searchInteriorRowid(f *cursorFrame, rowid int64) (int, error) {
	lo, hi := 0, int(f.header.NumCells)
	for lo < hi {
		mid := (lo + hi) / 2
		cell, err := f.header.Cell(f.data, mid, c.bt.UsableSize())
		if err != nil {
			return 0, fmt.Errorf("page %d cell %d: %w", f.pageNum, mid, err)
		}
		if cell.Key < rowid {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// SeekIndexGE positions the cursor at the smallest index entry whose
// payload compares greater-or-equal per cmp. cmp receives a full entry
// payload and returns <0, 0, or >0 for entry<target, equal, entry>target.
// If no entry qualifies the cursor is left invalid without error.
func (c *Cursor) SeekIndexGE(cmp func(payload []byte) (int, error)) error {
	c.reset()

	// Best interior candidate seen on the way down: the shallowest cell
	// that compares >= target and whose left subtree turned up nothing.
	candDepth := -1
	candSlot := 0

	pgno := c.root
	for {
		f, err := c.pushPage(pgno)
		if err != nil {
			return err
		}
		if !f.header.IsIndex {
			return fmt.Errorf("page %d: index seek on non-index page", f.pageNum)
		}

		idx, found, err := c.searchGE(f, cmp)
		if err != nil {
			return err
		}

		if f.header.IsLeaf {
			if found {
				f.slot = idx
				return c.loadCell()
			}
			if candDepth >= 0 {
				// Unwind to the remembered separator cell: it is the
				// smallest entry >= target.
				c.stack = c.stack[:candDepth+1]
				top := c.top()
				top.slot = candSlot
				c.atCell = true
				return c.loadCell()
			}
			c.valid = false
			return nil
		}

		if found {
			candDepth = len(c.stack) - 1
			candSlot = idx
			f.slot = idx
		} else {
			f.slot = int(f.header.NumCells)
		}
		pgno, err = f.header.ChildPage(f.data, f.slot, c.bt.UsableSize())
		if err != nil {
			return fmt.Errorf("page %d: %w", f.pageNum, err)
		}
	}
}

// searchGE binary-searches a page for the first cell with cmp >= 0.
func (c *Cursor) searchGE(f *cursorFrame, cmp func(payload []byte) (int, error)) (int, bool, error) {
	lo, hi := 0, int(f.header.NumCells)
	for lo < hi {
		mid := (lo + hi) / 2
		cell, err := f.header.Cell(f.data, mid, c.bt.UsableSize())
		if err != nil {
			return 0, false, fmt.Errorf("page %d cell %d: %w", f.pageNum, mid, err)
		}
		payload, err := c.bt.AssemblePayload(cell)
		if err != nil {
			return 0, false, err
		}
		r, err := cmp(payload)
		if err != nil {
			return 0, false, err
		}
		if r < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < int(f.header.NumCells), nil
}
