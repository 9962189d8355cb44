package btree

import (
	"encoding/binary"
	"fmt"

	lferrors "github.com/driftdb/litefile/core/errors"
	"github.com/driftdb/litefile/core/format"
)

// Page type flags (bit flags in page type byte)
const (
	PTF_INTKEY   = 0x01 // True for table b-trees (integer key)
	PTF_ZERODATA = 0x02 // True for index b-trees (no data, only keys)
	PTF_LEAFDATA = 0x04 // True if data is stored in leaves
	PTF_LEAF     = 0x08 // True if this is a leaf page
)

// PageHeader represents the parsed header of a B-tree page
type PageHeader struct {
	PageType         byte   // Page type (0x02, 0x05, 0x0a, 0x0d)
	FirstFreeblock   uint16 // Offset to first freeblock (0 if none)
	NumCells         uint16 // Number of cells on this page
	CellContentStart uint16 // Start of cell content area
	FragmentedBytes  byte   // Number of fragmented free bytes
	RightChild       uint32 // Right-most child page number (interior pages only)

	// Derived properties
	IsLeaf        bool // True if this is a leaf page
	IsInterior    bool // True if this is an interior page
	IsTable       bool // True if this is a table b-tree (intkey)
	IsIndex       bool // True if this is an index b-tree (blob key)
	HeaderSize    int  // Size of page header (8 or 12 bytes)
	CellPtrOffset int  // Offset where cell pointer array starts
}

// ParsePageHeader parses the B-tree page header from raw page data.
// Page 1 carries the 100-byte file header before the page header.
func ParsePageHeader(data []byte, pageNum uint32) (*PageHeader, error) {
	if len(data) < format.BtreeHeaderSizeLeaf {
		return nil, &lferrors.CorruptError{Page: pageNum, Detail: fmt.Sprintf("page data too small: %d bytes", len(data))}
	}

	offset := 0
	if pageNum == 1 {
		offset = format.HeaderSize
		if len(data) < format.HeaderSize+format.BtreeHeaderSizeLeaf {
			return nil, &lferrors.CorruptError{Page: pageNum, Detail: fmt.Sprintf("page 1 data too small: %d bytes", len(data))}
		}
	}

	h := &PageHeader{
		PageType:         data[offset+format.BtreePageType],
		FirstFreeblock:   binary.BigEndian.Uint16(data[offset+format.BtreeFirstFreeblock:]),
		NumCells:         binary.BigEndian.Uint16(data[offset+format.BtreeCellCount:]),
		CellContentStart: binary.BigEndian.Uint16(data[offset+format.BtreeCellContentStart:]),
		FragmentedBytes:  data[offset+format.BtreeFragmentedBytes],
	}

	// Validate page type
	switch h.PageType {
	case format.PageTypeInteriorIndex, format.PageTypeInteriorTable,
		format.PageTypeLeafIndex, format.PageTypeLeafTable:
	default:
		return nil, &lferrors.CorruptError{Page: pageNum, Detail: fmt.Sprintf("invalid page type: 0x%02x", h.PageType)}
	}

	// Determine page characteristics from type byte
	h.IsLeaf = (h.PageType & PTF_LEAF) != 0
	h.IsInterior = !h.IsLeaf
	h.IsTable = (h.PageType & PTF_INTKEY) != 0
	h.IsIndex = !h.IsTable

	// Parse right child pointer for interior pages
	if h.IsInterior {
		if len(data) < offset+format.BtreeHeaderSizeInterior {
			return nil, &lferrors.CorruptError{Page: pageNum, Detail: fmt.Sprintf("interior page data too small: %d bytes", len(data))}
		}
		h.RightChild = binary.BigEndian.Uint32(data[offset+format.BtreeRightmostPointer:])
		h.HeaderSize = format.BtreeHeaderSizeInterior
	} else {
		h.HeaderSize = format.BtreeHeaderSizeLeaf
	}

	h.CellPtrOffset = offset + h.HeaderSize

	return h, nil
}

// GetCellPointer returns the offset of the i-th cell in the page
func (h *PageHeader) GetCellPointer(data []byte, cellIndex int) (uint16, error) {
	if cellIndex < 0 || cellIndex >= int(h.NumCells) {
		return 0, fmt.Errorf("cell index out of range: %d (max %d)", cellIndex, int(h.NumCells)-1)
	}

	ptrOffset := h.CellPtrOffset + (cellIndex * 2)
	if ptrOffset+2 > len(data) {
		return 0, fmt.Errorf("cell pointer offset out of bounds: %d", ptrOffset)
	}

	return binary.BigEndian.Uint16(data[ptrOffset:]), nil
}

// GetCellPointers returns all cell pointers in the page
func (h *PageHeader) GetCellPointers(data []byte) ([]uint16, error) {
	pointers := make([]uint16, h.NumCells)
	for i := 0; i < int(h.NumCells); i++ {
		ptr, err := h.GetCellPointer(data, i)
		if err != nil {
			return nil, err
		}
		pointers[i] = ptr
	}
	return pointers, nil
}

// Cell parses and returns the i-th cell on the page.
func (h *PageHeader) Cell(data []byte, cellIndex int, usableSize uint32) (*CellInfo, error) {
	offset, err := h.GetCellPointer(data, cellIndex)
	if err != nil {
		return nil, err
	}
	if int(offset) >= len(data) {
		return nil, fmt.Errorf("cell offset out of bounds: %d", offset)
	}
	return ParseCell(h.PageType, data[offset:], usableSize)
}

// ChildPage returns the page number of the child at the given slot.
// Slots 0..NumCells-1 are the left children of the cells; slot NumCells
// is the right-most child.
func (h *PageHeader) ChildPage(data []byte, slot int, usableSize uint32) (uint32, error) {
	if !h.IsInterior {
		return 0, fmt.Errorf("leaf page has no children")
	}
	if slot == int(h.NumCells) {
		return h.RightChild, nil
	}
	cell, err := h.Cell(data, slot, usableSize)
	if err != nil {
		return 0, err
	}
	return cell.ChildPage, nil
}

// String returns a string representation of the page header
func (h *PageHeader) String() string {
	pageTypeStr := "unknown"
	switch h.PageType {
	case format.PageTypeInteriorIndex:
		pageTypeStr = "interior index"
	case format.PageTypeInteriorTable:
		pageTypeStr = "interior table"
	case format.PageTypeLeafIndex:
		pageTypeStr = "leaf index"
	case format.PageTypeLeafTable:
		pageTypeStr = "leaf table"
	}

	return fmt.Sprintf("PageHeader{type=%s, cells=%d, contentStart=%d, freeblock=%d, fragmented=%d}",
		pageTypeStr, h.NumCells, h.CellContentStart, h.FirstFreeblock, h.FragmentedBytes)
}
