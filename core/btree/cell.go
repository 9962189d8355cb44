package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/driftdb/litefile/core/format"
)

// CellInfo contains parsed information about a B-tree cell
type CellInfo struct {
	Key          int64  // The integer key for table b-trees
	Payload      []byte // Local payload bytes (excluding overflow)
	PayloadSize  uint32 // Total bytes of payload including overflow
	LocalPayload uint16 // Amount of payload stored locally (not in overflow pages)
	CellSize     uint16 // Total size of cell on the page
	OverflowPage uint32 // First overflow page number (0 if none)
	ChildPage    uint32 // Child page number (interior pages only)
}

// ParseCell parses a cell from a B-tree page
func ParseCell(pageType byte, cellData []byte, usableSize uint32) (*CellInfo, error) {
	switch pageType {
	case format.PageTypeLeafTable:
		return parseTableLeafCell(cellData, usableSize)
	case format.PageTypeInteriorTable:
		return parseTableInteriorCell(cellData)
	case format.PageTypeLeafIndex:
		return parseIndexCell(cellData, usableSize, false)
	case format.PageTypeInteriorIndex:
		return parseIndexCell(cellData, usableSize, true)
	default:
		return nil, fmt.Errorf("invalid page type: 0x%02x", pageType)
	}
}

// parseTableLeafCell parses a table leaf cell
// Format: varint(payload_size), varint(rowid), payload, [overflow_page_number]
func parseTableLeafCell(cellData []byte, usableSize uint32) (*CellInfo, error) {
	if len(cellData) == 0 {
		return nil, fmt.Errorf("empty cell data")
	}

	info := &CellInfo{}
	offset := 0

	// Read payload size (varint)
	payloadSize64, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read payload size")
	}
	info.PayloadSize = uint32(payloadSize64)
	offset += n

	// Read rowid (varint)
	rowid, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read rowid")
	}
	info.Key = int64(rowid)
	offset += n

	return finishPayloadCell(info, cellData, offset, usableSize, true)
}

// parseTableInteriorCell parses a table interior cell
// Format: 4-byte child page number, varint(rowid)
func parseTableInteriorCell(cellData []byte) (*CellInfo, error) {
	if len(cellData) < 4 {
		return nil, fmt.Errorf("cell data too small for interior cell")
	}

	info := &CellInfo{}

	// Read child page number (4 bytes, big-endian)
	info.ChildPage = binary.BigEndian.Uint32(cellData[0:4])

	// Read rowid (varint)
	rowid, n := GetVarint(cellData[4:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read rowid")
	}
	info.Key = int64(rowid)
	info.CellSize = uint16(4 + n)

	return info, nil
}

// parseIndexCell parses an index leaf or interior cell.
// Leaf format: varint(payload_size), payload, [overflow_page_number]
// Interior format: 4-byte child page number, varint(payload_size), payload, [overflow_page_number]
func parseIndexCell(cellData []byte, usableSize uint32, interior bool) (*CellInfo, error) {
	if len(cellData) == 0 {
		return nil, fmt.Errorf("empty cell data")
	}

	info := &CellInfo{}
	offset := 0

	if interior {
		if len(cellData) < 4 {
			return nil, fmt.Errorf("cell data too small for interior cell")
		}
		info.ChildPage = binary.BigEndian.Uint32(cellData[0:4])
		offset = 4
	}

	// Read payload size (varint)
	payloadSize64, n := GetVarint(cellData[offset:])
	if n == 0 {
		return nil, fmt.Errorf("failed to read payload size")
	}
	info.PayloadSize = uint32(payloadSize64)
	offset += n

	return finishPayloadCell(info, cellData, offset, usableSize, false)
}

// finishPayloadCell computes the local/overflow payload split and fills
// in the payload slice, cell size, and overflow page.
func finishPayloadCell(info *CellInfo, cellData []byte, offset int, usableSize uint32, isTable bool) (*CellInfo, error) {
	maxLocal := MaxLocal(usableSize, isTable)
	minLocal := MinLocal(usableSize)

	if info.PayloadSize <= maxLocal {
		// Entire payload fits locally
		info.LocalPayload = uint16(info.PayloadSize)
		info.CellSize = uint16(offset + int(info.PayloadSize))
		if info.CellSize < 4 {
			info.CellSize = 4
		}
	} else {
		// Payload spills to overflow pages
		info.LocalPayload = localPayload(info.PayloadSize, minLocal, maxLocal, usableSize)
		info.CellSize = uint16(offset + int(info.LocalPayload) + 4) // +4 for overflow page number
	}

	// Extract payload pointer
	if offset+int(info.LocalPayload) > len(cellData) {
		return nil, fmt.Errorf("cell data truncated")
	}
	info.Payload = cellData[offset : offset+int(info.LocalPayload)]

	// Read overflow page if present
	if info.PayloadSize > maxLocal {
		overflowOffset := offset + int(info.LocalPayload)
		if overflowOffset+4 > len(cellData) {
			return nil, fmt.Errorf("overflow page number truncated")
		}
		info.OverflowPage = binary.BigEndian.Uint32(cellData[overflowOffset:])
	}

	return info, nil
}

// MaxLocal returns the maximum amount of payload stored directly on a
// page before spilling to overflow pages. Table leaves use the full
// embedded payload fraction (64/255 is already folded into the -35
// constant); index pages use the smaller index fraction.
func MaxLocal(usableSize uint32, isTable bool) uint32 {
	if isTable {
		return usableSize - 35
	}
	return (usableSize-12)*64/255 - 23
}

// MinLocal returns the minimum amount of payload that must be stored
// locally when a payload spills to overflow pages.
func MinLocal(usableSize uint32) uint32 {
	return (usableSize-12)*32/255 - 23
}

// localPayload computes how much payload is stored locally for a
// spilling cell, per SQLite's surplus rule.
func localPayload(payloadSize, minLocal, maxLocal, usableSize uint32) uint16 {
	surplus := minLocal + (payloadSize-minLocal)%(usableSize-4)
	if surplus <= maxLocal {
		return uint16(surplus)
	}
	return uint16(minLocal)
}

// String returns a string representation of the cell info
func (c *CellInfo) String() string {
	return fmt.Sprintf("CellInfo{key=%d, payloadSize=%d, localPayload=%d, cellSize=%d, overflow=%d, child=%d}",
		c.Key, c.PayloadSize, c.LocalPayload, c.CellSize, c.OverflowPage, c.ChildPage)
}

// EncodeTableLeafCell encodes a table leaf cell with the given rowid and
// payload. Only used by tests to synthesize pages; assumes the payload
// fits locally.
func EncodeTableLeafCell(rowid int64, payload []byte) []byte {
	buf := make([]byte, 9+9+len(payload))
	offset := PutVarint(buf, uint64(len(payload)))
	offset += PutVarint(buf[offset:], uint64(rowid))
	copy(buf[offset:], payload)
	return buf[:offset+len(payload)]
}

// EncodeTableInteriorCell encodes a table interior cell with the given
// child page and rowid. Only used by tests to synthesize pages.
func EncodeTableInteriorCell(childPage uint32, rowid int64) []byte {
	buf := make([]byte, 13)
	binary.BigEndian.PutUint32(buf, childPage)
	n := PutVarint(buf[4:], uint64(rowid))
	return buf[:4+n]
}
