package btree

import (
	"encoding/binary"
	"fmt"

	lferrors "github.com/driftdb/litefile/core/errors"
)

// AssemblePayload returns the full payload for a cell, following the
// overflow page chain when the payload does not fit locally.
//
// Overflow page format: 4-byte next-page number (0 at the end of the
// chain) followed by payload bytes up to usableSize-4 per page.
func (b *Btree) AssemblePayload(cell *CellInfo) ([]byte, error) {
	if cell.OverflowPage == 0 {
		return cell.Payload, nil
	}

	payload := make([]byte, 0, cell.PayloadSize)
	payload = append(payload, cell.Payload...)

	perPage := int(b.UsableSize()) - 4
	remaining := int(cell.PayloadSize) - len(payload)
	next := cell.OverflowPage

	// Cycle guard: an overflow chain can never be longer than the file.
	visited := make(map[uint32]bool)

	for next != 0 {
		if remaining <= 0 {
			return nil, &lferrors.CorruptError{Page: next, Detail: "overflow chain longer than payload"}
		}
		if visited[next] {
			return nil, &lferrors.CorruptError{Page: next, Detail: "cycle in overflow chain"}
		}
		visited[next] = true

		data, err := b.Page(next)
		if err != nil {
			return nil, fmt.Errorf("read overflow page %d: %w", next, err)
		}
		if len(data) < 4 {
			return nil, &lferrors.CorruptError{Page: next, Detail: "overflow page too small"}
		}

		n := perPage
		if n > remaining {
			n = remaining
		}
		if 4+n > len(data) {
			return nil, &lferrors.CorruptError{Page: next, Detail: "overflow page shorter than usable size"}
		}

		payload = append(payload, data[4:4+n]...)
		remaining -= n
		next = binary.BigEndian.Uint32(data[0:4])
	}

	if remaining != 0 {
		return nil, &lferrors.CorruptError{
			Page:   cell.OverflowPage,
			Detail: fmt.Sprintf("overflow chain ended with %d payload bytes missing", remaining),
		}
	}

	return payload, nil
}
