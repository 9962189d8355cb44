package btree

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/driftdb/litefile/core/format"
	"github.com/driftdb/litefile/core/pager"
)

// testPageSize keeps synthetic fixtures small.
const testPageSize = 512

// pageBuilder assembles a synthetic b-tree page for tests.
type pageBuilder struct {
	pageType   byte
	rightChild uint32
	cells      [][]byte
}

// build lays the cells out from the end of the page with the cell
// pointer array after the header, like SQLite does. headerOffset is
// 100 for page 1 and 0 otherwise.
func (b *pageBuilder) build(t *testing.T, headerOffset int) []byte {
	t.Helper()

	page := make([]byte, testPageSize)
	page[headerOffset+format.BtreePageType] = b.pageType

	interior := b.pageType == format.PageTypeInteriorTable || b.pageType == format.PageTypeInteriorIndex
	headerSize := format.BtreeHeaderSizeLeaf
	if interior {
		headerSize = format.BtreeHeaderSizeInterior
		binary.BigEndian.PutUint32(page[headerOffset+format.BtreeRightmostPointer:], b.rightChild)
	}

	binary.BigEndian.PutUint16(page[headerOffset+format.BtreeCellCount:], uint16(len(b.cells)))

	content := testPageSize
	ptr := headerOffset + headerSize
	for _, cell := range b.cells {
		content -= len(cell)
		if content < ptr+2 {
			t.Fatal("test page overflow: too many cells")
		}
		copy(page[content:], cell)
		binary.BigEndian.PutUint16(page[ptr:], uint16(content))
		ptr += 2
	}
	binary.BigEndian.PutUint16(page[headerOffset+format.BtreeCellContentStart:], uint16(content))

	return page
}

// buildBtree assembles a database image from raw pages and returns a
// Btree over it. Page 1 is always a synthesized header page; the given
// pages become pages 2..n+1.
func buildBtree(t *testing.T, pages ...[]byte) *Btree {
	t.Helper()

	h := format.NewHeader(testPageSize)
	h.DatabaseSize = uint32(1 + len(pages))
	h.VersionValidFor = h.FileChangeCounter

	image := make([]byte, testPageSize*(1+len(pages)))
	copy(image, h.Serialize())

	// Page 1: empty leaf table page (stands in for sqlite_schema)
	pb := pageBuilder{pageType: format.PageTypeLeafTable}
	page1 := pb.build(t, format.HeaderSize)
	copy(page1[:format.HeaderSize], h.Serialize())
	copy(image, page1)

	for i, p := range pages {
		if len(p) != testPageSize {
			t.Fatalf("page %d has size %d, want %d", i+2, len(p), testPageSize)
		}
		copy(image[(i+1)*testPageSize:], p)
	}

	p, err := pager.New(bytes.NewReader(image), int64(len(image)))
	if err != nil {
		t.Fatalf("pager.New() error: %v", err)
	}
	t.Cleanup(func() { p.Close() })

	return New(p)
}

// indexCell builds an index cell (leaf or interior) with a raw payload.
func indexCell(childPage uint32, payload []byte) []byte {
	var buf []byte
	if childPage != 0 {
		buf = make([]byte, 4)
		binary.BigEndian.PutUint32(buf, childPage)
	}
	var vi [9]byte
	n := PutVarint(vi[:], uint64(len(payload)))
	buf = append(buf, vi[:n]...)
	return append(buf, payload...)
}

func TestParsePageHeaderLeaf(t *testing.T) {
	pb := pageBuilder{
		pageType: format.PageTypeLeafTable,
		cells: [][]byte{
			EncodeTableLeafCell(1, []byte("one")),
			EncodeTableLeafCell(2, []byte("two")),
		},
	}
	page := pb.build(t, 0)

	h, err := ParsePageHeader(page, 2)
	if err != nil {
		t.Fatalf("ParsePageHeader() error: %v", err)
	}
	if !h.IsLeaf || !h.IsTable || h.IsIndex || h.IsInterior {
		t.Errorf("page kind flags wrong: %+v", h)
	}
	if h.NumCells != 2 {
		t.Errorf("NumCells = %d, want 2", h.NumCells)
	}
	if h.HeaderSize != format.BtreeHeaderSizeLeaf {
		t.Errorf("HeaderSize = %d, want %d", h.HeaderSize, format.BtreeHeaderSizeLeaf)
	}
}

func TestParsePageHeaderInterior(t *testing.T) {
	pb := pageBuilder{
		pageType:   format.PageTypeInteriorTable,
		rightChild: 7,
		cells:      [][]byte{EncodeTableInteriorCell(3, 10)},
	}
	page := pb.build(t, 0)

	h, err := ParsePageHeader(page, 4)
	if err != nil {
		t.Fatalf("ParsePageHeader() error: %v", err)
	}
	if !h.IsInterior || !h.IsTable {
		t.Errorf("page kind flags wrong: %+v", h)
	}
	if h.RightChild != 7 {
		t.Errorf("RightChild = %d, want 7", h.RightChild)
	}
	if h.HeaderSize != format.BtreeHeaderSizeInterior {
		t.Errorf("HeaderSize = %d, want %d", h.HeaderSize, format.BtreeHeaderSizeInterior)
	}
}

func TestParsePageHeaderPage1Offset(t *testing.T) {
	pb := pageBuilder{pageType: format.PageTypeLeafTable}
	page := pb.build(t, format.HeaderSize)

	h, err := ParsePageHeader(page, 1)
	if err != nil {
		t.Fatalf("ParsePageHeader() error: %v", err)
	}
	if h.CellPtrOffset != format.HeaderSize+format.BtreeHeaderSizeLeaf {
		t.Errorf("CellPtrOffset = %d, want %d", h.CellPtrOffset, format.HeaderSize+format.BtreeHeaderSizeLeaf)
	}
}

func TestParsePageHeaderInvalidType(t *testing.T) {
	page := make([]byte, testPageSize)
	page[0] = 0x42
	if _, err := ParsePageHeader(page, 2); err == nil {
		t.Error("ParsePageHeader() should fail for invalid page type")
	}
}

func TestParseTableLeafCell(t *testing.T) {
	payload := []byte("hello, world")
	cell := EncodeTableLeafCell(42, payload)

	info, err := ParseCell(format.PageTypeLeafTable, cell, testPageSize)
	if err != nil {
		t.Fatalf("ParseCell() error: %v", err)
	}
	if info.Key != 42 {
		t.Errorf("Key = %d, want 42", info.Key)
	}
	if info.PayloadSize != uint32(len(payload)) {
		t.Errorf("PayloadSize = %d, want %d", info.PayloadSize, len(payload))
	}
	if !bytes.Equal(info.Payload, payload) {
		t.Errorf("Payload = %q, want %q", info.Payload, payload)
	}
	if info.OverflowPage != 0 {
		t.Errorf("OverflowPage = %d, want 0", info.OverflowPage)
	}
}

func TestParseTableInteriorCell(t *testing.T) {
	cell := EncodeTableInteriorCell(9, 1000)

	info, err := ParseCell(format.PageTypeInteriorTable, cell, testPageSize)
	if err != nil {
		t.Fatalf("ParseCell() error: %v", err)
	}
	if info.ChildPage != 9 {
		t.Errorf("ChildPage = %d, want 9", info.ChildPage)
	}
	if info.Key != 1000 {
		t.Errorf("Key = %d, want 1000", info.Key)
	}
}

func TestParseIndexCells(t *testing.T) {
	payload := []byte("apple")

	leaf, err := ParseCell(format.PageTypeLeafIndex, indexCell(0, payload), testPageSize)
	if err != nil {
		t.Fatalf("ParseCell(leaf index) error: %v", err)
	}
	if !bytes.Equal(leaf.Payload, payload) {
		t.Errorf("leaf Payload = %q, want %q", leaf.Payload, payload)
	}

	interior, err := ParseCell(format.PageTypeInteriorIndex, indexCell(5, payload), testPageSize)
	if err != nil {
		t.Fatalf("ParseCell(interior index) error: %v", err)
	}
	if interior.ChildPage != 5 {
		t.Errorf("interior ChildPage = %d, want 5", interior.ChildPage)
	}
	if !bytes.Equal(interior.Payload, payload) {
		t.Errorf("interior Payload = %q, want %q", interior.Payload, payload)
	}
}

func TestParseCellTruncated(t *testing.T) {
	// Claims 100 payload bytes but provides 3.
	cell := []byte{100, 1, 'a', 'b', 'c'}
	if _, err := ParseCell(format.PageTypeLeafTable, cell, testPageSize); err == nil {
		t.Error("ParseCell() should fail for truncated payload")
	}
}

func TestLocalPayloadSplit(t *testing.T) {
	usable := uint32(testPageSize)
	maxLocal := MaxLocal(usable, true)
	if maxLocal != usable-35 {
		t.Errorf("MaxLocal(table) = %d, want %d", maxLocal, usable-35)
	}

	minLocal := MinLocal(usable)
	want := (usable-12)*32/255 - 23
	if minLocal != want {
		t.Errorf("MinLocal = %d, want %d", minLocal, want)
	}

	idxMax := MaxLocal(usable, false)
	wantIdx := (usable-12)*64/255 - 23
	if idxMax != wantIdx {
		t.Errorf("MaxLocal(index) = %d, want %d", idxMax, wantIdx)
	}
}

func TestCursorSingleLeaf(t *testing.T) {
	root := pageBuilder{
		pageType: format.PageTypeLeafTable,
		cells: [][]byte{
			EncodeTableLeafCell(1, []byte("alpha")),
			EncodeTableLeafCell(2, []byte("beta")),
			EncodeTableLeafCell(5, []byte("gamma")),
		},
	}
	bt := buildBtree(t, root.build(t, 0))

	cur := NewCursor(bt, 2)
	var rowids []int64
	var payloads []string
	var err error
	for err = cur.MoveToFirst(); err == nil && cur.Valid(); err = cur.Next() {
		rowids = append(rowids, cur.Rowid())
		p, perr := cur.Payload()
		if perr != nil {
			t.Fatalf("Payload() error: %v", perr)
		}
		payloads = append(payloads, string(p))
	}
	if err != nil {
		t.Fatalf("traversal error: %v", err)
	}

	wantRowids := []int64{1, 2, 5}
	wantPayloads := []string{"alpha", "beta", "gamma"}
	if len(rowids) != 3 {
		t.Fatalf("got %d rows, want 3", len(rowids))
	}
	for i := range wantRowids {
		if rowids[i] != wantRowids[i] || payloads[i] != wantPayloads[i] {
			t.Errorf("row %d = (%d, %q), want (%d, %q)", i, rowids[i], payloads[i], wantRowids[i], wantPayloads[i])
		}
	}
}

func TestCursorEmptyTree(t *testing.T) {
	root := pageBuilder{pageType: format.PageTypeLeafTable}
	bt := buildBtree(t, root.build(t, 0))

	cur := NewCursor(bt, 2)
	if err := cur.MoveToFirst(); err != nil {
		t.Fatalf("MoveToFirst() error: %v", err)
	}
	if cur.Valid() {
		t.Error("cursor should be invalid for empty tree")
	}
}

// buildTwoLevelTable builds an interior root (page 2) over three leaves
// (pages 3, 4, 5) holding rowids 1..9.
func buildTwoLevelTable(t *testing.T) *Btree {
	t.Helper()

	leaf := func(rowids ...int64) []byte {
		pb := pageBuilder{pageType: format.PageTypeLeafTable}
		for _, r := range rowids {
			pb.cells = append(pb.cells, EncodeTableLeafCell(r, []byte{byte('a' + r)}))
		}
		return pb.build(t, 0)
	}

	root := pageBuilder{
		pageType:   format.PageTypeInteriorTable,
		rightChild: 5,
		cells: [][]byte{
			EncodeTableInteriorCell(3, 3), // leaf page 3 holds rowids <= 3
			EncodeTableInteriorCell(4, 6), // leaf page 4 holds rowids <= 6
		},
	}

	return buildBtree(t,
		root.build(t, 0),    // page 2
		leaf(1, 2, 3),       // page 3
		leaf(4, 5, 6),       // page 4
		leaf(7, 8, 9),       // page 5
	)
}

func TestCursorTwoLevelTraversal(t *testing.T) {
	bt := buildTwoLevelTable(t)

	cur := NewCursor(bt, 2)
	var rowids []int64
	var err error
	for err = cur.MoveToFirst(); err == nil && cur.Valid(); err = cur.Next() {
		rowids = append(rowids, cur.Rowid())
	}
	if err != nil {
		t.Fatalf("traversal error: %v", err)
	}

	want := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if len(rowids) != len(want) {
		t.Fatalf("got %d rows %v, want %d", len(rowids), rowids, len(want))
	}
	for i := range want {
		if rowids[i] != want[i] {
			t.Errorf("rowids[%d] = %d, want %d", i, rowids[i], want[i])
		}
	}
}

func TestCursorSeekRowid(t *testing.T) {
	bt := buildTwoLevelTable(t)
	cur := NewCursor(bt, 2)

	for _, rowid := range []int64{1, 3, 4, 6, 7, 9} {
		found, err := cur.SeekRowid(rowid)
		if err != nil {
			t.Fatalf("SeekRowid(%d) error: %v", rowid, err)
		}
		if !found {
			t.Fatalf("SeekRowid(%d) = false, want true", rowid)
		}
		if cur.Rowid() != rowid {
			t.Errorf("Rowid() = %d, want %d", cur.Rowid(), rowid)
		}
	}

	for _, rowid := range []int64{0, 10, 100} {
		found, err := cur.SeekRowid(rowid)
		if err != nil {
			t.Fatalf("SeekRowid(%d) error: %v", rowid, err)
		}
		if found {
			t.Errorf("SeekRowid(%d) = true, want false", rowid)
		}
	}
}

func TestCursorSeekThenNext(t *testing.T) {
	bt := buildTwoLevelTable(t)
	cur := NewCursor(bt, 2)

	// Seek to the last rowid of a leaf and step across the boundary.
	if found, err := cur.SeekRowid(3); err != nil || !found {
		t.Fatalf("SeekRowid(3) = %v, %v", found, err)
	}
	if err := cur.Next(); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if !cur.Valid() || cur.Rowid() != 4 {
		t.Errorf("after Next: valid=%v rowid=%d, want valid rowid 4", cur.Valid(), cur.Rowid())
	}
}

// buildIndexTree builds an interior index root (page 2) over two leaves
// (pages 3, 4) with string keys; separator key lives on the root.
func buildIndexTree(t *testing.T) *Btree {
	t.Helper()

	leafLow := pageBuilder{
		pageType: format.PageTypeLeafIndex,
		cells: [][]byte{
			indexCell(0, []byte("apple")),
			indexCell(0, []byte("banana")),
		},
	}
	leafHigh := pageBuilder{
		pageType: format.PageTypeLeafIndex,
		cells: [][]byte{
			indexCell(0, []byte("date")),
			indexCell(0, []byte("fig")),
		},
	}
	root := pageBuilder{
		pageType:   format.PageTypeInteriorIndex,
		rightChild: 4,
		cells:      [][]byte{indexCell(3, []byte("cherry"))},
	}

	return buildBtree(t,
		root.build(t, 0),     // page 2
		leafLow.build(t, 0),  // page 3
		leafHigh.build(t, 0), // page 4
	)
}

func TestCursorIndexTraversal(t *testing.T) {
	bt := buildIndexTree(t)

	cur := NewCursor(bt, 2)
	var keys []string
	var err error
	for err = cur.MoveToFirst(); err == nil && cur.Valid(); err = cur.Next() {
		p, perr := cur.Payload()
		if perr != nil {
			t.Fatalf("Payload() error: %v", perr)
		}
		keys = append(keys, string(p))
	}
	if err != nil {
		t.Fatalf("traversal error: %v", err)
	}

	// In-order traversal visits the interior separator between the leaves.
	want := []string{"apple", "banana", "cherry", "date", "fig"}
	if len(keys) != len(want) {
		t.Fatalf("got keys %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestCursorSeekIndexGE(t *testing.T) {
	bt := buildIndexTree(t)
	cur := NewCursor(bt, 2)

	tests := []struct {
		target string
		want   string // first key >= target, "" if none
	}{
		{"a", "apple"},
		{"apple", "apple"},
		{"banana", "banana"},
		{"c", "cherry"},
		{"cherry", "cherry"},
		{"coconut", "date"},
		{"fig", "fig"},
		{"zebra", ""},
	}

	for _, tt := range tests {
		err := cur.SeekIndexGE(func(payload []byte) (int, error) {
			return bytes.Compare(payload, []byte(tt.target)), nil
		})
		if err != nil {
			t.Fatalf("SeekIndexGE(%q) error: %v", tt.target, err)
		}
		if tt.want == "" {
			if cur.Valid() {
				t.Errorf("SeekIndexGE(%q): cursor valid, want invalid", tt.target)
			}
			continue
		}
		if !cur.Valid() {
			t.Fatalf("SeekIndexGE(%q): cursor invalid, want %q", tt.target, tt.want)
		}
		p, err := cur.Payload()
		if err != nil {
			t.Fatalf("Payload() error: %v", err)
		}
		if string(p) != tt.want {
			t.Errorf("SeekIndexGE(%q) = %q, want %q", tt.target, p, tt.want)
		}
	}
}

func TestCursorSeekIndexGEThenNext(t *testing.T) {
	bt := buildIndexTree(t)
	cur := NewCursor(bt, 2)

	// Position at the interior separator and continue in order.
	err := cur.SeekIndexGE(func(payload []byte) (int, error) {
		return bytes.Compare(payload, []byte("coconut")), nil
	})
	if err != nil {
		t.Fatalf("SeekIndexGE() error: %v", err)
	}
	var keys []string
	for ; err == nil && cur.Valid(); err = cur.Next() {
		p, perr := cur.Payload()
		if perr != nil {
			t.Fatalf("Payload() error: %v", perr)
		}
		keys = append(keys, string(p))
	}
	if err != nil {
		t.Fatalf("iteration error: %v", err)
	}

	want := []string{"date", "fig"}
	if len(keys) != len(want) {
		t.Fatalf("got keys %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestAssemblePayloadNoOverflow(t *testing.T) {
	bt := buildTwoLevelTable(t)
	cell := &CellInfo{Payload: []byte("inline"), PayloadSize: 6}
	got, err := bt.AssemblePayload(cell)
	if err != nil {
		t.Fatalf("AssemblePayload() error: %v", err)
	}
	if string(got) != "inline" {
		t.Errorf("payload = %q, want %q", got, "inline")
	}
}

func TestAssemblePayloadOverflowChain(t *testing.T) {
	// A payload split across a local prefix and two overflow pages
	// (pages 3 and 4); page 2 is an unused leaf so pages exist.
	usable := uint32(testPageSize)
	perPage := int(usable) - 4

	full := bytes.Repeat([]byte("x"), perPage+perPage/2+10)
	local := full[:10]
	over1 := full[10 : 10+perPage]
	over2 := full[10+perPage:]

	page3 := make([]byte, testPageSize)
	binary.BigEndian.PutUint32(page3, 4) // next overflow page
	copy(page3[4:], over1)

	page4 := make([]byte, testPageSize)
	binary.BigEndian.PutUint32(page4, 0) // end of chain
	copy(page4[4:], over2)

	dummy := pageBuilder{pageType: format.PageTypeLeafTable}
	bt := buildBtree(t, dummy.build(t, 0), page3, page4)

	cell := &CellInfo{
		Payload:      local,
		PayloadSize:  uint32(len(full)),
		LocalPayload: uint16(len(local)),
		OverflowPage: 3,
	}
	got, err := bt.AssemblePayload(cell)
	if err != nil {
		t.Fatalf("AssemblePayload() error: %v", err)
	}
	if !bytes.Equal(got, full) {
		t.Errorf("payload length = %d, want %d", len(got), len(full))
	}
}

func TestAssemblePayloadOverflowCycle(t *testing.T) {
	page3 := make([]byte, testPageSize)
	binary.BigEndian.PutUint32(page3, 3) // points at itself

	dummy := pageBuilder{pageType: format.PageTypeLeafTable}
	bt := buildBtree(t, dummy.build(t, 0), page3)

	cell := &CellInfo{
		Payload:      []byte("x"),
		PayloadSize:  100000,
		LocalPayload: 1,
		OverflowPage: 3,
	}
	if _, err := bt.AssemblePayload(cell); err == nil {
		t.Error("AssemblePayload() should fail on overflow cycle")
	}
}

func TestAssemblePayloadTruncatedChain(t *testing.T) {
	page3 := make([]byte, testPageSize)
	binary.BigEndian.PutUint32(page3, 0) // chain ends too early

	dummy := pageBuilder{pageType: format.PageTypeLeafTable}
	bt := buildBtree(t, dummy.build(t, 0), page3)

	cell := &CellInfo{
		Payload:      []byte("x"),
		PayloadSize:  10000,
		LocalPayload: 1,
		OverflowPage: 3,
	}
	if _, err := bt.AssemblePayload(cell); err == nil {
		t.Error("AssemblePayload() should fail on truncated chain")
	}
}
