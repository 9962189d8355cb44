// Package pager provides read-only page access to a SQLite database file.
//
// The pager hands out raw page buffers by page number (1-based) and
// caches recently read pages. It never writes: journals, WAL files, and
// locking are out of scope for a file reader.
package pager

import (
	"fmt"
	"io"
	"os"
	"sync"

	lferrors "github.com/driftdb/litefile/core/errors"
	"github.com/driftdb/litefile/core/format"
)

// DefaultCacheSize is the default number of pages held in the cache.
const DefaultCacheSize = 2000

// Pager reads pages from a database file.
// It is safe for concurrent use.
type Pager struct {
	// Reader for the database file
	r io.ReaderAt

	// Closer for the underlying file, if the pager opened it
	closer io.Closer

	// Parsed database header
	header *format.Header

	// Page size in bytes
	pageSize int

	// Number of pages in the database
	pageCount uint32

	// Page cache
	cache     map[uint32][]byte
	cacheSize int

	// Mutex guarding the cache
	mu sync.RWMutex
}

// Open opens a database file read-only and creates a Pager for it.
func Open(path string) (*Pager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &lferrors.IOError{Operation: "open", Path: path, Err: err}
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &lferrors.IOError{Operation: "stat", Path: path, Err: err}
	}

	p, err := New(f, st.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// New creates a Pager over an arbitrary reader of the given size.
// The reader must cover a complete database file starting at offset 0.
func New(r io.ReaderAt, size int64) (*Pager, error) {
	buf := make([]byte, format.HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &lferrors.CorruptError{Detail: fmt.Sprintf("file too small for header: %d bytes", size)}
		}
		return nil, &lferrors.IOError{Operation: "read header", Err: err}
	}

	header := &format.Header{}
	if err := header.Parse(buf); err != nil {
		return nil, err
	}
	if err := header.Validate(); err != nil {
		return nil, err
	}

	pageSize := header.GetPageSize()

	// The in-header database size is only trustworthy when it is non-zero
	// and the change counter matches version-valid-for. Fall back to the
	// file size otherwise (databases written by very old SQLite versions).
	pageCount := header.DatabaseSize
	if pageCount == 0 || header.FileChangeCounter != header.VersionValidFor {
		pageCount = uint32(size / int64(pageSize))
	}
	if pageCount == 0 {
		return nil, &lferrors.CorruptError{Detail: "database has no pages"}
	}
	if int64(pageCount)*int64(pageSize) > size {
		return nil, &lferrors.CorruptError{
			Detail: fmt.Sprintf("header claims %d pages of %d bytes but file is %d bytes", pageCount, pageSize, size),
		}
	}

	return &Pager{
		r:         r,
		header:    header,
		pageSize:  pageSize,
		pageCount: pageCount,
		cache:     make(map[uint32][]byte),
		cacheSize: DefaultCacheSize,
	}, nil
}

// Close releases the underlying file if the pager opened it.
func (p *Pager) Close() error {
	p.mu.Lock()
	p.cache = nil
	p.mu.Unlock()

	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// Header returns the parsed database header.
func (p *Pager) Header() *format.Header {
	return p.header
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// UsableSize returns the usable bytes per page (page size minus reserved space).
func (p *Pager) UsableSize() uint32 {
	return uint32(p.header.UsableSize())
}

// PageCount returns the number of pages in the database.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// Page returns the raw contents of page pgno (1-based).
// The returned slice is shared with the cache and must not be modified.
func (p *Pager) Page(pgno uint32) ([]byte, error) {
	if pgno == 0 || pgno > p.pageCount {
		return nil, &lferrors.CorruptError{
			Page:   pgno,
			Detail: fmt.Sprintf("page number out of range (database has %d pages)", p.pageCount),
		}
	}

	p.mu.RLock()
	data, ok := p.cache[pgno]
	p.mu.RUnlock()
	if ok {
		return data, nil
	}

	data = make([]byte, p.pageSize)
	offset := int64(pgno-1) * int64(p.pageSize)
	if _, err := p.r.ReadAt(data, offset); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &lferrors.CorruptError{Page: pgno, Detail: "page truncated at end of file"}
		}
		return nil, &lferrors.IOError{Operation: "read page", Err: err}
	}

	p.mu.Lock()
	if p.cache != nil {
		if len(p.cache) >= p.cacheSize {
			// Cheap eviction: drop an arbitrary entry. Access patterns here
			// are sequential scans, so recency tracking buys little.
			for k := range p.cache {
				delete(p.cache, k)
				break
			}
		}
		p.cache[pgno] = data
	}
	p.mu.Unlock()

	return data, nil
}
