package buffer

import (
	"sync"

	"finchdb/common"
)

// Page holds the metadata and payload bytes resident in one frame of the
// buffer pool: the logical page id it currently holds (or
// common.InvalidPageID when the frame is free), its pin count, its dirty
// bit, and its fixed-size payload.
type Page struct {
	pageID   uint64
	pinCount int
	dirty    bool
	data     [common.PageSize]byte
	latch    sync.RWMutex
}

func newPage() *Page {
	return &Page{pageID: common.InvalidPageID}
}

// ID returns the page id currently resident in this frame.
func (p *Page) ID() uint64 { return p.pageID }

// PinCount returns the number of outstanding references to this frame.
func (p *Page) PinCount() int { return p.pinCount }

// IsDirty reports whether the in-memory bytes differ from disk.
func (p *Page) IsDirty() bool { return p.dirty }

// Data returns the page's payload bytes. Clients may read or write through
// this slice after a successful Fetch/NewPage and before the matching
// Unpin; the buffer pool manager does not hold its latch across that
// window, so callers are responsible for not retaining the slice past
// Unpin.
func (p *Page) Data() []byte { return p.data[:] }

// WLatch/WUnlatch/RLatch/RUnlatch let concurrent holders of a pinned page
// coordinate access to its payload among themselves, independently of the
// buffer pool manager's own latch.
func (p *Page) WLatch()   { p.latch.Lock() }
func (p *Page) WUnlatch() { p.latch.Unlock() }
func (p *Page) RLatch()   { p.latch.RLock() }
func (p *Page) RUnlatch() { p.latch.RUnlock() }

// reset reassigns the frame to pageID with a clean, unpinned slate. It does
// not touch the payload bytes.
func (p *Page) reset(pageID uint64) {
	p.pageID = pageID
	p.pinCount = 0
	p.dirty = false
}

// zero clears the payload, used when a brand new page is created so no
// stale bytes from a prior occupant leak through.
func (p *Page) zero() {
	for i := range p.data {
		p.data[i] = 0
	}
}

func (p *Page) incrPin() { p.pinCount++ }

func (p *Page) decrPin() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}
