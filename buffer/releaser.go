package buffer

// Access modes for FetchWithReleaser.
const (
	Read = iota
	Write
)

// PageReleaser couples a pinned, latched page with the single Release call
// that undoes both, so callers walking many pages (iterators, tree descents)
// cannot unpin without unlatching or vice versa.
type PageReleaser struct {
	*Page
	pool *BufferPoolManager
	mode int
}

// Release unpins the page and drops the latch taken at fetch time. For
// Write-mode releasers, dirty is forwarded to Unpin; Read-mode holders
// cannot have modified the payload, so dirty is ignored. The releaser must
// not be used after Release.
func (r *PageReleaser) Release(dirty bool) {
	if r.mode == Write {
		r.pool.Unpin(r.ID(), dirty)
		r.WUnlatch()
	} else {
		r.pool.Unpin(r.ID(), false)
		r.RUnlatch()
	}
}

// FetchWithReleaser fetches pageID and takes its read or write latch,
// returning a releaser that undoes both in one call. ok is false under the
// same conditions as Fetch.
func (b *BufferPoolManager) FetchWithReleaser(pageID uint64, mode int) (releaser *PageReleaser, ok bool) {
	p, ok := b.Fetch(pageID)
	if !ok {
		return nil, false
	}
	if mode == Read {
		p.RLatch()
	} else {
		p.WLatch()
	}
	return &PageReleaser{Page: p, pool: b, mode: mode}, true
}

// NewPageWithReleaser creates a page via NewPage and returns it
// write-latched behind a releaser.
func (b *BufferPoolManager) NewPageWithReleaser() (releaser *PageReleaser, pageID uint64, ok bool) {
	p, pageID, ok := b.NewPage()
	if !ok {
		return nil, 0, false
	}
	p.WLatch()
	return &PageReleaser{Page: p, pool: b, mode: Write}, pageID, true
}
