// Package buffer implements the buffer pool manager: the in-memory page
// cache mediating between a fixed pool of frames and an on-disk page file.
package buffer

import (
	"log"
	"sync"

	"finchdb/common"
	"finchdb/disk"
	"finchdb/wal"
)

// BufferPoolManager orchestrates a fixed-size pool of frames, a free list,
// a page table, and a replacement policy behind a single mutex. Disk I/O is
// performed while the mutex is held: coarse, but it trivially keeps the
// free list, page table, and replacer mutually consistent.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize  int
	frames    []*Page
	pageTable map[uint64]int // page id -> frame index, iff resident
	freeList  []int          // FIFO: frame indices holding no page

	replacer Replacer
	disk     disk.Manager

	// logManager is held for future write-ahead-logging coordination around
	// eviction and flush. It is never invoked today.
	logManager wal.LogManager
}

// NewBufferPoolManager builds a pool of poolSize frames backed by
// diskManager, evicting in LRU order. logManager may be nil, in which case
// a wal.Noop is used.
func NewBufferPoolManager(diskManager disk.Manager, poolSize int, logManager wal.LogManager) *BufferPoolManager {
	return NewBufferPoolManagerWithReplacer(diskManager, poolSize, NewLRUReplacer(poolSize), logManager)
}

// NewBufferPoolManagerWithReplacer is NewBufferPoolManager with the
// replacement policy chosen by the caller, for substituting clock or LRU-K
// style variants.
func NewBufferPoolManagerWithReplacer(diskManager disk.Manager, poolSize int, replacer Replacer, logManager wal.LogManager) *BufferPoolManager {
	if poolSize <= 0 {
		panic("buffer: pool size must be positive")
	}
	if logManager == nil {
		logManager = wal.Noop{}
	}

	frames := make([]*Page, poolSize)
	freeList := make([]int, poolSize)
	for i := range frames {
		frames[i] = newPage()
		freeList[i] = i
	}

	return &BufferPoolManager{
		poolSize:   poolSize,
		frames:     frames,
		pageTable:  make(map[uint64]int, poolSize),
		freeList:   freeList,
		replacer:   replacer,
		disk:       diskManager,
		logManager: logManager,
	}
}

// Fetch returns the page for pageID, pinning it, reading it in from disk if
// it is not already resident. ok is false if every frame is pinned, or if
// reading the page from disk fails (the frame then goes back to the free
// list).
func (b *BufferPoolManager) Fetch(pageID uint64) (page *Page, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frameID, resident := b.pageTable[pageID]; resident {
		p := b.frames[frameID]
		p.incrPin()
		b.replacer.Pin(frameID)
		return p, true
	}

	frameID, ok := b.findReplacement()
	if !ok {
		return nil, false
	}

	p := b.frames[frameID]
	if err := b.disk.ReadPage(pageID, p.data[:]); err != nil {
		log.Printf("buffer: read of page %d failed: %v", pageID, err)
		p.reset(common.InvalidPageID)
		b.freeList = append(b.freeList, frameID)
		return nil, false
	}

	p.reset(pageID)
	p.incrPin()
	b.pageTable[pageID] = frameID
	return p, true
}

// Unpin decrements pageID's pin count (saturating at zero) and, if isDirty,
// marks it dirty -- stickily, so a later clean unpin cannot un-dirty it.
// Returns false iff pageID is not resident.
func (b *BufferPoolManager) Unpin(pageID uint64, isDirty bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, resident := b.pageTable[pageID]
	if !resident {
		return false
	}

	p := b.frames[frameID]
	if isDirty {
		p.dirty = true
	}
	p.decrPin()
	if p.pinCount == 0 {
		b.replacer.Unpin(frameID)
	}
	return true
}

// Flush writes pageID's bytes to disk and clears its dirty bit, regardless
// of pin count. Returns false iff pageID is not resident.
func (b *BufferPoolManager) Flush(pageID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.flushLocked(pageID)
}

// flushLocked is the actual flush logic, callable both from Flush and from
// FlushAll without re-entering the public, latch-taking API, which would
// deadlock on the non-reentrant mutex.
func (b *BufferPoolManager) flushLocked(pageID uint64) bool {
	frameID, resident := b.pageTable[pageID]
	if !resident {
		return false
	}

	p := b.frames[frameID]
	if err := b.disk.WritePage(pageID, p.data[:]); err != nil {
		log.Printf("buffer: flush of page %d failed: %v", pageID, err)
		return false
	}
	p.dirty = false
	return true
}

// FlushAll flushes every resident page, tolerating and logging individual
// failures rather than aborting the pass.
func (b *BufferPoolManager) FlushAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for pageID := range b.pageTable {
		b.flushLocked(pageID)
	}
}

// NewPage allocates a fresh page id from the disk manager and a frame to
// hold it, zeroes the frame, and pins it. ok is false iff every frame is
// pinned; the allocated id is not returned to the disk manager in that
// case, since ids are never reused and a gap is harmless.
func (b *BufferPoolManager) NewPage() (page *Page, pageID uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	newID := b.disk.AllocatePage()

	frameID, ok := b.findReplacement()
	if !ok {
		return nil, 0, false
	}

	p := b.frames[frameID]
	p.reset(newID)
	p.zero()
	p.incrPin()
	b.pageTable[newID] = frameID
	return p, newID, true
}

// DeletePage deallocates pageID on disk unconditionally. If the page is
// resident and pinned, it returns false without touching in-memory state.
// Otherwise it returns the frame (if any) to the free list and returns
// true.
func (b *BufferPoolManager) DeletePage(pageID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.disk.DeallocatePage(pageID)

	frameID, resident := b.pageTable[pageID]
	if !resident {
		return true
	}

	p := b.frames[frameID]
	if p.pinCount > 0 {
		return false
	}

	b.replacer.Pin(frameID)
	delete(b.pageTable, pageID)
	p.reset(common.InvalidPageID)
	b.freeList = append(b.freeList, frameID)
	return true
}

// findReplacement returns a frame ready to hold a new page: always
// preferring the free list, and falling back to the replacer's victim only
// once the free list is empty. Callers must hold b.mu. ok is false iff
// every frame is pinned.
func (b *BufferPoolManager) findReplacement() (frameID int, ok bool) {
	if n := len(b.freeList); n > 0 {
		frameID := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameID, true
	}

	victimID, ok := b.replacer.Victim()
	if !ok {
		return 0, false
	}

	victim := b.frames[victimID]
	if victim.dirty {
		if err := b.disk.WritePage(victim.pageID, victim.data[:]); err != nil {
			log.Printf("buffer: write-back of page %d failed during eviction: %v", victim.pageID, err)
		}
		victim.dirty = false
	}
	delete(b.pageTable, victim.pageID)
	return victimID, true
}

// PoolSize returns the number of frames in the pool.
func (b *BufferPoolManager) PoolSize() int {
	return b.poolSize
}

// FreeFrameCount returns the number of frames currently on the free list.
func (b *BufferPoolManager) FreeFrameCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.freeList)
}

// ReplacerSize returns the number of evictable (resident, unpinned) frames.
func (b *BufferPoolManager) ReplacerSize() int {
	return b.replacer.Size()
}

// PinnedCount returns the number of frames currently pinned.
func (b *BufferPoolManager) PinnedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, p := range b.frames {
		if p.pinCount > 0 {
			count++
		}
	}
	return count
}
