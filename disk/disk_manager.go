// Package disk implements the on-disk collaborator the buffer pool manager
// depends on: synchronous, page-granular reads and writes plus a monotonic
// page-id allocator. It never reuses an allocated id; DeallocatePage only
// records the id in an in-memory set that nothing reads back, so repeated
// calls are harmless, matching the idempotent contract the buffer pool
// relies on.
package disk

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"finchdb/common"
)

// Manager is the disk collaborator the buffer pool manager treats as
// synchronous and atomic at page granularity.
type Manager interface {
	// ReadPage fills dest (which must be at least common.PageSize bytes) with
	// the on-disk contents of pageId.
	ReadPage(pageId uint64, dest []byte) error

	// WritePage writes data (which must be at least common.PageSize bytes) to
	// pageId's slot on disk.
	WritePage(pageId uint64, data []byte) error

	// AllocatePage returns a fresh page id. Ids are never reused.
	AllocatePage() uint64

	// DeallocatePage marks pageId as no longer in use. Idempotent.
	DeallocatePage(pageId uint64)

	Close() error
}

// FileManager is a Manager backed by a single file on disk. Page 0 is
// reserved for a small header tracking the allocator's high-water mark.
type FileManager struct {
	file       *os.File
	mu         sync.Mutex
	lastPageID uint64
	freed      map[uint64]bool
}

var _ Manager = &FileManager{}

// NewFileManager opens (creating if necessary) file as the backing store for
// a buffer pool.
func NewFileManager(file string) (*FileManager, error) {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", file, err)
	}

	d := &FileManager{file: f, freed: map[uint64]bool{}}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("disk: stat %s: %w", file, err)
	}

	if stat.Size() == 0 {
		// page 0 is reserved for the header; real pages start at 1.
		d.lastPageID = 0
		if err := d.writeHeader(); err != nil {
			return nil, err
		}
		log.Printf("disk: initialized new database file %s", file)
		return d, nil
	}

	header := make([]byte, common.PageSize)
	if _, err := f.ReadAt(header, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("disk: read header: %w", err)
	}
	d.lastPageID = binary.LittleEndian.Uint64(header[0:8])
	log.Printf("disk: opened existing database file %s, last page id %d", file, d.lastPageID)
	return d, nil
}

func (d *FileManager) writeHeader() error {
	header := make([]byte, common.PageSize)
	binary.LittleEndian.PutUint64(header[0:8], d.lastPageID)
	_, err := d.file.WriteAt(header, 0)
	return err
}

func (d *FileManager) ReadPage(pageId uint64, dest []byte) error {
	if len(dest) < common.PageSize {
		return fmt.Errorf("disk: destination buffer smaller than page size")
	}

	n, err := d.file.ReadAt(dest[:common.PageSize], int64(pageId)*int64(common.PageSize))
	if err != nil {
		if err == io.EOF {
			// page was allocated but never written; callers see a zeroed page.
			for i := range dest[:common.PageSize] {
				dest[i] = 0
			}
			return nil
		}
		return fmt.Errorf("disk: read page %d: %w", pageId, err)
	}
	if n != common.PageSize {
		return fmt.Errorf("disk: short read on page %d: got %d bytes", pageId, n)
	}
	return nil
}

func (d *FileManager) WritePage(pageId uint64, data []byte) error {
	if len(data) < common.PageSize {
		return fmt.Errorf("disk: source buffer smaller than page size")
	}

	n, err := d.file.WriteAt(data[:common.PageSize], int64(pageId)*int64(common.PageSize))
	if err != nil {
		return fmt.Errorf("disk: write page %d: %w", pageId, err)
	}
	if n != common.PageSize {
		return fmt.Errorf("disk: short write on page %d: wrote %d bytes", pageId, n)
	}
	return nil
}

func (d *FileManager) AllocatePage() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastPageID++
	if err := d.writeHeader(); err != nil {
		// the allocator's high-water mark is the only durable state this type
		// owns outside page bytes; failing to persist it is fatal.
		log.Fatalf("disk: cannot persist allocator header: %v", err)
	}
	return d.lastPageID
}

func (d *FileManager) DeallocatePage(pageId uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.freed[pageId] = true
}

func (d *FileManager) Close() error {
	return d.file.Close()
}
