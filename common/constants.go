package common

// PageSize is the fixed size, in bytes, of every page read from or written
// to disk and of every frame's in-memory payload.
const PageSize = 4096

// InvalidPageID marks a frame that does not currently hold any page, and is
// never returned by the disk manager's page allocator.
const InvalidPageID uint64 = 0
