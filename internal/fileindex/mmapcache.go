package fileindex

import (
	"container/list"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// mmapEntry is one cached memory-mapped view, keyed by FileEntry.ID.
type mmapEntry struct {
	id   uint32
	data mmap.MMap
	file *os.File
}

// mmapCache is a bounded LRU of open memory-mapped files, used by the grep
// engine for fast line-wise body access. Lazily populated on first touch
// unless a caller pre-warms it after a scan (spec §4.5's
// warmup_mmap_cache option). Eviction on modify/delete is mandatory before
// the underlying file is reopened; Invalidate handles that.
type mmapCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front = most recently used
	index    map[uint32]*list.Element
}

func newMMAPCache(capacity int) *mmapCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &mmapCache{
		capacity: capacity,
		ll:       list.New(),
		index:    make(map[uint32]*list.Element),
	}
}

// Get returns the mapped bytes for (id, absPath), opening and mapping the
// file if not already cached. Falls back to a buffered read (returned as a
// plain []byte, ok=false for "isMMap") when mmap fails, per spec §4.7's
// failure semantics.
func (c *mmapCache) Get(id uint32, absPath string) (data []byte, isMMap bool, err error) {
	c.mu.Lock()
	if el, ok := c.index[id]; ok {
		c.ll.MoveToFront(el)
		entry := el.Value.(*mmapEntry)
		c.mu.Unlock()
		return entry.data, true, nil
	}
	c.mu.Unlock()

	f, openErr := os.Open(absPath)
	if openErr != nil {
		return nil, false, openErr
	}

	m, mmapErr := mmap.Map(f, mmap.RDONLY, 0)
	if mmapErr != nil {
		defer f.Close()
		buf, readErr := os.ReadFile(absPath)
		if readErr != nil {
			return nil, false, readErr
		}
		return buf, false, nil
	}

	entry := &mmapEntry{id: id, data: m, file: f}

	c.mu.Lock()
	if existing, ok := c.index[id]; ok {
		// lost the race with a concurrent Get: keep the existing mapping
		c.mu.Unlock()
		_ = m.Unmap()
		_ = f.Close()
		c.mu.Lock()
		el := existing
		c.ll.MoveToFront(el)
		winning := el.Value.(*mmapEntry)
		c.mu.Unlock()
		return winning.data, true, nil
	}
	el := c.ll.PushFront(entry)
	c.index[id] = el
	c.evictLocked()
	c.mu.Unlock()

	return entry.data, true, nil
}

// evictLocked drops least-recently-used entries past capacity. Caller must
// hold c.mu.
func (c *mmapCache) evictLocked() {
	for c.ll.Len() > c.capacity {
		back := c.ll.Back()
		if back == nil {
			return
		}
		c.removeElementLocked(back)
	}
}

func (c *mmapCache) removeElementLocked(el *list.Element) {
	entry := el.Value.(*mmapEntry)
	c.ll.Remove(el)
	delete(c.index, entry.id)
	_ = entry.data.Unmap()
	_ = entry.file.Close()
}

// Invalidate evicts id, if cached. Must be called before the underlying
// file is reopened for writing, per spec §5's resource policy.
func (c *mmapCache) Invalidate(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[id]; ok {
		c.removeElementLocked(el)
	}
}

// Close unmaps and closes every cached entry.
func (c *mmapCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.ll.Len() > 0 {
		c.removeElementLocked(c.ll.Front())
	}
}

// Len reports the number of currently cached entries (test/metrics use).
func (c *mmapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
