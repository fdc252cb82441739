// Package memory implements the BDI memory manager: a fixed-size byte
// arena, a bump allocator, and a region registry, adapted from the
// teacher's storage layer's bounds-checked buffer handling (pkg/storage's
// LittleEndian encode/decode helpers) generalized to a reusable flat
// arena rather than a WAL-backed page store.
package memory

import (
	"sync"

	"github.com/dd0wney/bdi/pkg/bdierrors"
)

// RegionID identifies an allocated region within the arena. 0 is never
// issued.
type RegionID uint64

// Region describes an allocated span of the arena.
type Region struct {
	Base     uint64
	Size     uint64
	ReadOnly bool
}

// Manager is the fixed-size byte arena plus bump allocator and region
// registry described in spec.md §4.6. Region permissions are tracked but
// not enforced against reads/writes in this core; spec.md notes this as
// an open item.
type Manager struct {
	mu         sync.Mutex
	buf        []byte
	nextOffset uint64
	regions    map[RegionID]Region
	nextRegion RegionID
}

// New creates a Manager with a fixed arena of size bytes.
func New(size uint64) *Manager {
	return &Manager{
		buf:        make([]byte, size),
		regions:    make(map[RegionID]Region),
		nextRegion: 1,
	}
}

// Size reports the arena's total capacity in bytes.
func (m *Manager) Size() uint64 {
	return uint64(len(m.buf))
}

// Used reports how many bytes the bump allocator has handed out so far.
func (m *Manager) Used() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextOffset
}

// RegionCount reports the number of live (non-freed) regions.
func (m *Manager) RegionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regions)
}

// Allocate reserves size bytes from the arena, returning a fresh RegionID
// whose base is the pre-allocation cursor. Fails if the arena is
// exhausted; the cursor never rewinds.
func (m *Manager) Allocate(size uint64, readOnly bool) (RegionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nextOffset+size > uint64(len(m.buf)) {
		return 0, bdierrors.OutOfMemory("allocate", size, uint64(len(m.buf))-m.nextOffset)
	}

	id := m.nextRegion
	m.nextRegion++
	m.regions[id] = Region{Base: m.nextOffset, Size: size, ReadOnly: readOnly}
	m.nextOffset += size
	return id, nil
}

// Free removes id's region entry. It does not reclaim arena space: the
// bump allocator's cursor is monotonic by design, a documented
// allocator limitation carried over from spec.md §4.6.
func (m *Manager) Free(id RegionID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regions[id]; !ok {
		return false
	}
	delete(m.regions, id)
	return true
}

// Info returns the region descriptor for id.
func (m *Manager) Info(id RegionID) (Region, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regions[id]
	return r, ok
}

// Read copies len(dst) bytes starting at addr into dst. Bounds-checked
// against the arena's total size; region read_only/existence is not
// consulted.
func (m *Manager) Read(addr uint64, dst []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := uint64(len(dst))
	if addr+size > uint64(len(m.buf)) {
		return bdierrors.OutOfBounds("read", addr, size, uint64(len(m.buf)))
	}
	copy(dst, m.buf[addr:addr+size])
	return nil
}

// Write copies src into the arena starting at addr. Bounds-checked
// against the arena's total size.
func (m *Manager) Write(addr uint64, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := uint64(len(src))
	if addr+size > uint64(len(m.buf)) {
		return bdierrors.OutOfBounds("write", addr, size, uint64(len(m.buf)))
	}
	copy(m.buf[addr:addr+size], src)
	return nil
}
