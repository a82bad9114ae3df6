// Package pool: manager keyed by buffer-group id.
//
// Cross-platform manager over ring-backed BufferPool instances.
// Platform-specific allocation and registration live in bufferpool_linux.go
// and bufferpool_windows.go.

package pool

import (
	"fmt"
	"sync"

	"github.com/sweet-bbq-sauce/zportal/internal/uring"
)

// Manager tracks every BufferPool registered against one Ring, keyed by
// buffer-group id (bgid).
type Manager struct {
	mu    sync.RWMutex
	ring  *uring.Ring
	pools map[uint16]*BufferPool
}

// NewManager creates a manager bound to ring.
func NewManager(ring *uring.Ring) *Manager {
	return &Manager{ring: ring, pools: make(map[uint16]*BufferPool)}
}

// New allocates, registers and tracks a new BufferPool. count must be a
// power of two >= 2 and size must be > 0.
func (m *Manager) New(count uint16, size uint32, returnBatch uint16) (*BufferPool, error) {
	bgid := m.ring.NextGroupID()
	p, err := newBufferPool(m.ring, bgid, count, size, returnBatch)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.pools[bgid] = p
	m.mu.Unlock()
	return p, nil
}

// Get returns the pool registered under bgid, if any.
func (m *Manager) Get(bgid uint16) (*BufferPool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[bgid]
	return p, ok
}

// Close tears down every tracked pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for bgid, p := range m.pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close pool bgid=%d: %w", bgid, err)
		}
		delete(m.pools, bgid)
	}
	return firstErr
}
