//go:build !linux

// Ring-backed buffer pools depend on io_uring and are Linux-only; other
// platforms get a stub that reports ErrNotSupported.

package pool

import (
	"errors"

	"github.com/sweet-bbq-sauce/zportal/internal/uring"
)

// ErrNotSupported is returned by every pool entry point on platforms
// without an io_uring implementation.
var ErrNotSupported = errors.New("pool: not supported on this platform")

type BufferPool struct{}

func newBufferPool(ring *uring.Ring, bgid uint16, count uint16, size uint32, returnBatch uint16) (*BufferPool, error) {
	return nil, ErrNotSupported
}

func (p *BufferPool) GroupID() uint16                            { return 0 }
func (p *BufferPool) Count() uint16                              { return 0 }
func (p *BufferPool) BufferSize() uint32                         { return 0 }
func (p *BufferPool) BidBytes(bid uint16, offset, length int) []byte { return nil }
func (p *BufferPool) ReturnBuffer(bid uint16)                    {}
func (p *BufferPool) FlushReturns()                              {}
func (p *BufferPool) Close() error                               { return nil }
