//go:build linux

// Linux-specific ring-backed buffer pool: a page-aligned arena
// registered with the kernel as an io_uring provided-buffer ring, and
// the bid bookkeeping to publish and reclaim slots from it.

package pool

import (
	"fmt"
	"math/bits"
	"sync"
	"unsafe"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/sweet-bbq-sauce/zportal/internal/uring"
)

// BufferPool owns one registered buffer-ring arena: count fixed-size
// buffers, each addressable by a 16-bit bid. Buffers are returned to
// the kernel in FIFO order, batched until returnBatch bids accumulate
// (a returnBatch of 0 publishes each return immediately).
type BufferPool struct {
	mu sync.Mutex

	ring  *uring.Ring
	bgid  uint16
	count uint16
	size  uint32
	mask  uint16

	arena   []byte
	ringMem []byte

	returnBatch uint16
	pending     *queue.Queue

	closed bool
}

func newBufferPool(ring *uring.Ring, bgid uint16, count uint16, size uint32, returnBatch uint16) (*BufferPool, error) {
	if count < 2 || bits.OnesCount16(count) != 1 {
		return nil, fmt.Errorf("pool: count must be a power of two >= 2, got %d", count)
	}
	if size == 0 {
		return nil, fmt.Errorf("pool: size must be > 0")
	}

	arena, err := unix.Mmap(-1, 0, int(count)*int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pool: mmap arena: %w", err)
	}

	ringBytes := int(count) * 16 // sizeof(io_uring_buf)
	ringBytes = (ringBytes + 4095) &^ 4095
	ringMem, err := unix.Mmap(-1, 0, ringBytes,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
	if err != nil {
		unix.Munmap(arena)
		return nil, fmt.Errorf("pool: mmap ring: %w", err)
	}

	if err := ring.RegisterBufRing(ringMem, count, bgid); err != nil {
		unix.Munmap(ringMem)
		unix.Munmap(arena)
		return nil, err
	}

	p := &BufferPool{
		ring:        ring,
		bgid:        bgid,
		count:       count,
		size:        size,
		mask:        count - 1,
		arena:       arena,
		ringMem:     ringMem,
		returnBatch: returnBatch,
		pending:     queue.New(),
	}

	for i := uint16(0); i < count; i++ {
		addr := uint64(uintptr(unsafe.Pointer(&arena[uint32(i)*size])))
		uring.BufRingAdd(ringMem, p.mask, addr, size, i, i)
	}
	uring.BufRingAdvance(ringMem, count)

	return p, nil
}

// GroupID returns the buffer group id this pool is registered under.
func (p *BufferPool) GroupID() uint16 { return p.bgid }

// Count returns the number of buffers in the pool.
func (p *BufferPool) Count() uint16 { return p.count }

// BufferSize returns the fixed size of each buffer.
func (p *BufferPool) BufferSize() uint32 { return p.size }

func (p *BufferPool) validBid(bid uint16) bool { return bid < p.count }

// BidBytes returns a slice view of bid's arena slot starting at offset
// with the given length. It does not copy; the slice is only valid
// until ReturnBuffer(bid) is called.
func (p *BufferPool) BidBytes(bid uint16, offset, length int) []byte {
	if !p.validBid(bid) {
		return nil
	}
	base := uint32(bid) * p.size
	lo := base + uint32(offset)
	return p.arena[lo : lo+uint32(length)]
}

// ReturnBuffer reclaims bid, republishing it to the kernel. Out-of-range
// bids are silently ignored, matching the original push/pop FIFO
// behavior of the reference implementation.
func (p *BufferPool) ReturnBuffer(bid uint16) {
	if !p.validBid(bid) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if p.returnBatch == 0 {
		p.publish(bid, 0)
		uring.BufRingAdvance(p.ringMem, 1)
		return
	}

	p.pending.Add(bid)
	if uint16(p.pending.Length()) >= p.returnBatch {
		p.flushLocked()
	}
}

// FlushReturns publishes every batched return to the kernel immediately.
func (p *BufferPool) FlushReturns() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushLocked()
}

func (p *BufferPool) flushLocked() {
	if p.pending.Length() == 0 {
		return
	}
	var committed uint16
	for p.pending.Length() > 0 {
		bid := p.pending.Peek().(uint16)
		p.pending.Remove()
		if !p.validBid(bid) {
			continue
		}
		p.publish(bid, committed)
		committed++
	}
	if committed > 0 {
		uring.BufRingAdvance(p.ringMem, committed)
	}
}

func (p *BufferPool) publish(bid uint16, offset uint16) {
	addr := uint64(uintptr(unsafe.Pointer(&p.arena[uint32(bid)*p.size])))
	uring.BufRingAdd(p.ringMem, p.mask, addr, p.size, bid, offset)
}

// Close flushes pending returns, unregisters the ring from the kernel
// and unmaps both arenas. Idempotent.
func (p *BufferPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.flushLocked()
	p.closed = true

	var firstErr error
	if err := p.ring.UnregisterBufRing(p.bgid); err != nil {
		firstErr = err
	}
	if err := unix.Munmap(p.ringMem); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := unix.Munmap(p.arena); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
