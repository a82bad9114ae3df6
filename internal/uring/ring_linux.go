//go:build linux

package uring

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Ring owns one io_uring submission/completion queue pair. It is
// single-owner: the tunnel dispatch loop that opens a Ring is the only
// goroutine that may submit to or wait on it. Close is idempotent.
type Ring struct {
	fd int

	sqRing, cqRing, sqesMmap []byte
	singleMmap               bool

	sqEntries, sqMask uint32
	sqHead, sqTail    *uint32
	sqFlags, sqDrop   *uint32
	sqArray           []uint32
	sqes              []sqe

	cqEntries, cqMask uint32
	cqHead, cqTail    *uint32
	cqes              []cqe

	sqPending uint32
	nextGroup uint32
	groups    map[uint16]struct{}

	mu     sync.Mutex
	closed bool
}

// Slot is a reserved submission queue entry. Callers populate it with
// one of the Prep* methods and set its tag with SetUserData, then call
// Ring.Submit to publish all reserved slots.
type Slot struct {
	e *sqe
}

// Completion is an immutable value copied out of the completion queue.
type Completion struct {
	Tag    uint64
	Result int32
	Flags  uint32
}

// BufferID extracts the kernel-selected buffer id from the completion
// flags, when the submission used buffer-select.
func (c Completion) BufferID() (uint16, bool) {
	if c.Flags&cqeFBuffer == 0 {
		return 0, false
	}
	return uint16(c.Flags >> 16), true
}

// More reports whether a multishot submission has further completions
// still pending (IORING_CQE_F_MORE).
func (c Completion) More() bool { return c.Flags&cqeFMore != 0 }

// SetupFailedError wraps the errno returned when the kernel refuses to
// create a ring.
type SetupFailedError struct{ Errno error }

func (e *SetupFailedError) Error() string { return fmt.Sprintf("io_uring setup failed: %v", e.Errno) }

// ErrQueueFull is returned by SQE when no submission slot is free.
// Callers must Submit already-reserved slots and retry.
var ErrQueueFull = fmt.Errorf("uring: submission queue full")

// WaitFailedError wraps an unexpected errno from waiting on completions.
type WaitFailedError struct{ Errno error }

func (e *WaitFailedError) Error() string { return fmt.Sprintf("io_uring wait failed: %v", e.Errno) }

// Open constructs a ring with SQ/CQ depth at least entries.
func Open(entries uint32) (*Ring, error) {
	var p params
	p.Flags = setupClamp

	fd, err := ioUringSetup(entries, &p)
	if err != nil {
		return nil, &SetupFailedError{Errno: err}
	}

	r := &Ring{fd: fd, groups: make(map[uint16]struct{})}
	if err := r.mapRings(&p); err != nil {
		unix.Close(fd)
		return nil, &SetupFailedError{Errno: err}
	}
	return r, nil
}

func (r *Ring) mapRings(p *params) error {
	sqRingSize := p.SQOff.Array + p.SQEntries*4
	cqRingSize := p.CQOff.CQEs + p.CQEntries*uint32(unsafe.Sizeof(cqe{}))

	r.singleMmap = p.Features&featSingleMMap != 0
	if r.singleMmap && cqRingSize > sqRingSize {
		sqRingSize = cqRingSize
	}

	var err error
	r.sqRing, err = unix.Mmap(r.fd, int64(offSQRing), int(sqRingSize),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("mmap SQ ring: %w", err)
	}

	if r.singleMmap {
		r.cqRing = r.sqRing
	} else {
		r.cqRing, err = unix.Mmap(r.fd, int64(offCQRing), int(cqRingSize),
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			unix.Munmap(r.sqRing)
			return fmt.Errorf("mmap CQ ring: %w", err)
		}
	}

	sqeSize := p.SQEntries * uint32(unsafe.Sizeof(sqe{}))
	r.sqesMmap, err = unix.Mmap(r.fd, int64(offSQEs), int(sqeSize),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		if !r.singleMmap {
			unix.Munmap(r.cqRing)
		}
		unix.Munmap(r.sqRing)
		return fmt.Errorf("mmap SQEs: %w", err)
	}

	r.sqEntries = *(*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.RingEntries]))
	r.sqMask = *(*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.RingMask]))
	r.sqHead = (*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.Head]))
	r.sqTail = (*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.Tail]))
	r.sqFlags = (*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.Flags]))
	r.sqDrop = (*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.Dropped]))
	r.sqArray = unsafe.Slice((*uint32)(unsafe.Pointer(&r.sqRing[p.SQOff.Array])), r.sqEntries)
	r.sqes = unsafe.Slice((*sqe)(unsafe.Pointer(&r.sqesMmap[0])), p.SQEntries)

	r.cqEntries = *(*uint32)(unsafe.Pointer(&r.cqRing[p.CQOff.RingEntries]))
	r.cqMask = *(*uint32)(unsafe.Pointer(&r.cqRing[p.CQOff.RingMask]))
	r.cqHead = (*uint32)(unsafe.Pointer(&r.cqRing[p.CQOff.Head]))
	r.cqTail = (*uint32)(unsafe.Pointer(&r.cqRing[p.CQOff.Tail]))
	r.cqes = unsafe.Slice((*cqe)(unsafe.Pointer(&r.cqRing[p.CQOff.CQEs])), r.cqEntries)

	return nil
}

// SQE reserves one submission slot. Returns ErrQueueFull if the
// submission queue currently has no free entry; the caller must
// Submit previously reserved slots before retrying.
func (r *Ring) SQE() (*Slot, error) {
	head := atomic.LoadUint32(r.sqHead)
	tail := *r.sqTail + r.sqPending
	if tail-head >= r.sqEntries {
		return nil, ErrQueueFull
	}
	idx := tail & r.sqMask
	e := &r.sqes[idx]
	*e = sqe{}
	r.sqArray[idx] = idx
	r.sqPending++
	return &Slot{e: e}, nil
}

// Submit publishes all reserved slots to the kernel, advancing the
// submission tail.
func (r *Ring) Submit() (int, error) {
	if r.sqPending == 0 {
		return 0, nil
	}
	tail := atomic.LoadUint32(r.sqTail)
	atomic.StoreUint32(r.sqTail, tail+r.sqPending)
	submitted := r.sqPending
	r.sqPending = 0

	n, err := ioUringEnter(r.fd, submitted, 0, 0)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// WaitCompletion blocks until one completion is available, copies it
// out, and acknowledges it by advancing the completion head. EINTR is
// retried transparently.
func (r *Ring) WaitCompletion() (Completion, error) {
	for {
		head := atomic.LoadUint32(r.cqHead)
		tail := atomic.LoadUint32(r.cqTail)
		if head == tail {
			_, err := ioUringEnter(r.fd, 0, 1, enterGetEvents)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				return Completion{}, &WaitFailedError{Errno: err}
			}
			continue
		}

		c := r.cqes[head&r.cqMask]
		atomic.StoreUint32(r.cqHead, head+1)
		return Completion{Tag: c.UserData, Result: c.Res, Flags: c.Flags}, nil
	}
}

// NextGroupID assigns and records the next buffer-pool group id. Ids
// come from a counter incremented on every call, so they are distinct
// until the 16-bit id space wraps; the recorded set is not consulted.
func (r *Ring) NextGroupID() uint16 {
	id := uint16(atomic.AddUint32(&r.nextGroup, 1) - 1)
	r.groups[id] = struct{}{}
	return id
}

// Fd returns the ring's file descriptor.
func (r *Ring) Fd() int { return r.fd }

// Close tears down the queues. Idempotent.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if !r.singleMmap && r.cqRing != nil {
		unix.Munmap(r.cqRing)
	}
	if r.sqesMmap != nil {
		unix.Munmap(r.sqesMmap)
	}
	if r.sqRing != nil {
		unix.Munmap(r.sqRing)
	}
	return unix.Close(r.fd)
}
