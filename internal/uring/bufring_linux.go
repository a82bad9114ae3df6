//go:build linux

package uring

import (
	"fmt"
	"unsafe"
)

// RegisterBufRing registers a caller-allocated, page-aligned region of
// memory as a ring-backed buffer pool (IORING_REGISTER_PBUF_RING). mem
// must be large enough to hold entries io_uring_buf-sized slots.
func (r *Ring) RegisterBufRing(mem []byte, entries uint16, bgid uint16) error {
	reg := bufRegister{
		RingAddr:    uint64(uintptr(unsafe.Pointer(&mem[0]))),
		RingEntries: uint32(entries),
		Bgid:        bgid,
	}
	if err := ioUringRegister(r.fd, registerPBufRing, unsafe.Pointer(&reg), 1); err != nil {
		return fmt.Errorf("register buf ring (bgid=%d): %w", bgid, err)
	}
	return nil
}

// UnregisterBufRing removes a previously registered buffer-pool ring.
func (r *Ring) UnregisterBufRing(bgid uint16) error {
	reg := bufRegister{Bgid: bgid}
	if err := ioUringRegister(r.fd, unregisterPBufRing, unsafe.Pointer(&reg), 1); err != nil {
		return fmt.Errorf("unregister buf ring (bgid=%d): %w", bgid, err)
	}
	return nil
}

// BufRingAdd publishes one buffer descriptor at slot (tail+offset)&mask
// within the registered ring's backing memory. It does not advance the
// tail; call BufRingAdvance after adding one or more entries.
func BufRingAdd(mem []byte, mask uint16, addr uint64, length uint32, bid uint16, offset uint16) {
	tail := bufRingTailOf(mem).Tail
	idx := (tail + offset) & mask
	entries := unsafe.Slice((*bufRingEntry)(unsafe.Pointer(&mem[0])), uint32(mask)+1)
	entries[idx] = bufRingEntry{Addr: addr, Len: length, Bid: bid}
}

// BufRingAdvance commits count previously added entries, making them
// visible to the kernel. Unlike liburing's io_uring_buf_ring_advance,
// which uses a release store, this is a plain store; the subsequent
// io_uring_enter call is relied on as the synchronization point with
// the kernel.
func BufRingAdvance(mem []byte, count uint16) {
	t := bufRingTailOf(mem)
	t.Tail += count
}

func bufRingTailOf(mem []byte) *bufRingTail {
	return (*bufRingTail)(unsafe.Pointer(&mem[0]))
}
