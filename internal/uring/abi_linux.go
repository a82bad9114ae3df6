//go:build linux

package uring

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// sqOffsets / cqOffsets mirror struct io_uring_sqring_offsets /
// io_uring_cqring_offsets from the kernel UAPI: byte offsets, within
// the mmap'd ring region, of the head/tail/mask/etc. words.
type sqOffsets struct {
	Head, Tail, RingMask, RingEntries, Flags, Dropped, Array, Resv1 uint32
	Resv2                                                           uint64
}

type cqOffsets struct {
	Head, Tail, RingMask, RingEntries, Overflow, CQEs, Flags uint32
	Resv1                                                    uint32
	Resv2                                                    uint64
}

// params mirrors struct io_uring_params.
type params struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        sqOffsets
	CQOff        cqOffsets
}

// sqe mirrors struct io_uring_sqe (64 bytes). Only the fields the
// dispatch loop populates are named individually; the rest of the
// kernel's union slots are accessed directly where needed.
type sqe struct {
	Opcode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64
	Addr        uint64
	Len         uint32
	OpFlags     uint32
	UserData    uint64
	BufIndexGrp uint16
	Personality uint16
	SpliceFDIn  int32
	Addr3       uint64
	_Pad        uint64
}

// cqe mirrors struct io_uring_cqe (16 bytes).
type cqe struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// bufRingEntry mirrors struct io_uring_buf: one published buffer
// descriptor inside a registered buffer ring.
type bufRingEntry struct {
	Addr uint64
	Len  uint32
	Bid  uint16
	Resv uint16
}

// bufRingTail overlays the first entry of a registered buffer ring;
// the kernel keeps the ring's producer tail in its last two bytes.
type bufRingTail struct {
	_resv1 uint64
	_resv2 uint32
	_resv3 uint16
	Tail   uint16
}

// bufRegister mirrors struct io_uring_buf_reg, used to register or
// unregister a ring-backed buffer pool via io_uring_register(2).
type bufRegister struct {
	RingAddr    uint64
	RingEntries uint32
	Bgid        uint16
	Flags       uint16
	Resv        [3]uint64
}

func ioUringSetup(entries uint32, p *params) (int, error) {
	r1, _, errno := unix.Syscall(sysIOUringSetup, uintptr(entries), uintptr(unsafe.Pointer(p)), 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}

func ioUringEnter(fd int, toSubmit, minComplete uint32, flags uint32) (int, error) {
	r1, _, errno := unix.Syscall6(sysIOUringEnter, uintptr(fd), uintptr(toSubmit), uintptr(minComplete),
		uintptr(flags), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r1), nil
}

func ioUringRegister(fd int, opcode uint32, arg unsafe.Pointer, nrArgs uint32) error {
	_, _, errno := unix.Syscall6(sysIOUringRegister, uintptr(fd), uintptr(opcode), uintptr(arg),
		uintptr(nrArgs), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
