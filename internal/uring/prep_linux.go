//go:build linux

package uring

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// SetUserData tags the slot with the 64-bit operation tag carried to
// its completion.
func (s *Slot) SetUserData(tag uint64) { s.e.UserData = tag }

// PrepReadMultishot arms a multishot buffer-select read on fd. The
// kernel keeps producing completions from this single submission
// until it returns an error or the caller cancels it.
func (s *Slot) PrepReadMultishot(fd int, bgid uint16) {
	s.e.Opcode = opReadMultishot
	s.e.Fd = int32(fd)
	s.e.Off = ^uint64(0)
	s.e.Flags |= sqeBufferSelect
	s.e.BufIndexGrp = bgid
}

// PrepRead arms a single-shot buffer-select read on fd.
func (s *Slot) PrepRead(fd int, bgid uint16) {
	s.e.Opcode = opRead
	s.e.Fd = int32(fd)
	s.e.Off = ^uint64(0)
	s.e.Flags |= sqeBufferSelect
	s.e.BufIndexGrp = bgid
}

// PrepRecvMultishot arms a multishot buffer-select receive on fd.
func (s *Slot) PrepRecvMultishot(fd int, bgid uint16) {
	s.e.Opcode = opRecv
	s.e.Fd = int32(fd)
	s.e.IoPrio = recvMultishot
	s.e.Flags |= sqeBufferSelect
	s.e.BufIndexGrp = bgid
}

// PrepRecv arms a single-shot buffer-select receive on fd.
func (s *Slot) PrepRecv(fd int, bgid uint16) {
	s.e.Opcode = opRecv
	s.e.Fd = int32(fd)
	s.e.Flags |= sqeBufferSelect
	s.e.BufIndexGrp = bgid
}

// PrepWritev arms a vectored write of iovecs to fd. iovecs must remain
// valid and unmoved until the completion for this slot arrives.
func (s *Slot) PrepWritev(fd int, iovecs []unix.Iovec) {
	s.e.Opcode = opWritev
	s.e.Fd = int32(fd)
	s.e.Addr = uint64(uintptr(unsafe.Pointer(&iovecs[0])))
	s.e.Len = uint32(len(iovecs))
}

// PrepSendmsg arms a sendmsg submission for fd with MSG_NOSIGNAL, so a
// peer that resets the connection surfaces as an ECONNRESET/EPIPE
// completion result rather than a process-wide SIGPIPE. msg must
// remain valid and unmoved until the completion for this slot arrives.
func (s *Slot) PrepSendmsg(fd int, msg *unix.Msghdr) {
	s.e.Opcode = opSendmsg
	s.e.Fd = int32(fd)
	s.e.Addr = uint64(uintptr(unsafe.Pointer(msg)))
	s.e.Len = 1
	s.e.OpFlags = uint32(unix.MSG_NOSIGNAL)
}
