//go:build !linux

package uring

import "errors"

// ErrNotSupported is returned by every entry point on platforms without
// an io_uring implementation.
var ErrNotSupported = errors.New("uring: not supported on this platform")

type Ring struct{}

type Slot struct{}

type Completion struct {
	Tag    uint64
	Result int32
	Flags  uint32
}

func (c Completion) BufferID() (uint16, bool) { return 0, false }
func (c Completion) More() bool               { return false }

func Open(entries uint32) (*Ring, error) { return nil, ErrNotSupported }

func (r *Ring) SQE() (*Slot, error)                { return nil, ErrNotSupported }
func (r *Ring) Submit() (int, error)                { return 0, ErrNotSupported }
func (r *Ring) WaitCompletion() (Completion, error) { return Completion{}, ErrNotSupported }
func (r *Ring) NextGroupID() uint16                 { return 0 }
func (r *Ring) Fd() int                             { return -1 }
func (r *Ring) Close() error                        { return nil }

func (r *Ring) RegisterBufRing(mem []byte, entries uint16, bgid uint16) error {
	return ErrNotSupported
}
func (r *Ring) UnregisterBufRing(bgid uint16) error { return ErrNotSupported }

func BufRingAdd(mem []byte, mask uint16, addr uint64, length uint32, bid uint16, offset uint16) {}
func BufRingAdvance(mem []byte, count uint16)                                                   {}

func (s *Slot) SetUserData(tag uint64)                {}
func (s *Slot) PrepReadMultishot(fd int, bgid uint16) {}
func (s *Slot) PrepRead(fd int, bgid uint16)          {}
func (s *Slot) PrepRecvMultishot(fd int, bgid uint16) {}
func (s *Slot) PrepRecv(fd int, bgid uint16)          {}
