// Package frame reassembles an ordered stream of pool-backed chunks
// into discrete wire frames without copying payload bytes: each
// frame's segments reference spans of the originating buffers
// directly, and the buffers are only reclaimed once every frame that
// references them has been released.
package frame

import (
	"github.com/sweet-bbq-sauce/zportal/pool"
	"github.com/sweet-bbq-sauce/zportal/wire"
	"github.com/sweet-bbq-sauce/zportal/wire/crc32c"
)

// FrameID identifies a frame handed out by a Parser until it is
// released with ReleaseFrame.
type FrameID uint64

// Segment is a zero-copy span of one pool buffer contributing to a
// frame's payload.
type Segment struct {
	Bid    uint16
	Offset int
	Length int
}

// Frame is one fully reassembled envelope plus its payload segments.
type Frame struct {
	Envelope wire.Envelope
	segments []Segment
	bids     []uint16
}

// Segments returns the ordered, zero-copy payload spans.
func (f *Frame) Segments() []Segment { return f.segments }

// Payload materializes the frame's payload bytes. Single-segment
// frames return a view into the pool arena without copying;
// multi-segment frames are concatenated into one owned buffer.
func (f *Frame) Payload(bp *pool.BufferPool) []byte {
	if len(f.segments) == 1 {
		s := f.segments[0]
		return bp.BidBytes(s.Bid, s.Offset, s.Length)
	}
	total := 0
	for _, s := range f.segments {
		total += s.Length
	}
	out := make([]byte, 0, total)
	for _, s := range f.segments {
		out = append(out, bp.BidBytes(s.Bid, s.Offset, s.Length)...)
	}
	return out
}

// VerifyChecksum recomputes CRC32C over the reassembled payload and
// compares it to the envelope's carried checksum.
func (f *Frame) VerifyChecksum(bp *pool.BufferPool) bool {
	return crc32c.Checksum(f.Payload(bp)) == f.Envelope.GetChecksum()
}
