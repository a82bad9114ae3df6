package frame

import (
	"errors"

	"github.com/eapache/queue"

	"github.com/sweet-bbq-sauce/zportal/pool"
	"github.com/sweet-bbq-sauce/zportal/wire"
)

// ErrDesynchronized is returned when a frame's magic does not match;
// the wire stream cannot be trusted past this point.
var ErrDesynchronized = errors.New("frame: desynchronized (bad magic)")

// ErrOversize is returned when a frame's declared size is zero or
// exceeds maxFrameSize; the wire stream cannot be trusted past this
// point.
var ErrOversize = errors.New("frame: oversize")

// maxFrameSize bounds a single frame's payload. It is fixed at 1500
// bytes and does not follow the MTU configured for the TUN device, so
// a peer frame larger than 1500 bytes fails with ErrOversize even when
// the configured MTU is higher.
const maxFrameSize = 1500

type state uint8

const (
	stateReadingHeader state = iota
	stateReadingPayload
)

type chunk struct {
	bid    uint16
	offset int
	length int
}

// Parser drives the header/payload state machine over chunks pushed
// from completed reads, producing zero-copy Frames backed by bp.
// A Parser is not safe for concurrent use; it is driven by one
// dispatch loop.
type Parser struct {
	pool *pool.BufferPool

	state        state
	inputQueue   []chunk
	readProgress int
	header       wire.Envelope
	building     *Frame

	bidRefcount []int
	bidToReturn *queue.Queue

	nextFrameID FrameID
	readyFrames *queue.Queue
	frames      map[FrameID]*Frame
}

// NewParser creates a parser drawing its chunk bytes from bp.
func NewParser(bp *pool.BufferPool) *Parser {
	return &Parser{
		pool:        bp,
		bidRefcount: make([]int, bp.Count()),
		bidToReturn: queue.New(),
		readyFrames: queue.New(),
		frames:      make(map[FrameID]*Frame),
	}
}

// PushChunk feeds size bytes of newly completed data residing in bid
// into the parser. It may complete zero, one, or several frames
// depending on how much of the header/payload boundary the chunk
// crosses. Completed frames are queued for NextFrameID and retrievable
// via Frame until ReleaseFrame is called.
func (p *Parser) PushChunk(bid uint16, size int) error {
	p.inputQueue = append(p.inputQueue, chunk{bid: bid, length: size})

	for {
		switch p.state {
		case stateReadingHeader:
			for p.readProgress < wire.Size && len(p.inputQueue) > 0 {
				c := &p.inputQueue[0]

				need := wire.Size - p.readProgress
				take := need
				if c.length < take {
					take = c.length
				}

				src := p.pool.BidBytes(c.bid, c.offset, take)
				copy(p.header.Bytes()[p.readProgress:p.readProgress+take], src)

				c.offset += take
				c.length -= take
				p.readProgress += take

				if c.length == 0 {
					p.bidToReturn.Add(c.bid)
					p.inputQueue = p.inputQueue[1:]
				}
			}

			if p.readProgress < wire.Size {
				return nil
			}

			if !p.header.Valid() {
				return ErrDesynchronized
			}

			frameSize := int(p.header.GetSize())
			if frameSize == 0 || frameSize > maxFrameSize {
				return ErrOversize
			}

			p.building = &Frame{Envelope: p.header}
			p.state = stateReadingPayload
			p.readProgress = 0
			continue

		case stateReadingPayload:
			whole := int(p.header.GetSize())

			for p.readProgress < whole && len(p.inputQueue) > 0 {
				c := &p.inputQueue[0]

				need := whole - p.readProgress
				take := need
				if c.length < take {
					take = c.length
				}

				p.building.segments = append(p.building.segments, Segment{
					Bid:    c.bid,
					Offset: c.offset,
					Length: take,
				})
				p.building.bids = append(p.building.bids, c.bid)
				p.bidRefcount[c.bid]++

				c.offset += take
				c.length -= take
				p.readProgress += take

				if c.length == 0 {
					p.bidToReturn.Add(c.bid)
					p.inputQueue = p.inputQueue[1:]
				}
			}

			if p.readProgress < whole {
				return nil
			}

			id := p.nextFrameID
			p.nextFrameID++
			p.frames[id] = p.building
			p.readyFrames.Add(id)

			p.building = nil
			p.state = stateReadingHeader
			p.readProgress = 0
			continue
		}
	}
}

// NextFrameID pops the oldest completed, unreleased frame id, if any.
func (p *Parser) NextFrameID() (FrameID, bool) {
	if p.readyFrames.Length() == 0 {
		return 0, false
	}
	id := p.readyFrames.Peek().(FrameID)
	p.readyFrames.Remove()
	return id, true
}

// Frame looks up a completed frame by id.
func (p *Parser) Frame(id FrameID) (*Frame, bool) {
	f, ok := p.frames[id]
	return f, ok
}

// ReleaseFrame drops the parser's bookkeeping for id and returns any
// backing buffers whose refcount has reached zero, in the order they
// were consumed.
func (p *Parser) ReleaseFrame(id FrameID) {
	f, ok := p.frames[id]
	if !ok {
		return
	}

	for _, bid := range f.bids {
		if int(bid) >= len(p.bidRefcount) {
			continue
		}
		if p.bidRefcount[bid] > 0 {
			p.bidRefcount[bid]--
		}
	}

	for p.bidToReturn.Length() > 0 {
		bid := p.bidToReturn.Peek().(uint16)
		if int(bid) >= len(p.bidRefcount) || p.bidRefcount[bid] != 0 {
			break
		}
		p.pool.ReturnBuffer(bid)
		p.bidToReturn.Remove()
	}

	delete(p.frames, id)
}
