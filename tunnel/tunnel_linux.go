//go:build linux

package tunnel

import (
	"context"
	"fmt"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"github.com/sweet-bbq-sauce/zportal/control"
	"github.com/sweet-bbq-sauce/zportal/internal/uring"
	"github.com/sweet-bbq-sauce/zportal/pool"
	"github.com/sweet-bbq-sauce/zportal/tunnel/frame"
	"github.com/sweet-bbq-sauce/zportal/tunnel/optag"
	"github.com/sweet-bbq-sauce/zportal/wire"
	"github.com/sweet-bbq-sauce/zportal/wire/crc32c"
)

// outFrame is one queued outbound frame awaiting transmission. cursor
// tracks how many bytes of the conceptual [envelope, payload]
// concatenation have already been sent, so a partial send can
// re-submit only the remaining tail.
type outFrame struct {
	envelope wire.Envelope
	payload  []byte
	cursor   int

	// iovecs and msg back the in-flight sendmsg for this frame and stay
	// reachable until its Send completion.
	iovecs []unix.Iovec
	msg    unix.Msghdr
}

func (f *outFrame) total() int { return wire.Size + len(f.payload) }

func (f *outFrame) remainingIovecs() []unix.Iovec {
	if f.cursor < wire.Size {
		env := unix.Iovec{Base: &f.envelope[f.cursor]}
		env.SetLen(wire.Size - f.cursor)
		iovs := []unix.Iovec{env}
		if len(f.payload) > 0 {
			pay := unix.Iovec{Base: &f.payload[0]}
			pay.SetLen(len(f.payload))
			iovs = append(iovs, pay)
		}
		return iovs
	}
	payCursor := f.cursor - wire.Size
	pay := unix.Iovec{Base: &f.payload[payCursor]}
	pay.SetLen(len(f.payload) - payCursor)
	return []unix.Iovec{pay}
}

type pendingWrite struct {
	frameID frame.FrameID
	iovecs  []unix.Iovec
}

// Tunnel is the per-connection dispatch loop: one submission ring,
// one TUN handle, one peer connection, two buffer pools, a frame
// parser, and a strictly-FIFO outbound send queue with at most one
// send in flight.
type Tunnel struct {
	ring *uring.Ring
	tun  TUNDevice
	peer PeerConn

	tunPool  *pool.BufferPool
	peerPool *pool.BufferPool
	parser   *frame.Parser

	sendQueue *queue.Queue
	sending   bool

	pendingWrites map[uint16]*pendingWrite
	nextWriteSlot uint16

	stats         *control.MetricsRegistry
	framesToTUN   int64
	framesFromTUN int64
	bytesFromTUN  int64
	bytesFromPeer int64
	bytesToPeer   int64

	opts    Options
	closing bool
}

// Stats returns the tunnel's live metrics registry (bytes and frames
// moved in each direction). Safe to poll concurrently with Run.
func (t *Tunnel) Stats() *control.MetricsRegistry { return t.stats }

// New creates a Tunnel bound to ring, tun and peer, registering two
// buffer pools sized per opts.
func New(ring *uring.Ring, tun TUNDevice, peer PeerConn, opts Options) (*Tunnel, error) {
	mgr := pool.NewManager(ring)

	tunPool, err := mgr.New(opts.TUNPoolCount, opts.TUNBufSize, opts.ReturnBatch)
	if err != nil {
		return nil, fmt.Errorf("tunnel: create TUN pool: %w", err)
	}
	peerPool, err := mgr.New(opts.PeerPoolCount, opts.PeerBufSize, opts.ReturnBatch)
	if err != nil {
		tunPool.Close()
		return nil, fmt.Errorf("tunnel: create peer pool: %w", err)
	}

	return &Tunnel{
		ring:          ring,
		tun:           tun,
		peer:          peer,
		tunPool:       tunPool,
		peerPool:      peerPool,
		parser:        frame.NewParser(peerPool),
		sendQueue:     queue.New(),
		pendingWrites: make(map[uint16]*pendingWrite),
		stats:         control.NewMetricsRegistry(),
		opts:          opts,
	}, nil
}

// Run drives the loop until ctx is done, the peer closes, or a fatal
// error is encountered. It blocks on the ring's completion wait; every
// other step is synchronous.
func (t *Tunnel) Run(ctx context.Context) error {
	if err := t.armRead(); err != nil {
		return err
	}
	if err := t.armRecv(); err != nil {
		return err
	}
	if _, err := t.ring.Submit(); err != nil {
		return newError(ErrCodeWaitFailed, "initial submit failed").WithContext("err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c, err := t.ring.WaitCompletion()
		if err != nil {
			return newError(ErrCodeWaitFailed, "wait_completion failed").WithContext("err", err)
		}

		kind, slot := optag.Decode(c.Tag)
		switch kind {
		case optag.Recv:
			if err := t.onRecv(c, slot); err != nil {
				return err
			}
		case optag.Write:
			t.onWrite(slot)
		case optag.Read:
			if err := t.onRead(c); err != nil {
				return err
			}
		case optag.Send:
			if err := t.onSend(c); err != nil {
				return err
			}
		}

		if t.closing {
			return nil
		}
	}
}

func (t *Tunnel) armRead() error {
	slot, err := t.ring.SQE()
	if err != nil {
		return err
	}
	slot.PrepReadMultishot(int(t.tun.RawFD()), t.tunPool.GroupID())
	slot.SetUserData(optag.Encode(optag.Read, 0))
	return nil
}

func (t *Tunnel) armRecv() error {
	slot, err := t.ring.SQE()
	if err != nil {
		return err
	}
	slot.PrepRecvMultishot(int(t.peer.RawFD()), t.peerPool.GroupID())
	slot.SetUserData(optag.Encode(optag.Recv, 0))
	return nil
}

func (t *Tunnel) onRecv(c uring.Completion, _ uint16) error {
	if c.Result == 0 {
		t.closing = true
		return newError(ErrCodePeerClosed, "peer closed connection").WithContext("side", "recv")
	}
	if c.Result < 0 {
		if !c.More() {
			if err := t.armRecv(); err != nil {
				return err
			}
			if _, err := t.ring.Submit(); err != nil {
				return newError(ErrCodeWaitFailed, "submit after recv rearm failed").WithContext("err", err)
			}
		}
		return nil
	}

	bid, ok := c.BufferID()
	if !ok {
		return newError(ErrCodeInvariantViolation, "recv completion without buffer id")
	}

	if err := t.parser.PushChunk(bid, int(c.Result)); err != nil {
		t.closing = true
		switch err {
		case frame.ErrDesynchronized:
			return newError(ErrCodeDesynchronized, "peer stream desynchronized").WithContext("err", err)
		case frame.ErrOversize:
			return newError(ErrCodeOversize, "frame exceeds maximum size").WithContext("err", err)
		default:
			return newError(ErrCodeInvariantViolation, "parser error").WithContext("err", err)
		}
	}

	t.bytesFromPeer += int64(c.Result)
	t.stats.Set("bytes_from_peer", t.bytesFromPeer)

	for {
		id, ok := t.parser.NextFrameID()
		if !ok {
			break
		}
		if err := t.submitWrite(id); err != nil {
			return err
		}
	}

	if !c.More() {
		if err := t.armRecv(); err != nil {
			return err
		}
	}

	if _, err := t.ring.Submit(); err != nil {
		return newError(ErrCodeWaitFailed, "submit after recv failed").WithContext("err", err)
	}
	return nil
}

func (t *Tunnel) submitWrite(id frame.FrameID) error {
	f, ok := t.parser.Frame(id)
	if !ok {
		return nil
	}

	if !f.VerifyChecksum(t.peerPool) {
		t.parser.ReleaseFrame(id)
		return nil
	}

	segs := f.Segments()
	iovecs := make([]unix.Iovec, len(segs))
	for i, s := range segs {
		b := t.peerPool.BidBytes(s.Bid, s.Offset, s.Length)
		iov := unix.Iovec{Base: &b[0]}
		iov.SetLen(len(b))
		iovecs[i] = iov
	}

	slot := t.nextWriteSlot
	t.nextWriteSlot++
	t.pendingWrites[slot] = &pendingWrite{frameID: id, iovecs: iovecs}

	sqe, err := t.ring.SQE()
	if err != nil {
		return err
	}
	sqe.PrepWritev(int(t.tun.RawFD()), iovecs)
	sqe.SetUserData(optag.Encode(optag.Write, slot))
	return nil
}

func (t *Tunnel) onWrite(slot uint16) {
	pw, ok := t.pendingWrites[slot]
	if !ok {
		return
	}
	delete(t.pendingWrites, slot)
	t.parser.ReleaseFrame(pw.frameID)

	t.framesToTUN++
	t.stats.Set("frames_to_tun", t.framesToTUN)
}

func (t *Tunnel) onRead(c uring.Completion) error {
	if c.Result < 0 {
		if !c.More() {
			if err := t.armRead(); err != nil {
				return err
			}
			if _, err := t.ring.Submit(); err != nil {
				return newError(ErrCodeWaitFailed, "submit after read rearm failed").WithContext("err", err)
			}
		}
		return nil
	}

	bid, ok := c.BufferID()
	if !ok {
		return newError(ErrCodeInvariantViolation, "read completion without buffer id")
	}

	n := int(c.Result)
	payload := make([]byte, n)
	copy(payload, t.tunPool.BidBytes(bid, 0, n))
	t.tunPool.ReturnBuffer(bid)

	var env wire.Envelope
	env.Clean()
	env.SetSize(uint32(n))
	env.SetChecksum(crc32c.Checksum(payload))

	t.sendQueue.Add(&outFrame{envelope: env, payload: payload})

	t.framesFromTUN++
	t.bytesFromTUN += int64(n)
	t.stats.Set("frames_from_tun", t.framesFromTUN)
	t.stats.Set("bytes_from_tun", t.bytesFromTUN)

	if !c.More() {
		if err := t.armRead(); err != nil {
			return err
		}
	}

	if err := t.kickSend(); err != nil {
		return err
	}
	if _, err := t.ring.Submit(); err != nil {
		return newError(ErrCodeWaitFailed, "submit after read failed").WithContext("err", err)
	}
	return nil
}

func (t *Tunnel) onSend(c uring.Completion) error {
	if t.sendQueue.Length() == 0 {
		t.sending = false
		return nil
	}
	f := t.sendQueue.Peek().(*outFrame)

	if c.Result < 0 {
		return newError(ErrCodeIO, "send failed").WithContext("result", c.Result)
	}
	if c.Result == 0 {
		t.closing = true
		return newError(ErrCodePeerClosed, "peer closed connection").WithContext("side", "send")
	}

	f.cursor += int(c.Result)
	t.sending = false

	t.bytesToPeer += int64(c.Result)
	t.stats.Set("bytes_to_peer", t.bytesToPeer)

	if f.cursor >= f.total() {
		t.sendQueue.Remove()
	}

	if err := t.kickSend(); err != nil {
		return err
	}
	if _, err := t.ring.Submit(); err != nil {
		return newError(ErrCodeWaitFailed, "submit after send failed").WithContext("err", err)
	}
	return nil
}

func (t *Tunnel) kickSend() error {
	if t.sending || t.sendQueue.Length() == 0 {
		return nil
	}

	f := t.sendQueue.Peek().(*outFrame)
	f.iovecs = f.remainingIovecs()

	f.msg = unix.Msghdr{}
	f.msg.Iov = &f.iovecs[0]
	f.msg.SetIovlen(len(f.iovecs))

	sqe, err := t.ring.SQE()
	if err != nil {
		return err
	}
	sqe.PrepSendmsg(int(t.peer.RawFD()), &f.msg)
	sqe.SetUserData(optag.Encode(optag.Send, 0))

	t.sending = true
	return nil
}

// Close tears down both buffer pools. The ring, TUN device and peer
// connection are owned by the caller and closed separately.
func (t *Tunnel) Close() error {
	var firstErr error
	if err := t.peerPool.Close(); err != nil {
		firstErr = err
	}
	if err := t.tunPool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
