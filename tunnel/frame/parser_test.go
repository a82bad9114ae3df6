//go:build linux

package frame_test

import (
	"testing"

	"github.com/sweet-bbq-sauce/zportal/internal/uring"
	"github.com/sweet-bbq-sauce/zportal/pool"
	"github.com/sweet-bbq-sauce/zportal/tunnel/frame"
	"github.com/sweet-bbq-sauce/zportal/wire"
	"github.com/sweet-bbq-sauce/zportal/wire/crc32c"
)

func newTestPool(t *testing.T) (*uring.Ring, *pool.BufferPool) {
	t.Helper()
	r, err := uring.Open(32)
	if err != nil {
		t.Skipf("io_uring unavailable in this environment: %v", err)
	}
	mgr := pool.NewManager(r)
	bp, err := mgr.New(16, 256, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { bp.Close(); r.Close() })
	return r, bp
}

func buildFrame(payload []byte) []byte {
	var env wire.Envelope
	env.Clean()
	env.SetSize(uint32(len(payload)))
	env.SetChecksum(crc32c.Checksum(payload))
	out := make([]byte, 0, wire.Size+len(payload))
	out = append(out, env.Bytes()...)
	out = append(out, payload...)
	return out
}

func seedBid(bp *pool.BufferPool, bid uint16, data []byte) {
	dst := bp.BidBytes(bid, 0, len(data))
	copy(dst, data)
}

func TestParserSingleChunkFrame(t *testing.T) {
	_, bp := newTestPool(t)
	p := frame.NewParser(bp)

	raw := buildFrame([]byte("hello world"))
	seedBid(bp, 0, raw)

	if err := p.PushChunk(0, len(raw)); err != nil {
		t.Fatalf("PushChunk: %v", err)
	}

	id, ok := p.NextFrameID()
	if !ok {
		t.Fatal("expected a completed frame")
	}
	f, ok := p.Frame(id)
	if !ok {
		t.Fatal("frame not found by id")
	}
	if !f.VerifyChecksum(bp) {
		t.Fatal("checksum verification failed")
	}
	if string(f.Payload(bp)) != "hello world" {
		t.Fatalf("unexpected payload: %q", f.Payload(bp))
	}
}

func TestParserFrameSplitAcrossChunks(t *testing.T) {
	_, bp := newTestPool(t)
	p := frame.NewParser(bp)

	raw := buildFrame([]byte("split across many small chunks"))

	for i := 0; i < len(raw); i += 3 {
		end := i + 3
		if end > len(raw) {
			end = len(raw)
		}
		bid := uint16(i / 3 % 16)
		seedBid(bp, bid, raw[i:end])
		if err := p.PushChunk(bid, end-i); err != nil {
			t.Fatalf("PushChunk at %d: %v", i, err)
		}
	}

	id, ok := p.NextFrameID()
	if !ok {
		t.Fatal("expected a completed frame")
	}
	f, _ := p.Frame(id)
	if string(f.Payload(bp)) != "split across many small chunks" {
		t.Fatalf("unexpected reassembled payload: %q", f.Payload(bp))
	}
}

func TestParserRejectsBadMagic(t *testing.T) {
	_, bp := newTestPool(t)
	p := frame.NewParser(bp)

	bad := make([]byte, wire.Size)
	seedBid(bp, 0, bad)

	if err := p.PushChunk(0, wire.Size); err != frame.ErrDesynchronized {
		t.Fatalf("expected ErrDesynchronized, got %v", err)
	}
}

func TestParserRejectsOversizeFrame(t *testing.T) {
	_, bp := newTestPool(t)
	p := frame.NewParser(bp)

	var env wire.Envelope
	env.Clean()
	env.SetSize(2000)
	seedBid(bp, 0, env.Bytes())

	if err := p.PushChunk(0, wire.Size); err != frame.ErrOversize {
		t.Fatalf("expected ErrOversize, got %v", err)
	}
}

func TestReleaseFrameRemovesFrame(t *testing.T) {
	_, bp := newTestPool(t)
	p := frame.NewParser(bp)

	raw := buildFrame([]byte("shared bid across frames"))
	seedBid(bp, 0, raw)
	if err := p.PushChunk(0, len(raw)); err != nil {
		t.Fatalf("PushChunk: %v", err)
	}

	id, _ := p.NextFrameID()
	p.ReleaseFrame(id) // must not panic even though it is the only reference
	if _, ok := p.Frame(id); ok {
		t.Fatal("released frame should no longer be retrievable")
	}
}
