//go:build linux

package tunnel

import (
	"testing"

	"github.com/sweet-bbq-sauce/zportal/wire"
)

func TestOutFrameRemainingIovecsBeforeAnyBytesSent(t *testing.T) {
	var env wire.Envelope
	env.Clean()
	env.SetSize(3)
	f := &outFrame{envelope: env, payload: []byte("abc")}

	iovs := f.remainingIovecs()
	if len(iovs) != 2 {
		t.Fatalf("expected 2 iovecs (envelope+payload), got %d", len(iovs))
	}
}

func TestOutFrameRemainingIovecsAfterPartialEnvelopeSent(t *testing.T) {
	var env wire.Envelope
	env.Clean()
	env.SetSize(3)
	f := &outFrame{envelope: env, payload: []byte("abc"), cursor: 10}

	iovs := f.remainingIovecs()
	if len(iovs) != 2 {
		t.Fatalf("expected 2 iovecs (envelope tail + payload), got %d", len(iovs))
	}
}

func TestOutFrameRemainingIovecsDuringPayload(t *testing.T) {
	var env wire.Envelope
	env.Clean()
	env.SetSize(3)
	f := &outFrame{envelope: env, payload: []byte("abc"), cursor: wire.Size + 1}

	iovs := f.remainingIovecs()
	if len(iovs) != 1 {
		t.Fatalf("expected 1 iovec (payload tail only), got %d", len(iovs))
	}
}

func TestOutFrameTotal(t *testing.T) {
	f := &outFrame{payload: make([]byte, 100)}
	if f.total() != wire.Size+100 {
		t.Fatalf("unexpected total: %d", f.total())
	}
}
