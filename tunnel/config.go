package tunnel

import "log"

// Options configures the two buffer pools of a Tunnel. Logger is kept
// with them, but the dispatch loop writes no log lines to it. The zero
// value is not usable; construct with DefaultOptions and override
// fields as needed.
type Options struct {
	// TUN-side pool: buffers backing reads from the TUN device.
	TUNPoolCount uint16
	TUNBufSize   uint32

	// Peer-side pool: buffers backing receives from the peer socket.
	PeerPoolCount uint16
	PeerBufSize   uint32

	// ReturnBatch bounds how many buffer returns are batched before an
	// implicit flush; 0 republishes every return immediately.
	ReturnBatch uint16

	Logger *log.Logger
}

// DefaultOptions returns a peer-side pool of 1024x4096 buffers and a
// TUN-side pool of 1024x2048 buffers, batching buffer returns in
// groups of 32.
func DefaultOptions() Options {
	return Options{
		TUNPoolCount:  1024,
		TUNBufSize:    2048,
		PeerPoolCount: 1024,
		PeerBufSize:   4096,
		ReturnBatch:   32,
		Logger:        log.Default(),
	}
}
