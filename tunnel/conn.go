package tunnel

// TUNDevice is the narrow contract the dispatch loop needs from a TUN
// handle: a raw, readable/writable file descriptor. Configuration
// (address, MTU, up/down) happens before a Tunnel is constructed.
type TUNDevice interface {
	RawFD() uintptr
	Close() error
}

// PeerConn is the narrow contract the dispatch loop needs from a
// connected peer socket. It must already be connected and in
// non-blocking mode; the tunnel never dials or accepts.
type PeerConn interface {
	RawFD() uintptr
	Close() error
}
