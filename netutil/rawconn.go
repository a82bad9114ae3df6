package netutil

import (
	"fmt"
	"net"
	"syscall"
)

// RawConn wraps a net.Conn backed by a type exposing syscall.Conn
// (as *net.TCPConn and *net.UnixConn do) and exposes its file
// descriptor, so it can be armed directly on an io_uring submission
// ring. Once wrapped, only RawFD and Close are used; the original
// conn's blocking Read/Write are bypassed.
type RawConn struct {
	conn net.Conn
	fd   uintptr
}

// NewRawConn extracts the file descriptor backing conn.
func NewRawConn(conn net.Conn) (*RawConn, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil, fmt.Errorf("netutil: %T does not expose a raw file descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("netutil: syscall conn: %w", err)
	}

	var fd uintptr
	var ctrlErr error
	if err := raw.Control(func(v uintptr) { fd = v }); err != nil {
		ctrlErr = err
	}
	if ctrlErr != nil {
		return nil, fmt.Errorf("netutil: control: %w", ctrlErr)
	}

	return &RawConn{conn: conn, fd: fd}, nil
}

// RawFD returns the underlying file descriptor.
func (r *RawConn) RawFD() uintptr { return r.fd }

// Close closes the wrapped connection.
func (r *RawConn) Close() error { return r.conn.Close() }
