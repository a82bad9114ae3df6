//go:build !linux

package tunnel

import (
	"context"
	"errors"

	"github.com/sweet-bbq-sauce/zportal/control"
	"github.com/sweet-bbq-sauce/zportal/internal/uring"
)

// ErrNotSupported is returned by every Tunnel entry point on platforms
// without an io_uring implementation.
var ErrNotSupported = errors.New("tunnel: not supported on this platform")

type Tunnel struct{}

func New(ring *uring.Ring, tun TUNDevice, peer PeerConn, opts Options) (*Tunnel, error) {
	return nil, ErrNotSupported
}

func (t *Tunnel) Run(ctx context.Context) error   { return ErrNotSupported }
func (t *Tunnel) Close() error                    { return nil }
func (t *Tunnel) Stats() *control.MetricsRegistry { return nil }
