//go:build !linux

package tun

import (
	"errors"

	"github.com/sweet-bbq-sauce/zportal/netutil/addr"
)

// ErrNotSupported is returned by every Device entry point on
// platforms without a /dev/net/tun character device.
var ErrNotSupported = errors.New("tun: not supported on this platform")

type Device struct{}

func Open(name string) (*Device, error) { return nil, ErrNotSupported }

func (d *Device) RawFD() uintptr        { return ^uintptr(0) }
func (d *Device) Name() string          { return "" }
func (d *Device) MTU() uint32           { return 0 }
func (d *Device) SetCIDR(addr.CIDR) error { return ErrNotSupported }
func (d *Device) SetMTU(uint32) error   { return ErrNotSupported }
func (d *Device) SetUp() error          { return ErrNotSupported }
func (d *Device) SetDown() error        { return ErrNotSupported }
func (d *Device) Close() error          { return nil }
