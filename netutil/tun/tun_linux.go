//go:build linux

package tun

import (
	"fmt"
	"os/exec"

	"golang.org/x/sys/unix"

	"github.com/sweet-bbq-sauce/zportal/netutil/addr"
)

// Device is an open TUN interface. It satisfies tunnel.TUNDevice.
type Device struct {
	fd   int
	name string
	mtu  uint32
}

// Open creates or attaches to the TUN interface named name (pass ""
// to let the kernel pick tun0, tun1, ...), configured IFF_TUN|IFF_NO_PI.
func Open(name string) (*Device, error) {
	fd, err := unix.Open("/dev/net/tun", unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("tun: open /dev/net/tun: %w", err)
	}

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tun: invalid interface name %q: %w", name, err)
	}
	ifr.SetUint16(unix.IFF_TUN | unix.IFF_NO_PI)

	if err := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("tun: TUNSETIFF: %w", err)
	}

	return &Device{fd: fd, name: ifr.Name()}, nil
}

// RawFD returns the underlying file descriptor for arming io_uring
// reads/writes.
func (d *Device) RawFD() uintptr { return uintptr(d.fd) }

// Name returns the kernel-assigned or requested interface name.
func (d *Device) Name() string { return d.name }

// MTU returns the MTU last set via SetMTU.
func (d *Device) MTU() uint32 { return d.mtu }

// SetCIDR assigns an address and prefix to the interface via ip(8).
func (d *Device) SetCIDR(c addr.CIDR) error {
	return runIP("addr", "add", c.String(), "dev", d.name)
}

// SetMTU sets the interface MTU via ip(8).
func (d *Device) SetMTU(mtu uint32) error {
	if err := runIP("link", "set", "dev", d.name, "mtu", fmt.Sprint(mtu)); err != nil {
		return err
	}
	d.mtu = mtu
	return nil
}

// SetUp brings the interface up via ip(8).
func (d *Device) SetUp() error {
	return runIP("link", "set", "dev", d.name, "up")
}

// SetDown takes the interface down via ip(8).
func (d *Device) SetDown() error {
	return runIP("link", "set", "dev", d.name, "down")
}

// Close closes the underlying file descriptor. It does not bring the
// interface down; call SetDown first if that is desired.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

func runIP(args ...string) error {
	cmd := exec.Command("ip", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tun: ip %v: %w: %s", args, err, out)
	}
	return nil
}
