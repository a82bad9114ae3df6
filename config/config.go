// Package config parses zportal's command-line flags into a validated
// Config, and exposes the process-wide verbose/monitor toggles.
package config

import (
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/sweet-bbq-sauce/zportal/control"
	"github.com/sweet-bbq-sauce/zportal/netutil/addr"
)

// Verbose and Monitor are set once at startup from the -V and -M flags
// and read without locking. Monitor enables cmd/zportal's periodic
// stats log; Verbose is only reported (on SIGHUP) and gates no log line.
var (
	Verbose atomic.Bool
	Monitor atomic.Bool
)

// Store holds the last Config parsed by Parse as a plain snapshot, so
// the running process can inspect or re-announce its own configuration
// (e.g. on a reload signal) without threading a Config value through
// every call site.
var Store = control.NewConfigStore()

// Config holds the fully validated set of CLI-supplied parameters.
type Config struct {
	InterfaceName string
	MTU           uint16
	InnerAddress  addr.CIDR

	BindAddress    *addr.Endpoint
	ConnectAddress *addr.Endpoint

	Proxies []addr.Endpoint

	ReconnectDuration time.Duration
	ErrorThreshold    uint64
}

// IsServer reports whether this Config runs in bind (listen) mode.
func (c Config) IsServer() bool { return c.BindAddress != nil }

type endpointListFlag []addr.Endpoint

func (l *endpointListFlag) String() string {
	return fmt.Sprint([]addr.Endpoint(*l))
}

func (l *endpointListFlag) Set(s string) error {
	ep, err := addr.ParseEndpoint(s)
	if err != nil {
		return err
	}
	*l = append(*l, ep)
	return nil
}

// Parse parses args (normally os.Args[1:]) into a Config, matching the
// flag surface of the tool this module replaces:
// -n -m -a -b -c -p -r -e -V -M. On -v it prints version and exits the
// process. On -h or a malformed flag the flag package prints usage and
// Parse returns the error; failed validation is returned as an error.
func Parse(args []string, version string) (Config, error) {
	fs := flag.NewFlagSet("zportal", flag.ContinueOnError)

	ifname := fs.String("n", "", "TUN device name, e.g. 'tun0'")
	mtu := fs.Uint("m", 0, "device MTU, range 68-65535")
	inner := fs.String("a", "", "inner IPv4/IPv6 CIDR, e.g. 10.0.0.1/24")
	bind := fs.String("b", "", "bind address (server mode)")
	connect := fs.String("c", "", "connect address (client mode)")
	var proxies endpointListFlag
	fs.Var(&proxies, "p", "proxy address; repeatable for a chain, left to right")
	reconnect := fs.Uint64("r", 5, "reconnect delay in seconds, client mode only")
	errThreshold := fs.Uint64("e", 10, "consecutive reconnect failures before giving up, client mode only")
	verbose := fs.Bool("V", false, "verbose mode")
	monitor := fs.Bool("M", false, "monitor mode")
	showVersion := fs.Bool("v", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *showVersion {
		fmt.Fprintln(os.Stdout, version)
		os.Exit(0)
	}

	var cfg Config

	if *ifname == "" {
		return Config{}, fmt.Errorf("config: interface name is not set (-n)")
	}
	cfg.InterfaceName = *ifname

	if *mtu < 68 || *mtu > 65535 {
		return Config{}, fmt.Errorf("config: MTU must be 68-65535, got %d (-m)", *mtu)
	}
	cfg.MTU = uint16(*mtu)

	if *inner == "" {
		return Config{}, fmt.Errorf("config: inner address is not set (-a)")
	}
	cidr, err := addr.ParseCIDR(*inner)
	if err != nil {
		return Config{}, fmt.Errorf("config: inner address: %w", err)
	}
	cfg.InnerAddress = cidr

	if (*bind == "") == (*connect == "") {
		return Config{}, fmt.Errorf("config: exactly one of -b or -c must be set")
	}
	if *bind != "" {
		ep, err := addr.ParseEndpoint(*bind)
		if err != nil {
			return Config{}, fmt.Errorf("config: bind address: %w", err)
		}
		cfg.BindAddress = &ep
	} else {
		ep, err := addr.ParseEndpoint(*connect)
		if err != nil {
			return Config{}, fmt.Errorf("config: connect address: %w", err)
		}
		cfg.ConnectAddress = &ep
	}

	cfg.Proxies = proxies
	cfg.ReconnectDuration = time.Duration(*reconnect) * time.Second
	cfg.ErrorThreshold = *errThreshold

	Verbose.Store(*verbose)
	Monitor.Store(*monitor)

	Store.SetConfig(snapshot(cfg))

	return cfg, nil
}

// snapshot flattens a Config into the plain key/value form ConfigStore
// deals in.
func snapshot(cfg Config) map[string]any {
	s := map[string]any{
		"interface":         cfg.InterfaceName,
		"mtu":               cfg.MTU,
		"inner_address":     cfg.InnerAddress.String(),
		"reconnect_seconds": cfg.ReconnectDuration.Seconds(),
		"error_threshold":   cfg.ErrorThreshold,
		"proxy_count":       len(cfg.Proxies),
	}
	if cfg.BindAddress != nil {
		s["mode"] = "server"
		s["bind_address"] = cfg.BindAddress.String()
	} else {
		s["mode"] = "client"
		s["connect_address"] = cfg.ConnectAddress.String()
	}
	return s
}
