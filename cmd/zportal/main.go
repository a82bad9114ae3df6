// Command zportal is a point-to-point Layer-3 tunnel: it relays IP
// packets between a local TUN interface and a single peer stream
// connection, reading and writing both sides through one io_uring
// submission ring.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweet-bbq-sauce/zportal/config"
	"github.com/sweet-bbq-sauce/zportal/control"
	"github.com/sweet-bbq-sauce/zportal/internal/uring"
	"github.com/sweet-bbq-sauce/zportal/netutil"
	"github.com/sweet-bbq-sauce/zportal/netutil/socks5"
	"github.com/sweet-bbq-sauce/zportal/netutil/tun"
	"github.com/sweet-bbq-sauce/zportal/tunnel"
)

const (
	version     = "zportal 0.1.0"
	ringEntries = 32
)

func main() {
	cfg, err := config.Parse(os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("zportal: %v", err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	control.RegisterReloadHook(func() {
		log.Printf("zportal: verbose=%t monitor=%t", config.Verbose.Load(), config.Monitor.Load())
	})
	config.Store.OnReload(func() {
		log.Printf("zportal: config snapshot %v", config.Store.GetSnapshot())
	})
	go watchHangup(ctx)

	device, err := tun.Open(cfg.InterfaceName)
	if err != nil {
		return fmt.Errorf("open tun device: %w", err)
	}
	defer device.Close()

	if err := device.SetMTU(uint32(cfg.MTU)); err != nil {
		return fmt.Errorf("set mtu: %w", err)
	}
	if err := device.SetCIDR(cfg.InnerAddress); err != nil {
		return fmt.Errorf("set cidr: %w", err)
	}
	if err := device.SetUp(); err != nil {
		return fmt.Errorf("bring interface up: %w", err)
	}

	if cfg.IsServer() {
		return runServer(ctx, cfg, device)
	}
	return runClient(ctx, cfg, device)
}

func runServer(ctx context.Context, cfg config.Config, device *tun.Device) error {
	ln, err := net.Listen("tcp", cfg.BindAddress.String())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.BindAddress, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Printf("zportal: listening on %s", cfg.BindAddress)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("accept: %w", err)
		}

		if err := handleConnection(ctx, device, conn); err != nil {
			logConnErr(err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func runClient(ctx context.Context, cfg config.Config, device *tun.Device) error {
	var failures uint64
	proxyAddrs := make([]string, len(cfg.Proxies))
	for i, p := range cfg.Proxies {
		proxyAddrs[i] = p.String()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := socks5.DialChain(ctx, proxyAddrs, cfg.ConnectAddress.String())
		if err != nil {
			failures++
			log.Printf("zportal: connect failed (%d/%d): %v", failures, cfg.ErrorThreshold, err)
			if failures >= cfg.ErrorThreshold {
				return fmt.Errorf("giving up after %d consecutive failures", failures)
			}
			if !sleepOrDone(ctx, cfg.ReconnectDuration) {
				return nil
			}
			continue
		}

		failures = 0
		if err := handleConnection(ctx, device, conn); err != nil {
			logConnErr(err)
		}
		log.Printf("zportal: reconnecting...")

		if !sleepOrDone(ctx, cfg.ReconnectDuration) {
			return nil
		}
	}
}

func handleConnection(ctx context.Context, device *tun.Device, conn net.Conn) error {
	raw, err := netutil.NewRawConn(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("wrap peer connection: %w", err)
	}
	defer raw.Close()

	ring, err := uring.Open(ringEntries)
	if err != nil {
		return fmt.Errorf("open ring: %w", err)
	}
	defer ring.Close()

	opts := tunnel.DefaultOptions()
	t, err := tunnel.New(ring, device, raw, opts)
	if err != nil {
		return fmt.Errorf("create tunnel: %w", err)
	}
	defer t.Close()

	if config.Monitor.Load() {
		monCtx, stopMon := context.WithCancel(ctx)
		defer stopMon()
		go runMonitor(monCtx, t)
	}

	return t.Run(ctx)
}

// runMonitor periodically logs the tunnel's live byte/frame counters
// together with platform debug probes while monitor mode is enabled.
func runMonitor(ctx context.Context, t *tunnel.Tunnel) {
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	if stats := t.Stats(); stats != nil {
		probes.RegisterProbe("tunnel.stats", func() any {
			return stats.GetSnapshot()
		})
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("zportal: %v", probes.DumpState())
		}
	}
}

// watchHangup re-dispatches every registered reload hook on SIGHUP,
// letting an operator ask a running process to re-announce its current
// verbose/monitor state and configuration without restarting it.
// Re-feeding config.Store its own snapshot through SetConfig is what
// actually fires config.Store's OnReload listener; TriggerHotReload
// covers the separate, Config-agnostic hook list.
func watchHangup(ctx context.Context) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)
	defer signal.Stop(sig)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			control.TriggerHotReload()
			config.Store.SetConfig(config.Store.GetSnapshot())
		}
	}
}

// logConnErr reports a handleConnection failure, distinguishing a
// clean peer-initiated close (tunnel.ErrCodePeerClosed) from every
// other dispatch-loop error so an operator can tell the two apart.
func logConnErr(err error) {
	var terr *tunnel.Error
	if errors.As(err, &terr) && terr.Code == tunnel.ErrCodePeerClosed {
		log.Printf("zportal: %v", terr)
		return
	}
	log.Printf("zportal: connection error: %v", err)
}

// sleepOrDone waits d or until ctx is done, returning false in the
// latter case so callers can unwind without sleeping a full period.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
