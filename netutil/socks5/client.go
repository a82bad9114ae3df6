package socks5

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/netip"
)

const (
	ver5       = 0x05
	authNone   = 0x00
	cmdConnect = 0x01
	rsv        = 0x00

	atypIPv4   = 0x01
	atypDomain = 0x03
	atypIPv6   = 0x04

	replySucceeded = 0x00
)

// Dial connects to proxyAddr and performs a no-auth CONNECT handshake
// to target, returning the established connection on success.
func Dial(ctx context.Context, proxyAddr, target string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("socks5: dial proxy %s: %w", proxyAddr, err)
	}

	if err := connect(conn, target); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// DialChain dials proxies[0] directly, then issues a CONNECT through
// each hop to the next, finally CONNECTing through the last hop to
// target. An empty chain dials target directly.
func DialChain(ctx context.Context, proxies []string, target string) (net.Conn, error) {
	if len(proxies) == 0 {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", target)
		if err != nil {
			return nil, fmt.Errorf("socks5: dial %s: %w", target, err)
		}
		return conn, nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxies[0])
	if err != nil {
		return nil, fmt.Errorf("socks5: dial proxy %s: %w", proxies[0], err)
	}

	hops := append(append([]string{}, proxies[1:]...), target)
	for _, hop := range hops {
		if err := connect(conn, hop); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// connect runs the client side of a no-auth CONNECT handshake over an
// already-established conn, asking it to relay to target.
func connect(conn net.Conn, target string) error {
	if _, err := conn.Write([]byte{ver5, 1, authNone}); err != nil {
		return fmt.Errorf("socks5: send method negotiation: %w", err)
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return fmt.Errorf("socks5: read method selection: %w", err)
	}
	if resp[0] != ver5 {
		return fmt.Errorf("socks5: unexpected version %#x", resp[0])
	}
	if resp[1] != authNone {
		return fmt.Errorf("socks5: proxy requires unsupported auth method %#x", resp[1])
	}

	req, err := encodeConnectRequest(target)
	if err != nil {
		return err
	}
	if _, err := conn.Write(req); err != nil {
		return fmt.Errorf("socks5: send connect request: %w", err)
	}

	if err := readConnectReply(conn); err != nil {
		return err
	}
	return nil
}

func encodeConnectRequest(target string) ([]byte, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return nil, fmt.Errorf("socks5: invalid target %q: %w", target, err)
	}
	var port uint16
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return nil, fmt.Errorf("socks5: invalid port in %q: %w", target, err)
	}

	req := []byte{ver5, cmdConnect, rsv}

	if ip, err := netip.ParseAddr(host); err == nil {
		if ip.Is4() {
			req = append(req, atypIPv4)
			b := ip.As4()
			req = append(req, b[:]...)
		} else {
			req = append(req, atypIPv6)
			b := ip.As16()
			req = append(req, b[:]...)
		}
	} else {
		if len(host) > 255 {
			return nil, fmt.Errorf("socks5: domain name too long: %q", host)
		}
		req = append(req, atypDomain, byte(len(host)))
		req = append(req, host...)
	}

	portBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(portBuf, port)
	return append(req, portBuf...), nil
}

func readConnectReply(conn net.Conn) error {
	head := make([]byte, 4)
	if _, err := io.ReadFull(conn, head); err != nil {
		return fmt.Errorf("socks5: read connect reply: %w", err)
	}
	if head[0] != ver5 {
		return fmt.Errorf("socks5: unexpected reply version %#x", head[0])
	}
	if head[1] != replySucceeded {
		return fmt.Errorf("socks5: connect refused, reply code %#x", head[1])
	}

	var addrLen int
	switch head[3] {
	case atypIPv4:
		addrLen = 4
	case atypIPv6:
		addrLen = 16
	case atypDomain:
		lb := make([]byte, 1)
		if _, err := io.ReadFull(conn, lb); err != nil {
			return fmt.Errorf("socks5: read bound domain length: %w", err)
		}
		addrLen = int(lb[0])
	default:
		return fmt.Errorf("socks5: unknown bound address type %#x", head[3])
	}

	rest := make([]byte, addrLen+2)
	if _, err := io.ReadFull(conn, rest); err != nil {
		return fmt.Errorf("socks5: read bound address: %w", err)
	}
	return nil
}
