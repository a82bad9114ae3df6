// Package socks5 implements a minimal no-authentication SOCKS5 CONNECT
// client, including chaining through a sequence of proxies where each
// hop CONNECTs to the next.
package socks5
