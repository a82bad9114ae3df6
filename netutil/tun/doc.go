// Package tun opens and configures Linux TUN network interfaces: a
// raw, IFF_TUN|IFF_NO_PI handle suitable for arming with io_uring
// multishot reads/writes, plus the address/MTU/up-down configuration
// steps normally performed by ip(8).
package tun
