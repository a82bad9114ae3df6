// Package tunnel drives the single-threaded, per-connection dispatch
// loop that pumps a TUN device against one peer stream socket: reads
// from TUN are framed and sent to the peer; bytes received from the
// peer are parsed back into frames and written to TUN. Every
// suspension point is a single completion-ring wait; no other
// operation in the loop blocks.
package tunnel
