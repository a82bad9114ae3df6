// Package wire defines the on-wire frame envelope exchanged between
// tunnel peers: a fixed 16-byte header carrying a magic marker, flags,
// payload length and a CRC32C checksum, followed by the raw IP packet
// payload.
package wire

import "encoding/binary"

// Magic identifies a well-formed envelope. Any other value at offset 0
// means the stream has desynchronized.
const Magic uint32 = 0x5A505254

// Size is the fixed, wire-exact length of an envelope in bytes.
const Size = 16

// Envelope is the 16-byte frame header. All fields are big-endian.
// Size is the payload length in bytes; the envelope itself is not
// counted in it.
type Envelope [Size]byte

// Clean zeroes the envelope and sets the magic field.
func (e *Envelope) Clean() {
	*e = Envelope{}
	binary.BigEndian.PutUint32(e[0:4], Magic)
}

// GetMagic returns the magic field.
func (e *Envelope) GetMagic() uint32 { return binary.BigEndian.Uint32(e[0:4]) }

// SetMagic sets the magic field.
func (e *Envelope) SetMagic(v uint32) { binary.BigEndian.PutUint32(e[0:4], v) }

// GetFlags returns the flags field.
func (e *Envelope) GetFlags() uint32 { return binary.BigEndian.Uint32(e[4:8]) }

// SetFlags sets the flags field.
func (e *Envelope) SetFlags(v uint32) { binary.BigEndian.PutUint32(e[4:8], v) }

// GetSize returns the payload-length field.
func (e *Envelope) GetSize() uint32 { return binary.BigEndian.Uint32(e[8:12]) }

// SetSize sets the payload-length field.
func (e *Envelope) SetSize(v uint32) { binary.BigEndian.PutUint32(e[8:12], v) }

// GetChecksum returns the CRC32C field.
func (e *Envelope) GetChecksum() uint32 { return binary.BigEndian.Uint32(e[12:16]) }

// SetChecksum sets the CRC32C field.
func (e *Envelope) SetChecksum(v uint32) { binary.BigEndian.PutUint32(e[12:16], v) }

// Bytes returns the envelope's backing bytes.
func (e *Envelope) Bytes() []byte { return e[:] }

// Valid reports whether the magic field matches the expected constant.
func (e *Envelope) Valid() bool { return e.GetMagic() == Magic }
