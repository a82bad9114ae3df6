// Package crc32c computes the Castagnoli CRC32 checksum used to protect
// each tunnel frame's payload. A hardware-accelerated path is used when
// the runtime supports it; a portable software path is always available
// and is authoritative — both MUST agree on every input.
package crc32c

import "hash/crc32"

// table is the standard library's Castagnoli table. On amd64/arm64 the
// runtime's crc32.Update dispatches to SSE4.2/ARMv8 CRC instructions
// automatically for this specific polynomial; elsewhere it falls back
// to a slicing-by-8 software implementation.
var table = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes CRC32C over payload using the fastest path the
// runtime has detected (hardware when available, software otherwise).
func Checksum(payload []byte) uint32 {
	return crc32.Checksum(payload, table)
}

// ChecksumHardware is an alias for Checksum, named for parity with the
// software path below. On platforms without a CRC32C instruction this
// falls back to the standard library's table-driven software path, not
// to the bit-at-a-time loop of ChecksumSoftware.
func ChecksumHardware(payload []byte) uint32 {
	return crc32.Checksum(payload, table)
}

// ChecksumSoftware computes CRC32C with the portable bit-at-a-time
// algorithm, bypassing any hardware acceleration. It is authoritative:
// ChecksumHardware must always agree with it.
func ChecksumSoftware(payload []byte) uint32 {
	const poly uint32 = 0x82F63B78
	crc := uint32(0xFFFFFFFF)
	for _, b := range payload {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			mask := -(crc & 1)
			crc = (crc >> 1) ^ (poly & mask)
		}
	}
	return ^crc
}
