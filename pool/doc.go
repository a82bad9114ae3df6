// Package pool manages ring-backed buffer pools: fixed-size,
// page-aligned arenas whose buffer ids are published to and reclaimed
// from an io_uring registered buffer ring. Buffers are identified by a
// 16-bit id (bid), never by pointer, so ownership can travel across a
// completion queue without a heap allocation.
package pool
