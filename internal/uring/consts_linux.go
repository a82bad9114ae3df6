//go:build linux

package uring

// Syscall numbers for io_uring (x86_64 and arm64 share these numbers
// via the generic syscall table).
const (
	sysIOUringSetup    = 425
	sysIOUringEnter    = 426
	sysIOUringRegister = 427
)

// Opcodes (IORING_OP_*), only the subset the dispatch loop issues.
const (
	opWritev        = 2
	opSendmsg       = 9
	opRead          = 22
	opWrite         = 23
	opSend          = 26
	opRecv          = 27
	opReadMultishot = 49
)

// SQE flags (IOSQE_*).
const (
	sqeBufferSelect uint8 = 1 << 5
)

// Setup flags (IORING_SETUP_*).
const (
	setupCQSize uint32 = 1 << 3
	setupClamp  uint32 = 1 << 4
)

// Feature flags (IORING_FEAT_*).
const (
	featSingleMMap uint32 = 1 << 0
)

// Enter flags (IORING_ENTER_*).
const (
	enterGetEvents uint32 = 1 << 0
	enterSQWakeup  uint32 = 1 << 1
)

// Register opcodes (IORING_REGISTER_*) relevant to ring-backed buffer
// pools.
const (
	registerPBufRing   uint32 = 22
	unregisterPBufRing uint32 = 23
)

// CQE flags (IORING_CQE_F_*).
const (
	cqeFBuffer uint32 = 1 << 0
	cqeFMore   uint32 = 1 << 1
)

// mmap offsets for the ring regions (IORING_OFF_*).
const (
	offSQRing uint64 = 0
	offCQRing uint64 = 0x8000000
	offSQEs   uint64 = 0x10000000
)

// ioprio bits for multishot receive (IORING_RECV_MULTISHOT).
const (
	recvMultishot uint16 = 1 << 1
)
