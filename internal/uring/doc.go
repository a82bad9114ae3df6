// Package uring wraps the Linux io_uring submission/completion queue
// interface: ring setup and teardown, tagged submissions, completion
// retrieval, and registration of ring-backed buffer pools used for
// buffer-select reads and receives.
//
// Only the operations the tunnel dispatch loop needs are exposed:
// single-shot and multishot read/recv, vectored writes, sendmsg, and
// buffer-pool registration. It is not a general-purpose io_uring
// binding.
package uring
