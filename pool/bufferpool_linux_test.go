//go:build linux

package pool_test

import (
	"testing"

	"github.com/sweet-bbq-sauce/zportal/internal/uring"
	"github.com/sweet-bbq-sauce/zportal/pool"
)

func openRing(t *testing.T) *uring.Ring {
	t.Helper()
	r, err := uring.Open(32)
	if err != nil {
		t.Skipf("io_uring unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestBufferPoolRejectsBadCount(t *testing.T) {
	r := openRing(t)
	mgr := pool.NewManager(r)
	if _, err := mgr.New(3, 4096, 0); err == nil {
		t.Fatal("expected error for non-power-of-two count")
	}
	if _, err := mgr.New(0, 4096, 0); err == nil {
		t.Fatal("expected error for count < 2")
	}
}

func TestBufferPoolRejectsZeroSize(t *testing.T) {
	r := openRing(t)
	mgr := pool.NewManager(r)
	if _, err := mgr.New(4, 0, 0); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestBufferPoolReturnIgnoresOutOfRangeBid(t *testing.T) {
	r := openRing(t)
	mgr := pool.NewManager(r)
	bp, err := mgr.New(4, 4096, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer bp.Close()

	bp.ReturnBuffer(999) // must not panic
}

func TestBufferPoolBatchedReturnFlush(t *testing.T) {
	r := openRing(t)
	mgr := pool.NewManager(r)
	bp, err := mgr.New(4, 4096, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer bp.Close()

	bp.ReturnBuffer(0)
	bp.FlushReturns()
}

func TestManagerGetTracksRegisteredPool(t *testing.T) {
	r := openRing(t)
	mgr := pool.NewManager(r)
	bp, err := mgr.New(2, 4096, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer bp.Close()

	got, ok := mgr.Get(bp.GroupID())
	if !ok || got != bp {
		t.Fatal("Get did not return the registered pool")
	}
}
