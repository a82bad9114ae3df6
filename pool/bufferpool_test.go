package pool_test

import (
	"testing"

	"github.com/sweet-bbq-sauce/zportal/pool"
)

func TestNewManagerAcceptsNilRing(t *testing.T) {
	mgr := pool.NewManager(nil)
	if mgr == nil {
		t.Fatal("NewManager returned nil")
	}
}
