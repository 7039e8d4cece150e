package worker

import (
	"sync/atomic"
	"testing"

	"github.com/baharkarakas/premiumshop-backend/internal/logger"
)

func TestPoolRunsAndDrains(t *testing.T) {
	p := NewPool(4, 100, logger.Discard())
	var n int64
	for i := 0; i < 50; i++ {
		p.Go(func() { atomic.AddInt64(&n, 1) })
	}
	p.Stop()
	if got := atomic.LoadInt64(&n); got != 50 {
		t.Fatalf("got %d jobs run, want 50", got)
	}
}

func TestPoolAfterStopRunsInline(t *testing.T) {
	p := NewPool(1, 1, logger.Discard())
	p.Stop()
	p.Stop()

	if p.Submit(func() {}) {
		t.Fatal("Submit after Stop should report false")
	}
	ran := false
	p.Go(func() { ran = true })
	if !ran {
		t.Fatal("Go after Stop should run inline")
	}
}

func TestPoolSurvivesPanic(t *testing.T) {
	p := NewPool(1, 10, logger.Discard())
	var n int64
	p.Go(func() { panic("boom") })
	p.Go(func() { atomic.AddInt64(&n, 1) })
	p.Stop()
	if atomic.LoadInt64(&n) != 1 {
		t.Fatal("job after panic did not run")
	}
}

func TestNilPoolGoRunsInline(t *testing.T) {
	var p *Pool
	ran := false
	p.Go(func() { ran = true })
	if !ran {
		t.Fatal("nil pool should run inline")
	}
}
