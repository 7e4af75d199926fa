package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/chimera-labs/execution-governor/internal/models"
)

func TestSchedulerDrainsPerSymbol(t *testing.T) {
	s := New()
	var count atomic.Int64
	r := s.Register("XAU", 16, func(i models.Intent) { count.Add(1) }, false)

	s.Start()
	defer s.Stop()

	for i := 0; i < 10; i++ {
		intent, _ := models.NewIntent(models.Buy, "XAU", 1, uint64(i))
		if !r.Push(intent) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := count.Load(); got != 10 {
		t.Fatalf("expected 10 intents consumed, got %d", got)
	}
}

func TestSchedulerMultiSymbolIsolation(t *testing.T) {
	s := New()
	var xauCount, eurCount atomic.Int64
	rXau := s.Register("XAU", 16, func(i models.Intent) { xauCount.Add(1) }, false)
	rEur := s.Register("EURUSD", 16, func(i models.Intent) { eurCount.Add(1) }, false)

	s.Start()
	defer s.Stop()

	ix, _ := models.NewIntent(models.Buy, "XAU", 1, 0)
	ie, _ := models.NewIntent(models.Sell, "EURUSD", 1, 0)
	rXau.Push(ix)
	rEur.Push(ie)

	deadline := time.Now().Add(2 * time.Second)
	for (xauCount.Load() < 1 || eurCount.Load() < 1) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if xauCount.Load() != 1 || eurCount.Load() != 1 {
		t.Fatalf("expected one consumption per symbol, got xau=%d eur=%d", xauCount.Load(), eurCount.Load())
	}
}

func TestSchedulerStopIsCooperative(t *testing.T) {
	s := New()
	s.Register("XAU", 16, func(i models.Intent) {}, false)
	s.Start()
	s.Stop() // must return; a hang here fails the test via its own timeout
}

func TestUnregisteredSymbolRingLookupFails(t *testing.T) {
	s := New()
	if _, ok := s.Ring("GHOST"); ok {
		t.Fatal("expected lookup for unregistered symbol to fail")
	}
}
