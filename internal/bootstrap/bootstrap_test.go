package bootstrap

import "testing"

func TestMonotoneProgressionS6(t *testing.T) {
	e := New(DefaultConfig())
	if e.State() != Init {
		t.Fatalf("expected INIT before any observation, got %v", e.State())
	}

	for i := 0; i < 100; i++ {
		e.ObserveTick(true, true, int64(i)*100) // 10s of ticks (100 * 100ms)
	}
	if e.State() != WaitData {
		t.Fatalf("expected still WAIT_DATA at only 10s book-valid, got %v", e.State())
	}

	for i := 100; i < 400; i++ {
		e.ObserveTick(true, true, int64(i)*100) // now 40s total elapsed
	}
	if e.State() != WaitEdge {
		t.Fatalf("expected WAIT_EDGE once data gates pass, got %v", e.State())
	}

	for i := 0; i < 40; i++ {
		isBuy := i%10 != 0 // 36 of 40 buys: persistence 0.9, churn 7/39
		e.ObserveIntent(isBuy, 1.0)
	}
	if e.State() == Complete {
		t.Fatal("should not complete before safety_ready observed")
	}

	e.ObserveSafety(true, true)
	if e.State() != Complete {
		t.Fatalf("expected COMPLETE once edge+safety ready, got %v", e.State())
	}
	if !e.ExecutionAllowed() {
		t.Fatal("expected ExecutionAllowed once COMPLETE")
	}
}

func TestNeverRegresses(t *testing.T) {
	e := New(DefaultConfig())
	e.ObserveTick(false, false, 0)
	if e.State() < WaitData {
		t.Fatal("state should never be below WAIT_DATA once observed")
	}
	// Book invalidates; state must not regress to INIT.
	prev := e.State()
	e.ObserveTick(false, false, 1)
	if e.State() < prev {
		t.Fatal("state regressed")
	}
}

func TestIntentsObservedNotExecutedBeforeComplete(t *testing.T) {
	e := New(DefaultConfig())
	e.ObserveIntent(true, 2.0)
	if e.ExecutionAllowed() {
		t.Fatal("execution should not be allowed before COMPLETE")
	}
}
