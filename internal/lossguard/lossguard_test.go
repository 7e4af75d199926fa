package lossguard

import "testing"

func TestTripLatchAndReset(t *testing.T) {
	g := New(1000)
	g.OnFill(-500, 1)
	if g.Tripped() {
		t.Fatal("should not trip before crossing the limit")
	}
	g.OnFill(-600, 2)
	if !g.Tripped() {
		t.Fatal("expected trip after crossing -limit")
	}
	if g.Allow() {
		t.Fatal("Allow() should be false once tripped")
	}
	g.OnFill(5000, 3)
	if g.Allow() {
		t.Fatal("trip latch must require an explicit Reset, not recover on its own")
	}
	g.Reset()
	if !g.Allow() {
		t.Fatal("Allow() should be true after Reset")
	}
}

func TestDrawdownUsedAndThrottle(t *testing.T) {
	g := New(1000)
	g.OnFill(-500, 1)
	if got := g.DrawdownUsed(); got != 0.5 {
		t.Fatalf("DrawdownUsed() = %v, want 0.5", got)
	}
	tf := g.ThrottleFactor(2.0)
	want := 1 - 0.25
	if tf != want {
		t.Fatalf("ThrottleFactor = %v, want %v", tf, want)
	}
}
