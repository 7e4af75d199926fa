package symbolhealth

import "testing"

func TestAutoDisableOnLowWinRate(t *testing.T) {
	h := New(10, 5, 0.4)
	for i := 0; i < 5; i++ {
		h.RecordOutcome(false)
	}
	if h.Enabled() {
		t.Fatal("expected disabled after 5 consecutive losses below floor")
	}
	for i := 0; i < 10; i++ {
		h.RecordOutcome(true)
	}
	if !h.Enabled() {
		t.Fatal("expected re-enabled after win rate recovers above floor")
	}
}

func TestInsufficientSampleDoesNotDisable(t *testing.T) {
	h := New(10, 5, 0.4)
	h.RecordOutcome(false)
	h.RecordOutcome(false)
	if !h.Enabled() {
		t.Fatal("should not disable before min sample reached")
	}
	if h.WinRate() != -1 {
		t.Fatal("WinRate should report -1 before min sample reached")
	}
}
