package executor

import "testing"

func TestExposureFillAndComplete(t *testing.T) {
	var e Exposure
	e.Reset(10)
	if e.Complete() {
		t.Fatal("should not be complete with zero fills against a 10 target")
	}
	e.RecordFill(6)
	if e.FillPct() != 0.6 {
		t.Fatalf("fill pct = %v, want 0.6", e.FillPct())
	}
	e.RecordFill(4)
	if !e.Complete() {
		t.Fatal("expected complete after filling the full target")
	}
	if e.HasRisk() {
		t.Fatal("fully filled with no hedge should have no net exposure risk")
	}
}

func TestExposureHedgeTracking(t *testing.T) {
	var e Exposure
	e.Reset(10)
	e.RecordFill(4)
	e.RecordHedge(3)
	if !e.HasRisk() {
		t.Fatal("partial fill with insufficient hedge should carry risk")
	}
	e.ClearHedge()
	if e.HedgeQty != 0 {
		t.Fatalf("expected hedge cleared, got %v", e.HedgeQty)
	}
}
