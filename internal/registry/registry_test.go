package registry

import (
	"testing"

	"github.com/chimera-labs/execution-governor/internal/bootstrap"
	"github.com/chimera-labs/execution-governor/internal/executor"
)

func TestControlPlaneDefaultAllows(t *testing.T) {
	c := NewControlPlane()
	d := c.Decide(2.0, 1.0, 1.0)
	if !d.Allow {
		t.Fatalf("expected default control plane to allow, got %+v", d)
	}
}

func TestControlPlaneKillShortCircuits(t *testing.T) {
	c := NewControlPlane()
	c.SetKill(true)
	d := c.Decide(2.0, 1.0, 1.0)
	if d.Allow || d.Flag != FlagKill {
		t.Fatalf("expected KILL block, got %+v", d)
	}
}

func TestControlPlaneCostFailBlocks(t *testing.T) {
	c := NewControlPlane()
	d := c.Decide(1.0, 2.0, 1.0)
	if d.Allow || d.Flag != FlagCostFail {
		t.Fatalf("expected COST_FAIL, got %+v", d)
	}
}

func TestControlPlaneSizeMultiplierComposition(t *testing.T) {
	c := NewControlPlane()
	c.SetCapitalTier(2)
	c.SetRegimeQuality(2)
	c.SetLatencyRank(1)
	d := c.Decide(2.0, 1.0, 1.0)
	want := 1.5 * 2 * 1.5
	if !d.Allow || d.SizeMultiplier != want {
		t.Fatalf("expected size mult %v, got %+v", want, d)
	}
}

func TestControlPlaneZeroRequestedSizeZeroesMultiplier(t *testing.T) {
	c := NewControlPlane()
	d := c.Decide(2.0, 1.0, 0)
	if !d.Allow || d.SizeMultiplier != 0 {
		t.Fatalf("expected allowed but zero size mult, got %+v", d)
	}
}

func TestRegistryAddSymbolWiresAllGovernors(t *testing.T) {
	r := New(Config{GlobalNotionalCap: 1_000_000, DailyLossLimit: 1000, MaxPositionPerSym: 10, BaseVol: 10, BaseLatency: 100, MaxLossRef: 1000, MaxRejects: 20}, nil)
	r.AddSymbol("XAU", bootstrap.DefaultConfig(), executor.DefaultConfig(), 20, 10, 0.4)

	if _, ok := r.Latency("XAU"); !ok {
		t.Fatal("expected latency governor wired")
	}
	if _, ok := r.Bootstrap("XAU"); !ok {
		t.Fatal("expected bootstrap evaluator wired")
	}
	if _, ok := r.SymbolHealth("XAU"); !ok {
		t.Fatal("expected symbol health wired")
	}
	if _, ok := r.DeltaGate("XAU"); !ok {
		t.Fatal("expected delta gate wired")
	}
	if _, ok := r.Executor("XAU"); !ok {
		t.Fatal("expected executor wired")
	}
	if _, ok := r.Latency("EURUSD"); ok {
		t.Fatal("expected no governor for an unregistered symbol")
	}
}

func TestSymbolEnabledDefaultsTrue(t *testing.T) {
	r := New(Config{GlobalNotionalCap: 1_000_000, DailyLossLimit: 1000, MaxPositionPerSym: 10, BaseVol: 10, BaseLatency: 100, MaxLossRef: 1000, MaxRejects: 20}, nil)
	r.AddSymbol("XAU", bootstrap.DefaultConfig(), executor.DefaultConfig(), 20, 10, 0.4)
	if !r.SymbolEnabled("XAU") {
		t.Fatal("expected newly registered symbol to default enabled")
	}
	if !r.SymbolEnabled("UNKNOWN") {
		t.Fatal("expected an unregistered symbol to default enabled")
	}
}

func TestSetSymbolEnabledDisablesTrading(t *testing.T) {
	r := New(Config{GlobalNotionalCap: 1_000_000, DailyLossLimit: 1000, MaxPositionPerSym: 10, BaseVol: 10, BaseLatency: 100, MaxLossRef: 1000, MaxRejects: 20}, nil)
	r.AddSymbol("XAU", bootstrap.DefaultConfig(), executor.DefaultConfig(), 20, 10, 0.4)
	r.SetSymbolEnabled("XAU", false)
	if r.SymbolEnabled("XAU") {
		t.Fatal("expected XAU disabled after SetSymbolEnabled(false)")
	}
}

func TestResetDailyGuardClearsTripLatch(t *testing.T) {
	r := New(Config{GlobalNotionalCap: 1_000_000, DailyLossLimit: 100, MaxPositionPerSym: 10, BaseVol: 10, BaseLatency: 100, MaxLossRef: 1000, MaxRejects: 20}, nil)
	r.LossGuard.OnFill(-200, 1)
	if r.LossGuard.Allow() {
		t.Fatal("expected loss guard tripped before reset")
	}
	r.ResetDailyGuard()
	if !r.LossGuard.Allow() {
		t.Fatal("expected loss guard allowed after ResetDailyGuard")
	}
}

func TestClearDriftKillClearsLatch(t *testing.T) {
	r := New(Config{GlobalNotionalCap: 1_000_000, DailyLossLimit: 1000, MaxPositionPerSym: 10, BaseVol: 10, BaseLatency: 100, MaxLossRef: 1000, MaxRejects: 20}, nil)
	r.DriftDetector.Trigger("manual test")
	if !r.DriftDetector.Killed() {
		t.Fatal("expected drift detector killed before clear")
	}
	r.ClearDriftKill()
	if r.DriftDetector.Killed() {
		t.Fatal("expected drift detector cleared after ClearDriftKill")
	}
}

func TestRegistrySymbolsListsRegistered(t *testing.T) {
	r := New(Config{GlobalNotionalCap: 1_000_000, DailyLossLimit: 1000, MaxPositionPerSym: 10, BaseVol: 10, BaseLatency: 100, MaxLossRef: 1000, MaxRejects: 20}, nil)
	r.AddSymbol("XAU", bootstrap.DefaultConfig(), executor.DefaultConfig(), 20, 10, 0.4)
	r.AddSymbol("EURUSD", bootstrap.DefaultConfig(), executor.DefaultConfig(), 20, 10, 0.4)
	syms := r.Symbols()
	if len(syms) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(syms))
	}
}
