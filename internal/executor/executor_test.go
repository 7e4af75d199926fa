package executor

import (
	"testing"

	"github.com/chimera-labs/execution-governor/internal/models"
)

func TestTryEnterRequiresAllConditions(t *testing.T) {
	e := New("XAU", DefaultConfig())
	c := EntryConditions{
		Side: models.Buy, Price: 1900, TSNano: 0,
		Velocity: 0.1, ImpulseSoftFloor: 0.15, GatesPass: true,
		BaseQty: 1, SizeMult: 1, TPScale: 1, StopDistance: 5,
	}
	if e.TryEnter(c) {
		t.Fatal("velocity below impulse floor must not enter")
	}
	c.Velocity = 0.20
	c.GatesPass = false
	if e.TryEnter(c) {
		t.Fatal("gates failing must not enter")
	}
	c.GatesPass = true
	if !e.TryEnter(c) {
		t.Fatal("expected entry with all conditions satisfied")
	}
	if e.State() != StateEntering {
		t.Fatalf("expected ENTERING, got %v", e.State())
	}
}

func TestFillCompletesEntryIntoHolding(t *testing.T) {
	e := New("XAU", DefaultConfig())
	c := EntryConditions{Side: models.Buy, Price: 1900, Velocity: 0.2, ImpulseSoftFloor: 0.15, GatesPass: true, BaseQty: 1, SizeMult: 1, TPScale: 1, StopDistance: 5}
	e.TryEnter(c)
	e.OnFill(0.5)
	if e.State() != StateEntering {
		t.Fatalf("partial fill should stay ENTERING, got %v", e.State())
	}
	e.OnFill(0.5)
	if e.State() != StateHolding {
		t.Fatalf("full fill should transition to HOLDING, got %v", e.State())
	}
}

func enterAndFill(e *Executor, side models.Side, price, stopDist float64) {
	e.TryEnter(EntryConditions{Side: side, Price: price, Velocity: 0.3, ImpulseSoftFloor: 0.15, GatesPass: true, BaseQty: 1, SizeMult: 1, TPScale: 1, StopDistance: stopDist})
	e.OnFill(1)
}

func TestHoldingStopHitTriggersExit(t *testing.T) {
	e := New("XAU", DefaultConfig())
	enterAndFill(e, models.Buy, 1900, 5)
	act := e.OnTick(TickContext{Price: 1894, TSNano: 1_000_000})
	if act.Kind != ActionExit || act.Reason != "stop" {
		t.Fatalf("expected stop exit, got %+v", act)
	}
	if e.State() != StateExiting {
		t.Fatalf("expected EXITING, got %v", e.State())
	}
}

func TestHoldingTPHitTriggersExit(t *testing.T) {
	e := New("XAU", DefaultConfig())
	enterAndFill(e, models.Buy, 1900, 5) // tp = entry + 5*1.5*1 = 1907.5
	act := e.OnTick(TickContext{Price: 1910, TSNano: 1_000_000})
	if act.Kind != ActionExit || act.Reason != "tp" {
		t.Fatalf("expected tp exit, got %+v", act)
	}
}

func TestImpulseDecayForcedExit(t *testing.T) {
	cfg := DefaultConfig()
	e := New("XAU", cfg)
	e.TryEnter(EntryConditions{Side: models.Buy, Price: 1900, TSNano: 0, Velocity: 1.0, ImpulseSoftFloor: 0.15, GatesPass: true, BaseQty: 1, SizeMult: 1, TPScale: 1, StopDistance: 5})
	e.OnFill(1)
	// effective/entry = exp(-dt/120); dt=200ms -> ratio = exp(-1.667) ~= 0.189 < 0.30
	act := e.OnTick(TickContext{Price: 1900.5, TSNano: 200_000_000})
	if act.Kind != ActionExit || act.Reason != "impulse_decay" {
		t.Fatalf("expected impulse decay exit, got %+v", act)
	}
}

func TestImpulseDecayWarnBeforeExit(t *testing.T) {
	cfg := DefaultConfig()
	e := New("XAU", cfg)
	e.TryEnter(EntryConditions{Side: models.Buy, Price: 1900, TSNano: 0, Velocity: 1.0, ImpulseSoftFloor: 0.15, GatesPass: true, BaseQty: 1, SizeMult: 1, TPScale: 1, StopDistance: 5})
	e.OnFill(1)
	// dt=90ms -> ratio = exp(-0.75) ~= 0.472, below warn(0.48) but above exit(0.30)
	act := e.OnTick(TickContext{Price: 1900.5, TSNano: 90_000_000})
	if act.Kind != ActionWarn {
		t.Fatalf("expected warn, got %+v", act)
	}
	if e.State() != StateHolding {
		t.Fatalf("warn should not exit, state=%v", e.State())
	}
}

func TestOnExitCooldownTiers(t *testing.T) {
	e := New("XAU", DefaultConfig())
	enterAndFill(e, models.Buy, 1900, 5)
	e.OnTick(TickContext{Price: 1894, TSNano: 1})
	e.OnExit(1, -10, true) // stop-out -> hard cooldown
	if e.State() != StateCooldown {
		t.Fatalf("expected COOLDOWN, got %v", e.State())
	}
	if !e.hardCooldown {
		t.Fatal("stop-out should force hard cooldown")
	}

	if e.InCooldown(2) != true {
		t.Fatal("expected still in cooldown immediately after exit")
	}
	afterHard := int64(2) + DefaultConfig().HardCooldownMs*int64(1e6)
	if e.InCooldown(afterHard) {
		t.Fatal("expected cooldown to have expired")
	}
}

func TestOnExitSoftCooldownOnWinningTrade(t *testing.T) {
	e := New("XAU", DefaultConfig())
	enterAndFill(e, models.Buy, 1900, 5)
	e.OnExit(1, 50, false)
	if e.hardCooldown {
		t.Fatal("a winning, non-stop-out exit should use soft cooldown")
	}
}

func TestConsecutiveLossesForceHardCooldown(t *testing.T) {
	e := New("XAU", DefaultConfig())
	e.OnExit(1, -5, false)
	if e.hardCooldown {
		t.Fatal("first loss alone should not force hard cooldown")
	}
	e.OnExit(2, -5, false)
	if !e.hardCooldown {
		t.Fatal("two consecutive losses should force hard cooldown")
	}
}

func TestCooldownExpiryReturnsToIdle(t *testing.T) {
	e := New("XAU", DefaultConfig())
	e.OnExit(1, 10, false)
	cooldownEndNs := e.cooldownUntilNs
	e.OnTick(TickContext{Price: 1900, TSNano: cooldownEndNs})
	if e.State() != StateIdle {
		t.Fatalf("expected IDLE after cooldown expiry, got %v", e.State())
	}
}

func TestPyramidOncePerSymbol(t *testing.T) {
	e := New("XAU", DefaultConfig())
	if e.Pyramided() {
		t.Fatal("should not start pyramided")
	}
	e.MarkPyramided()
	if !e.Pyramided() {
		t.Fatal("expected pyramided flag set")
	}
}
