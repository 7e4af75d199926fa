package capital

import (
	"testing"

	"github.com/chimera-labs/execution-governor/internal/latency"
)

func TestTierFromVelocity(t *testing.T) {
	tier, ok := TierFromVelocity(5, 1, 3, 10)
	if !ok || tier != ImpulseMedium {
		t.Fatalf("expected ImpulseMedium, got %v ok=%v", tier, ok)
	}
	if _, ok := TierFromVelocity(0.5, 1, 3, 10); ok {
		t.Fatal("expected no tier below soft floor")
	}
}

type fixedEdge struct{ score float64 }

func (f fixedEdge) EdgeScore(string) float64 { return f.score }

func TestSizerComposeNeutralEdge(t *testing.T) {
	s := NewSizer(fixedEdge{score: 0.5})
	mult, tp := s.Compose("XAU", ImpulseHard, latency.Fast)
	if mult != 1.5 {
		t.Fatalf("hard/fast/neutral-edge size mult = %v, want 1.5", mult)
	}
	if tp != 1.0 {
		t.Fatalf("fast tp scale = %v, want 1.0", tp)
	}
}

func TestSizerComposeDegradedLatencyShrinksSize(t *testing.T) {
	s := NewSizer(nil)
	mult, tp := s.Compose("XAU", ImpulseMedium, latency.Degraded)
	want := 1.0 * 0.3
	if mult != want {
		t.Fatalf("degraded size mult = %v, want %v", mult, want)
	}
	if tp != 0.6 {
		t.Fatalf("degraded tp scale = %v, want 0.6", tp)
	}
}

func TestSizerNilEdgeSourceIsNeutral(t *testing.T) {
	s := NewSizer(nil)
	mult, _ := s.Compose("XAU", ImpulseSoft, latency.Normal)
	want := 0.6 * 0.7
	if mult != want {
		t.Fatalf("nil edge source should not scale size, got %v want %v", mult, want)
	}
}
