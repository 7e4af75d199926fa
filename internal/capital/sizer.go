package capital

import "github.com/chimera-labs/execution-governor/internal/latency"

// ImpulseTier classifies the entry signal's strength.
type ImpulseTier int

const (
	ImpulseSoft ImpulseTier = iota
	ImpulseMedium
	ImpulseHard
)

// TierFromVelocity classifies velocity against the symbol's configured
// soft/med/hard floors.
func TierFromVelocity(velocity, soft, med, hard float64) (ImpulseTier, bool) {
	switch {
	case velocity >= hard:
		return ImpulseHard, true
	case velocity >= med:
		return ImpulseMedium, true
	case velocity >= soft:
		return ImpulseSoft, true
	default:
		return 0, false
	}
}

func (t ImpulseTier) baseSizeMultiplier() float64 {
	switch t {
	case ImpulseHard:
		return 1.5
	case ImpulseMedium:
		return 1.0
	default:
		return 0.6
	}
}

func latencyTierMultiplier(regime latency.Regime) float64 {
	switch regime {
	case latency.Fast:
		return 1.0
	case latency.Normal:
		return 0.7
	default:
		return 0.3
	}
}

// EdgeSource supplies a Bayesian-blended edge score in [0,1] for a symbol
// without the core depending on any specific alpha model; a nil EdgeSource
// degrades to a neutral 1.0 multiplier.
type EdgeSource interface {
	EdgeScore(symbol string) float64
}

// Sizer composes impulse tier, latency regime, and an optional Bayesian
// edge blend into a final size multiplier and a TP distance scale.
type Sizer struct {
	edge EdgeSource
}

func NewSizer(edge EdgeSource) *Sizer {
	return &Sizer{edge: edge}
}

// Compose returns the size multiplier and TP scale for an entry with the
// given impulse tier and latency regime.
func (s *Sizer) Compose(symbol string, tier ImpulseTier, regime latency.Regime) (sizeMult, tpScale float64) {
	sizeMult = tier.baseSizeMultiplier() * latencyTierMultiplier(regime)
	if s.edge != nil {
		sizeMult *= blend(s.edge.EdgeScore(symbol))
	}
	tpScale = tpScaleFor(regime)
	return sizeMult, tpScale
}

// blend keeps a neutral edge score (0.5) at multiplier 1.0 and scales
// linearly to 0.5x at score 0 and 1.5x at score 1, without ever zeroing out sizing
// purely on a soft edge signal (that's CapitalPolicy's job, via the hard
// edge>=1.0 gate).
func blend(edgeScore float64) float64 {
	return 0.5 + edgeScore
}

// tpScaleFor applies a latency-aware take-profit distance multiplier: in
// degraded latency, TPs are pulled in to reduce adverse-selection exposure.
func tpScaleFor(regime latency.Regime) float64 {
	switch regime {
	case latency.Fast:
		return 1.0
	case latency.Normal:
		return 0.85
	default:
		return 0.6
	}
}
