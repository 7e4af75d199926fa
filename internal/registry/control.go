package registry

import "sync/atomic"

// ControlFlag enumerates the coarse pre-check reasons ControlDecision can
// report, mirroring the original's bitmask (kept as a single value here
// since Go favors an enum field over an OR'd flag int for a decision that's
// always single-cause).
type ControlFlag int

const (
	FlagNone ControlFlag = iota
	FlagKill
	FlagSession
	FlagCostFail
	FlagRegime
	FlagCapital
)

func (f ControlFlag) String() string {
	switch f {
	case FlagKill:
		return "KILL"
	case FlagSession:
		return "SESSION"
	case FlagCostFail:
		return "COST_FAIL"
	case FlagRegime:
		return "REGIME"
	case FlagCapital:
		return "CAPITAL"
	default:
		return "NONE"
	}
}

// ControlDecision is the coarse pre-check composed from the operator-facing
// switches below; it runs ahead of the full gate lattice as a cheap filter.
type ControlDecision struct {
	Allow         bool
	Flag          ControlFlag
	SizeMultiplier float64
}

// ControlPlane holds the small set of atomic operator switches (kill,
// session-allowed, regime quality, capital tier, latency rank) that gate
// every intent before it reaches the full per-layer lattice.
type ControlPlane struct {
	kill           atomic.Bool
	sessionAllowed atomic.Bool
	regimeQuality  atomic.Int32
	capitalTier    atomic.Int32
	latencyRank    atomic.Int32
}

func NewControlPlane() *ControlPlane {
	c := &ControlPlane{}
	c.sessionAllowed.Store(true)
	c.regimeQuality.Store(1)
	c.capitalTier.Store(1)
	return c
}

func (c *ControlPlane) SetKill(v bool)            { c.kill.Store(v) }
func (c *ControlPlane) SetSessionAllowed(v bool)  { c.sessionAllowed.Store(v) }
func (c *ControlPlane) SetRegimeQuality(q int32)  { c.regimeQuality.Store(q) }
func (c *ControlPlane) SetCapitalTier(t int32)    { c.capitalTier.Store(t) }
func (c *ControlPlane) SetLatencyRank(r int32)    { c.latencyRank.Store(r) }

// Decide produces the coarse pre-check decision for a requested trade with
// the given edge/cost estimate and size.
func (c *ControlPlane) Decide(edgeBps, costBps, requestedSize float64) ControlDecision {
	if c.kill.Load() {
		return ControlDecision{Allow: false, Flag: FlagKill}
	}
	if !c.sessionAllowed.Load() {
		return ControlDecision{Allow: false, Flag: FlagSession}
	}
	if edgeBps <= costBps {
		return ControlDecision{Allow: false, Flag: FlagCostFail}
	}

	rq := c.regimeQuality.Load()
	if rq <= 0 {
		return ControlDecision{Allow: false, Flag: FlagRegime}
	}
	tier := c.capitalTier.Load()
	if tier <= 0 {
		return ControlDecision{Allow: false, Flag: FlagCapital}
	}

	sizeMult := 1.0
	if c.latencyRank.Load() > 0 {
		sizeMult *= 1.5
	}
	sizeMult *= float64(tier)
	if rq >= 2 {
		sizeMult *= 1.5
	}
	if requestedSize <= 0 {
		sizeMult = 0
	}

	return ControlDecision{Allow: true, Flag: FlagNone, SizeMultiplier: sizeMult}
}
