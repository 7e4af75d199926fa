package capital

import (
	"sync"

	"github.com/chimera-labs/execution-governor/internal/latency"
)

// SessionType is the coarse UTC-hour session used by the risk governor
// (distinct from CapitalPolicy's minute-granular Session).
type SessionType int

const (
	Asia SessionType = iota
	London
	NewYork
	Dead
)

// SessionFromUTCHour derives the session from the UTC hour of day.
func SessionFromUTCHour(hour int) SessionType {
	switch {
	case hour >= 0 && hour < 7:
		return Asia
	case hour >= 7 && hour < 13:
		return London
	case hour >= 13 && hour < 21:
		return NewYork
	default:
		return Dead
	}
}

// RiskDecision is the RiskGovernor's per-intent output.
type RiskDecision struct {
	Approved    bool
	SizeMult    float64
}

// RiskGovernor produces a runtime approve/size-multiplier decision from
// session-scaled spread/vol/latency thresholds plus a hysteretic lockdown.
type RiskGovernor struct {
	baseVol     float64
	baseLatency float64
	maxLossRef  float64
	maxRejects  uint64

	lockdown *latency.CountHysteresis

	mu sync.Mutex

	pnl       float64
	rejects   uint64
	curLatency float64
	curVol     float64
	killSwitch bool
	dailyLossTripped bool
}

func NewRiskGovernor(baseVol, baseLatency, maxLossRef float64, maxRejects uint64) *RiskGovernor {
	return &RiskGovernor{
		baseVol:     baseVol,
		baseLatency: baseLatency,
		maxLossRef:  maxLossRef,
		maxRejects:  maxRejects,
		lockdown:    latency.NewCountHysteresis(false, 1),
	}
}

func (g *RiskGovernor) computeSpreadThreshold(session SessionType, symbolBase float64) float64 {
	switch session {
	case London:
		return symbolBase * 1.0
	case NewYork:
		return symbolBase * 1.1
	case Asia:
		return symbolBase * 0.8
	default: // Dead
		return symbolBase * 0.6
	}
}

func (g *RiskGovernor) computeVolThreshold(session SessionType) float64 {
	switch session {
	case London:
		return g.baseVol * 1.2
	case NewYork:
		return g.baseVol * 1.3
	case Asia:
		return g.baseVol * 0.9
	default: // Dead
		return g.baseVol * 0.7
	}
}

func (g *RiskGovernor) computeLatencyThreshold(session SessionType) float64 {
	switch session {
	case London:
		return g.baseLatency * 1.0
	case NewYork:
		return g.baseLatency * 1.1
	default: // Asia, Dead
		return g.baseLatency * 0.9
	}
}

// checkLockdownConditions applies the engage-on-2x/exit-below-1.5x
// hysteresis, latching lockdown as a boolean flipped via CountHysteresis
// with required=1 (the engage/exit asymmetry itself provides the
// hysteresis band; no additional consecutive-sample requirement applies
// here, unlike the latency regime).
func (g *RiskGovernor) checkLockdownConditions(vol, lat float64) bool {
	engage := vol > 2*g.baseVol || lat > 2*g.baseLatency
	exit := vol < 1.5*g.baseVol && lat < 1.5*g.baseLatency

	g.mu.Lock()
	defer g.mu.Unlock()
	cur := g.lockdown.State()
	switch {
	case !cur && engage:
		g.lockdown.Reset(true)
		return true
	case cur && exit:
		g.lockdown.Reset(false)
		return false
	default:
		return cur
	}
}

func computeDrawdownMultiplier(pnl, maxLoss float64) float64 {
	if maxLoss <= 0 {
		return 1.0
	}
	adverse := -pnl
	if adverse < 0 {
		adverse = 0
	}
	return 1 - 0.5*(adverse/maxLoss)
}

func computeRejectPenalty(rejects uint64) float64 {
	p := 1 - 0.03*float64(rejects)
	if p < 0.5 {
		return 0.5
	}
	return p
}

func computeLatencyPenalty(lat, base float64) float64 {
	switch {
	case lat < 0.5*base:
		return 1.1
	case lat > base:
		return 0.7
	default:
		return 1.0
	}
}

func computeVolatilityPenalty(vol, base float64) float64 {
	switch {
	case vol > 0.8*base:
		return 0.8
	case vol < 0.5*base:
		return 1.1
	default:
		return 1.0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Observe updates the governor's session-scaled view of current conditions.
func (g *RiskGovernor) Observe(pnl float64, rejects uint64, curLatency, curVol float64) {
	g.mu.Lock()
	g.pnl = pnl
	g.rejects = rejects
	g.curLatency = curLatency
	g.curVol = curVol
	g.mu.Unlock()
}

// SetKillSwitch and SetDailyLossTripped mirror upstream governors that the
// risk governor defers to ahead of its own checks.
func (g *RiskGovernor) SetKillSwitch(active bool) {
	g.mu.Lock()
	g.killSwitch = active
	g.mu.Unlock()
}

func (g *RiskGovernor) SetDailyLossTripped(tripped bool) {
	g.mu.Lock()
	g.dailyLossTripped = tripped
	g.mu.Unlock()
}

// Evaluate produces the per-intent decision.
func (g *RiskGovernor) Evaluate(session SessionType, spread, spreadSymbolBase float64) RiskDecision {
	g.mu.Lock()
	pnl, rejects, curLatency, curVol := g.pnl, g.rejects, g.curLatency, g.curVol
	killSwitch, dailyLossTripped := g.killSwitch, g.dailyLossTripped
	g.mu.Unlock()

	if killSwitch || dailyLossTripped {
		return RiskDecision{Approved: false, SizeMult: 0}
	}

	if g.checkLockdownConditions(curVol, curLatency) {
		return RiskDecision{Approved: true, SizeMult: 0.2}
	}

	spreadThreshold := g.computeSpreadThreshold(session, spreadSymbolBase)
	if spread > spreadThreshold {
		return RiskDecision{Approved: false, SizeMult: 0}
	}
	volThreshold := g.computeVolThreshold(session)
	if curVol > volThreshold {
		return RiskDecision{Approved: false, SizeMult: 0}
	}
	latencyThreshold := g.computeLatencyThreshold(session)
	if curLatency > latencyThreshold {
		return RiskDecision{Approved: false, SizeMult: 0}
	}
	if rejects > 15 {
		return RiskDecision{Approved: false, SizeMult: 0}
	}

	ddMult := computeDrawdownMultiplier(pnl, g.maxLossRef)
	rejectPenalty := computeRejectPenalty(rejects)
	latPenalty := computeLatencyPenalty(curLatency, g.baseLatency)
	volPenalty := computeVolatilityPenalty(curVol, g.baseVol)

	sizeMult := clamp(ddMult*rejectPenalty*latPenalty*volPenalty, 0.2, 1.5)
	return RiskDecision{Approved: true, SizeMult: sizeMult}
}

// InLockdown reports the latched lockdown flag; other adaptive components
// must observe this and freeze parameter updates while it is true.
func (g *RiskGovernor) InLockdown() bool {
	return g.lockdown.State()
}
