// Package bootstrap implements the per-symbol warm-up evaluator: three
// monotone gates (DATA_READY, EDGE_READY, SAFETY_READY) that must all pass,
// in order, before a symbol's intents are executed rather than merely
// observed.
package bootstrap

import "sync"

type State int32

const (
	Init State = iota
	WaitData
	WaitEdge
	Complete
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case WaitData:
		return "WAIT_DATA"
	case WaitEdge:
		return "WAIT_EDGE"
	default:
		return "COMPLETE"
	}
}

// Config carries the exact default thresholds from the original evaluator.
type Config struct {
	MinBookValidMs  int64
	MinTickCount    int
	MinSpreadSamples int
	MinIntents      int
	MaxChurnRate    float64
	MinPersistence  float64
	MinMeanEdgeBps  float64
	RequireKillSwitch bool
	RequireSpreadGuard bool
}

func DefaultConfig() Config {
	return Config{
		MinBookValidMs:     30_000,
		MinTickCount:       100,
		MinSpreadSamples:   200,
		MinIntents:         40,
		MaxChurnRate:       0.25,
		MinPersistence:     0.60,
		MinMeanEdgeBps:     0.5,
		RequireKillSwitch:  true,
		RequireSpreadGuard: true,
	}
}

const intentRingCapacity = 256

type intentRecord struct {
	isBuy bool
	edgeBps float64
}

// Evaluator is the per-symbol bootstrap state machine. It never regresses:
// once in a more-advanced state, observations can only hold it steady or
// move it forward.
type Evaluator struct {
	mu sync.Mutex
	cfg Config

	state State

	bookValidSinceMs int64
	bookValidMs      int64
	tickCount        int
	spreadSamples    int

	intents      [intentRingCapacity]intentRecord
	intentNext   int
	intentCount  int
	totalIntents int
	directionFlips int
	lastWasBuy   bool
	haveLast     bool
	buyIntents   int
	sellIntents  int
	edgeSum      float64

	killSwitchArmed bool
	spreadGuardActive bool
}

func New(cfg Config) *Evaluator {
	return &Evaluator{cfg: cfg, state: Init}
}

// ObserveTick folds in a market tick: whether the book is currently valid
// and whether a spread sample was taken.
func (e *Evaluator) ObserveTick(bookValid bool, spreadSampled bool, nowMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCount++
	if spreadSampled {
		e.spreadSamples++
	}
	if bookValid {
		if e.bookValidSinceMs == 0 {
			e.bookValidSinceMs = nowMs
		}
		e.bookValidMs = nowMs - e.bookValidSinceMs
	} else {
		e.bookValidSinceMs = 0
		e.bookValidMs = 0
	}
	e.advanceLocked()
}

// ObserveIntent records a shadow (or live) intent for churn/persistence/edge
// tracking. Called whether or not the symbol is COMPLETE — intents are
// always observed while not COMPLETE.
func (e *Evaluator) ObserveIntent(isBuy bool, edgeBps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.intentCount == intentRingCapacity {
		old := e.intents[e.intentNext]
		if old.isBuy {
			e.buyIntents--
		} else {
			e.sellIntents--
		}
		e.edgeSum -= old.edgeBps
	} else {
		e.intentCount++
	}
	e.intents[e.intentNext] = intentRecord{isBuy: isBuy, edgeBps: edgeBps}
	e.intentNext = (e.intentNext + 1) % intentRingCapacity

	if isBuy {
		e.buyIntents++
	} else {
		e.sellIntents++
	}
	e.edgeSum += edgeBps
	e.totalIntents++

	if e.haveLast && isBuy != e.lastWasBuy {
		e.directionFlips++
	}
	e.lastWasBuy = isBuy
	e.haveLast = true

	e.advanceLocked()
}

// ObserveSafety records the current kill-switch/spread-guard status.
func (e *Evaluator) ObserveSafety(killSwitchArmed, spreadGuardActive bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.killSwitchArmed = killSwitchArmed
	e.spreadGuardActive = spreadGuardActive
	e.advanceLocked()
}

func (e *Evaluator) churnRateLocked() float64 {
	if e.intentCount < 2 {
		return 0
	}
	return float64(e.directionFlips) / float64(e.intentCount-1)
}

func (e *Evaluator) persistenceLocked() float64 {
	if e.intentCount == 0 {
		return 0
	}
	maj := e.buyIntents
	if e.sellIntents > maj {
		maj = e.sellIntents
	}
	return float64(maj) / float64(e.intentCount)
}

func (e *Evaluator) meanEdgeBpsLocked() float64 {
	if e.intentCount == 0 {
		return 0
	}
	return e.edgeSum / float64(e.intentCount)
}

func (e *Evaluator) checkDataReadyLocked() bool {
	return e.bookValidMs >= e.cfg.MinBookValidMs &&
		e.tickCount >= e.cfg.MinTickCount &&
		e.spreadSamples >= e.cfg.MinSpreadSamples
}

func (e *Evaluator) checkEdgeReadyLocked() bool {
	return e.totalIntents >= e.cfg.MinIntents &&
		e.churnRateLocked() <= e.cfg.MaxChurnRate &&
		e.persistenceLocked() >= e.cfg.MinPersistence &&
		e.meanEdgeBpsLocked() >= e.cfg.MinMeanEdgeBps
}

func (e *Evaluator) checkSafetyReadyLocked() bool {
	if e.cfg.RequireKillSwitch && !e.killSwitchArmed {
		return false
	}
	if e.cfg.RequireSpreadGuard && !e.spreadGuardActive {
		return false
	}
	return true
}

// advanceLocked moves state forward, never backward.
func (e *Evaluator) advanceLocked() {
	switch e.state {
	case Init:
		e.state = WaitData
		fallthrough
	case WaitData:
		if e.checkDataReadyLocked() {
			e.state = WaitEdge
		} else {
			return
		}
		fallthrough
	case WaitEdge:
		if e.checkEdgeReadyLocked() && e.checkSafetyReadyLocked() {
			e.state = Complete
		}
	case Complete:
		// terminal until explicit Reset
	}
}

func (e *Evaluator) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ExecutionAllowed reports whether trades may be executed (only once
// COMPLETE — before that, intents are observed but not executed).
func (e *Evaluator) ExecutionAllowed() bool {
	return e.State() == Complete
}

func (e *Evaluator) ChurnRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.churnRateLocked()
}

func (e *Evaluator) Persistence() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persistenceLocked()
}

func (e *Evaluator) MeanEdgeBps() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meanEdgeBpsLocked()
}

// Reset returns the evaluator to INIT. Control-path only.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	*e = Evaluator{cfg: e.cfg, state: Init}
}
