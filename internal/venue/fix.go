package venue

import "sync/atomic"

// FixState is one link of the FIX session health chain.
type FixState int32

const (
	Disconnected FixState = iota
	Connecting
	LoggedIn
	Degraded
	Halted
)

func (s FixState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case LoggedIn:
		return "LOGGED_IN"
	case Degraded:
		return "DEGRADED"
	case Halted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}

// FixThresholds are configurable constants; the defaults below are
// empirically chosen and not re-derived here.
type FixThresholds struct {
	MaxRejects    uint64
	MaxTimeouts   uint64
	MaxLatencyUs  uint64
	RxStallNs     uint64
}

// DefaultFixThresholds matches the original's literal constants.
func DefaultFixThresholds() FixThresholds {
	return FixThresholds{
		MaxRejects:   3,
		MaxTimeouts:  2,
		MaxLatencyUs: 8000,
		RxStallNs:    200 * 1_000_000,
	}
}

// FixSession tracks one FIX session's health and derives its state from
// reject count, timeout count, latency EMA, and RX staleness. All metrics
// are independent atomics; State() recomputes the derived state from the
// current snapshot rather than storing it redundantly, so it can never
// drift out of sync with the counters that drive it.
type FixSession struct {
	lastRxNs    atomic.Uint64
	lastTxNs    atomic.Uint64
	rejectCount atomic.Uint64
	timeoutCount atomic.Uint64
	latencyUsEma atomic.Uint64
	loggedIn    atomic.Bool
	connecting  atomic.Bool

	thresholds FixThresholds
}

func NewFixSession(thresholds FixThresholds) *FixSession {
	return &FixSession{thresholds: thresholds}
}

func (f *FixSession) OnConnect() { f.connecting.Store(true) }

// OnLogon marks the session logged in and, matching the original's
// on_logon() (which zeroes reject_count_/timeout_count_ and forces
// state_ = LOGGED_IN), clears the reject/timeout counters so a fresh
// logon after a DEGRADED/HALTED session can recover to LOGGED_IN rather
// than being stuck by stale counts.
func (f *FixSession) OnLogon() {
	f.loggedIn.Store(true)
	f.rejectCount.Store(0)
	f.timeoutCount.Store(0)
}

func (f *FixSession) OnDisconnect() {
	f.loggedIn.Store(false)
	f.connecting.Store(false)
}

func (f *FixSession) OnRx(nowNs uint64) { advanceMonotonic(&f.lastRxNs, nowNs) }
func (f *FixSession) OnTx(nowNs uint64) { advanceMonotonic(&f.lastTxNs, nowNs) }

func (f *FixSession) OnLatency(us uint64) {
	// Exponential moving average with alpha = 0.1, matching the pattern
	// used throughout the venue/risk layer for latency smoothing.
	for {
		cur := f.latencyUsEma.Load()
		if cur == 0 {
			if f.latencyUsEma.CompareAndSwap(0, us) {
				return
			}
			continue
		}
		next := uint64(float64(cur)*0.9 + float64(us)*0.1)
		if f.latencyUsEma.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (f *FixSession) OnReject()  { f.rejectCount.Add(1) }
func (f *FixSession) OnTimeout() { f.timeoutCount.Add(1) }

// State derives the session's FixState from current counters and nowNs.
func (f *FixSession) State(nowNs uint64) FixState {
	if !f.connecting.Load() {
		return Disconnected
	}
	if !f.loggedIn.Load() {
		return Connecting
	}
	rxStale := nowNs-f.lastRxNs.Load() >= f.thresholds.RxStallNs
	if f.rejectCount.Load() >= f.thresholds.MaxRejects*2 ||
		f.timeoutCount.Load() >= f.thresholds.MaxTimeouts*2 {
		return Halted
	}
	if rxStale ||
		f.rejectCount.Load() >= f.thresholds.MaxRejects ||
		f.timeoutCount.Load() >= f.thresholds.MaxTimeouts ||
		f.latencyUsEma.Load() >= f.thresholds.MaxLatencyUs {
		return Degraded
	}
	return LoggedIn
}

// AllowNewOrders reports whether the session's current state permits new
// order submission.
func (f *FixSession) AllowNewOrders(nowNs uint64) bool {
	return f.State(nowNs) != Halted && f.State(nowNs) != Disconnected && f.State(nowNs) != Connecting
}

// SizeMultiplier halves size in DEGRADED and zeroes it in HALTED.
func (f *FixSession) SizeMultiplier(nowNs uint64) float64 {
	switch f.State(nowNs) {
	case Degraded:
		return 0.5
	case Halted:
		return 0.0
	case LoggedIn:
		return 1.0
	default:
		return 0.0
	}
}
