package position

import "sync/atomic"

// DriftDetector latches a hard kill the moment local and exchange-truth
// positions for any symbol diverge beyond tolerance. Once killed, every gate
// in the lattice must read Killed() and refuse — there is no automatic
// recovery. Only an operator calling ClearKill re-arms the system; hot
// threads may only observe the flag, never clear it.
type DriftDetector struct {
	truth  *ExchangeTruth
	killed atomic.Bool
	reason atomic.Value // string
}

func NewDriftDetector(truth *ExchangeTruth) *DriftDetector {
	return &DriftDetector{truth: truth}
}

// Check compares localQty for symbol against exchange truth. A divergence
// beyond tolerance latches the kill and returns true.
func (d *DriftDetector) Check(symbol string, localQty, tolerance float64) bool {
	if d.truth.DriftDetected(symbol, localQty, tolerance) {
		d.killed.Store(true)
		d.reason.Store("drift: " + symbol)
		return true
	}
	return false
}

func (d *DriftDetector) Killed() bool {
	return d.killed.Load()
}

// Trigger latches the kill directly, for external desync signals (book
// desync, sequence gap) that do not go through Check.
func (d *DriftDetector) Trigger(reason string) {
	d.killed.Store(true)
	d.reason.Store(reason)
}

// Reason returns the last latch reason, or "" if never killed.
func (d *DriftDetector) Reason() string {
	if v, ok := d.reason.Load().(string); ok {
		return v
	}
	return ""
}

// ClearKill resets the latch. Operator-only: calling this from a hot-path
// goroutine defeats its purpose. The caller is responsible for having
// confirmed drift is understood and positions are reconciled before
// re-arming.
func (d *DriftDetector) ClearKill() {
	d.killed.Store(false)
	d.reason.Store("")
}
