// Package venue tracks per-venue liveness and FIX session health, and
// composes both into the single allow/size-multiplier decision the executor
// consults before every submit.
package venue

import "sync/atomic"

// Health thresholds, preserved as configurable constants per the design
// note that the original's values were empirically chosen.
const (
	DefaultStalenessMaxNs = uint64(5 * 1_000_000_000) // 5s
	DefaultLatencyMaxNs   = uint64(500 * 1_000_000)   // 500ms
	DefaultRejectMax      = uint64(10)
)

// Health tracks one venue's WS/REST liveness, ACK-RTT EMA, and reject count.
// Every field is an independent atomic; readers may observe a slightly stale
// but individually-consistent snapshot — there is no cross-field lock.
type Health struct {
	wsAlive     atomic.Bool
	restAlive   atomic.Bool
	lastWSNs    atomic.Uint64
	lastRestNs  atomic.Uint64
	rejectCount atomic.Uint64
	latencyNs   atomic.Uint64
	messages    atomic.Uint64

	stalenessMaxNs uint64
	latencyMaxNs   uint64
	rejectMax      uint64
}

// New builds a Health tracker with the given thresholds. Passing zero for
// any threshold substitutes the package default.
func New(stalenessMaxNs, latencyMaxNs, rejectMax uint64) *Health {
	if stalenessMaxNs == 0 {
		stalenessMaxNs = DefaultStalenessMaxNs
	}
	if latencyMaxNs == 0 {
		latencyMaxNs = DefaultLatencyMaxNs
	}
	if rejectMax == 0 {
		rejectMax = DefaultRejectMax
	}
	return &Health{stalenessMaxNs: stalenessMaxNs, latencyMaxNs: latencyMaxNs, rejectMax: rejectMax}
}

// OnWSMessage records a websocket message's arrival, monotonically
// advancing last_ws_ns. Called from the feed thread.
func (h *Health) OnWSMessage(nowNs uint64) {
	h.wsAlive.Store(true)
	advanceMonotonic(&h.lastWSNs, nowNs)
	h.messages.Add(1)
}

// OnRestMessage records a REST response's arrival.
func (h *Health) OnRestMessage(nowNs uint64) {
	h.restAlive.Store(true)
	advanceMonotonic(&h.lastRestNs, nowNs)
}

// OnWSDisconnect marks the websocket leg dead. Called from the connector.
func (h *Health) OnWSDisconnect() {
	h.wsAlive.Store(false)
}

// OnRestDisconnect marks the REST leg dead.
func (h *Health) OnRestDisconnect() {
	h.restAlive.Store(false)
}

// OnLatencySample folds an ACK-RTT sample in nanoseconds into the latency
// EMA (alpha = 0.1); the first sample seeds it.
func (h *Health) OnLatencySample(ns uint64) {
	for {
		cur := h.latencyNs.Load()
		next := ns
		if cur != 0 {
			next = uint64(float64(cur)*0.9 + float64(ns)*0.1)
		}
		if h.latencyNs.CompareAndSwap(cur, next) {
			return
		}
	}
}

// OnReject increments the reject counter. Only a control path resets it.
func (h *Health) OnReject() {
	h.rejectCount.Add(1)
}

// ResetRejects clears the reject counter. Control-path only.
func (h *Health) ResetRejects() {
	h.rejectCount.Store(0)
}

func advanceMonotonic(field *atomic.Uint64, nowNs uint64) {
	for {
		cur := field.Load()
		if nowNs <= cur {
			return
		}
		if field.CompareAndSwap(cur, nowNs) {
			return
		}
	}
}

// Snapshot is an internally-consistent read of one Health instance's fields
// at one moment, taken field-by-field (each individually atomic).
type Snapshot struct {
	WSAlive      bool
	RestAlive    bool
	LastWSNs     uint64
	LastRestNs   uint64
	RejectCount  uint64
	LatencyNs    uint64
	Messages     uint64
}

func (h *Health) Snapshot() Snapshot {
	return Snapshot{
		WSAlive:     h.wsAlive.Load(),
		RestAlive:   h.restAlive.Load(),
		LastWSNs:    h.lastWSNs.Load(),
		LastRestNs:  h.lastRestNs.Load(),
		RejectCount: h.rejectCount.Load(),
		LatencyNs:   h.latencyNs.Load(),
		Messages:    h.messages.Load(),
	}
}

// Healthy reports whether the venue is fit to trade at nowNs, per the
// composite check: ws alive, not stale, latency in bounds, rejects in bounds.
func (h *Health) Healthy(nowNs uint64) bool {
	s := h.Snapshot()
	if !s.WSAlive {
		return false
	}
	if nowNs-s.LastWSNs >= h.stalenessMaxNs {
		return false
	}
	if s.LatencyNs >= h.latencyMaxNs {
		return false
	}
	if s.RejectCount >= h.rejectMax {
		return false
	}
	return true
}

// TooManyRejects reports whether the reject counter alone has crossed the
// configured ceiling, independent of staleness/latency.
func (h *Health) TooManyRejects() bool {
	return h.rejectCount.Load() >= h.rejectMax
}

// LatencyOK reports whether the latency EMA alone is within bounds.
func (h *Health) LatencyOK() bool {
	return h.latencyNs.Load() < h.latencyMaxNs
}

// CanTrade is the composite predicate the arbiter consults.
func (h *Health) CanTrade(nowNs uint64) bool {
	return h.Healthy(nowNs)
}
