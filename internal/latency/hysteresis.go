package latency

import "sync"

// CountHysteresis flips to a new boolean state only once the opposing
// condition has held for `required` consecutive observations, preventing
// single-sample flaps. Grounded on the original's HysteresisGate family.
// The risk governor's lockdown flag uses it; the latency Governor keeps its
// own K=10 recovery counter and does not use this type.
type CountHysteresis struct {
	mu       sync.Mutex
	state    bool
	run      int
	required int
}

// NewCountHysteresis builds a gate starting at initial with the given
// required run-length (K). There is no default K: callers pass it, and
// values below 1 are raised to 1.
func NewCountHysteresis(initial bool, required int) *CountHysteresis {
	if required < 1 {
		required = 1
	}
	return &CountHysteresis{state: initial, required: required}
}

// Observe records one sample's raw (unhysteresised) condition and returns
// the gate's current (possibly unchanged) state.
func (g *CountHysteresis) Observe(raw bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if raw == g.state {
		g.run = 0
		return g.state
	}
	g.run++
	if g.run >= g.required {
		g.state = raw
		g.run = 0
	}
	return g.state
}

func (g *CountHysteresis) State() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *CountHysteresis) Reset(initial bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = initial
	g.run = 0
}

// ThresholdHysteresis flips on an upper/lower band: true once value crosses
// upper, false once value drops below lower, holding in between.
type ThresholdHysteresis struct {
	mu         sync.Mutex
	state      bool
	upper, lower float64
}

func NewThresholdHysteresis(upper, lower float64) *ThresholdHysteresis {
	return &ThresholdHysteresis{upper: upper, lower: lower}
}

func (t *ThresholdHysteresis) Observe(value float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state && value >= t.upper {
		t.state = true
	} else if t.state && value <= t.lower {
		t.state = false
	}
	return t.state
}

func (t *ThresholdHysteresis) State() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
