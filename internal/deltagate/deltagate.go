// Package deltagate implements the microstructure-stress gate: a single
// atomic state written by a stress monitor and read on every intent.
package deltagate

import "sync/atomic"

type State int32

const (
	Allow State = iota
	Throttle
	Block
)

func (s State) String() string {
	switch s {
	case Allow:
		return "ALLOW"
	case Throttle:
		return "THROTTLE"
	default:
		return "BLOCK"
	}
}

// Gate holds the current microstructure-stress state.
type Gate struct {
	state atomic.Int32
}

func New() *Gate {
	return &Gate{}
}

// SetFromStress maps a stress scalar in [0,1] to a state: >=0.8 BLOCK,
// >=0.5 THROTTLE, else ALLOW.
func (g *Gate) SetFromStress(stress float64) {
	var s State
	switch {
	case stress >= 0.8:
		s = Block
	case stress >= 0.5:
		s = Throttle
	default:
		s = Allow
	}
	g.state.Store(int32(s))
}

func (g *Gate) State() State {
	return State(g.state.Load())
}

// SizeMultiplier returns 1.0 / 0.5 / 0.0 for ALLOW / THROTTLE / BLOCK.
func (g *Gate) SizeMultiplier() float64 {
	switch g.State() {
	case Allow:
		return 1.0
	case Throttle:
		return 0.5
	default:
		return 0.0
	}
}
