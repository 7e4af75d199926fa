// Package position implements the L3 local bookkeeping layer: the
// authoritative per-symbol position gate, exchange-truth reconciliation, and
// the latched drift detector that sits between them.
package position

import "sync"

// Gate is the single authoritative point for position-cap checks. All
// position updates flow through it; engines may check caps as a courtesy,
// but Gate is the one place a violation is structurally impossible because
// the check and the commit share one lock.
type Gate struct {
	mu          sync.Mutex
	maxPerSym   float64
	positions   map[string]float64
}

func NewGate(maxPositionPerSymbol float64) *Gate {
	return &Gate{maxPerSym: maxPositionPerSymbol, positions: make(map[string]float64)}
}

// WouldViolate reports whether adding signedQty to symbol's current position
// would push its absolute size past the cap, without committing anything.
func (g *Gate) WouldViolate(symbol string, signedQty float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.positions[symbol] + signedQty
	return absf(next) > g.maxPerSym
}

// Reserve commits signedQty into symbol's position. Call only after the
// caller's own pre-check (WouldViolate or an upstream gate) has passed; for
// a single atomic check-and-commit use CheckAndReserve instead.
func (g *Gate) Reserve(symbol string, signedQty float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions[symbol] += signedQty
}

// CheckAndReserve performs the cap check and the commit under one lock
// acquisition, closing the race window between WouldViolate and Reserve.
func (g *Gate) CheckAndReserve(symbol string, signedQty float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.positions[symbol] + signedQty
	if absf(next) > g.maxPerSym {
		return false
	}
	g.positions[symbol] = next
	return true
}

func (g *Gate) Position(symbol string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.positions[symbol]
}

// SetPosition overwrites symbol's tracked position directly, for fills and
// reconciliation against exchange truth.
func (g *Gate) SetPosition(symbol string, qty float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions[symbol] = qty
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
