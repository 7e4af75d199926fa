// Package lossguard implements the cross-engine daily-loss trip latch. PnL
// is accumulated as an integer count of micro-currency-units under a CAS
// loop rather than an atomic float, per the re-architecture note that
// atomic-compare-exchange on f64 is a code smell to eliminate.
package lossguard

import (
	"math"
	"sync/atomic"
	"time"
)

const microUnit = 1_000_000.0

func toMicros(v float64) int64 { return int64(math.Round(v * microUnit)) }
func fromMicros(v int64) float64 { return float64(v) / microUnit }

// Guard is a single shared accumulator with a loss limit.
type Guard struct {
	pnlMicros   atomic.Int64
	limitMicros int64
	tripped     atomic.Bool
	trippedAtNs atomic.Int64
}

// New builds a Guard with the given loss limit (positive currency units).
func New(limit float64) *Guard {
	return &Guard{limitMicros: toMicros(limit)}
}

// OnFill folds a realized PnL delta into the accumulator. If the new total
// crosses below -limit and the guard is not already tripped, it latches.
func (g *Guard) OnFill(pnl float64, nowNs int64) {
	delta := toMicros(pnl)
	for {
		cur := g.pnlMicros.Load()
		next := cur + delta
		if g.pnlMicros.CompareAndSwap(cur, next) {
			if next <= -g.limitMicros && !g.tripped.Load() {
				if g.tripped.CompareAndSwap(false, true) {
					g.trippedAtNs.Store(nowNs)
				}
			}
			return
		}
	}
}

// Allow reports whether new trades are permitted — false once tripped.
func (g *Guard) Allow() bool {
	return !g.tripped.Load()
}

// Tripped reports the latch state.
func (g *Guard) Tripped() bool {
	return g.tripped.Load()
}

// PnL returns the current accumulated PnL in currency units.
func (g *Guard) PnL() float64 {
	return fromMicros(g.pnlMicros.Load())
}

// DrawdownUsed returns the fraction of the limit consumed, clamped to [0,1].
func (g *Guard) DrawdownUsed() float64 {
	pnl := g.PnL()
	if pnl >= 0 {
		return 0
	}
	limit := fromMicros(g.limitMicros)
	if limit == 0 {
		return 1
	}
	used := -pnl / limit
	if used > 1 {
		return 1
	}
	return used
}

// ThrottleFactor returns max(0, 1 - dd_used^exponent), the sub-blocking
// throttle applied before the hard trip fires.
func (g *Guard) ThrottleFactor(exponent float64) float64 {
	if exponent <= 0 {
		exponent = 2.0
	}
	dd := g.DrawdownUsed()
	f := 1 - math.Pow(dd, exponent)
	if f < 0 {
		return 0
	}
	return f
}

// Reset clears the accumulator and the trip latch. Control-path only, never
// called from a hot thread.
func (g *Guard) Reset() {
	g.pnlMicros.Store(0)
	g.tripped.Store(false)
	g.trippedAtNs.Store(0)
}

// TrippedAt returns the timestamp the latch tripped, or zero if not tripped.
func (g *Guard) TrippedAt() time.Time {
	ns := g.trippedAtNs.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
