// Package models holds the data types shared across the governor's layers:
// the Intent record producers push, the snapshots L1 governors expose, and
// the block-reason taxonomy surfaced to telemetry.
package models

import (
	"fmt"
	"unicode/utf8"
)

// Side is the direction of a trade intent.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// MaxSymbolLen is the longest symbol accepted by Intent, matching the
// "≤15 char ASCII" decision recorded for the simple Intent variant.
const MaxSymbolLen = 15

// Intent is an immutable, fixed-field trade-action record. It is built once
// by a producer thread, pushed into the ring, and owned by the consumer
// after pop. It never escapes to the heap on the hot path beyond its single
// construction — producers are expected to stack-allocate it.
type Intent struct {
	Side   Side
	Symbol string
	Qty    float64
	TSNano uint64
}

// NewIntent validates and constructs an Intent. Validation happens at the
// producer boundary, never inside the ring or the consumer loop — a bad
// Intent is a construction-time programmer error (ConfigInvariantViolation
// family), not a hot-path condition.
func NewIntent(side Side, symbol string, qty float64, tsNano uint64) (Intent, error) {
	if symbol == "" {
		return Intent{}, fmt.Errorf("models: empty symbol")
	}
	if utf8.RuneCountInString(symbol) > MaxSymbolLen {
		return Intent{}, fmt.Errorf("models: symbol %q exceeds %d chars", symbol, MaxSymbolLen)
	}
	for _, r := range symbol {
		if r > 127 {
			return Intent{}, fmt.Errorf("models: symbol %q is not ASCII", symbol)
		}
	}
	if qty <= 0 {
		return Intent{}, fmt.Errorf("models: qty must be > 0, got %v", qty)
	}
	return Intent{Side: side, Symbol: symbol, Qty: qty, TSNano: tsNano}, nil
}

// Notional returns qty * price, the unit the allocator reasons about.
func (i Intent) Notional(price float64) float64 {
	return i.Qty * price
}

// SignedQty returns Qty for BUY, -Qty for SELL — the directional quantity
// the position gate reasons about.
func (i Intent) SignedQty() float64 {
	if i.Side == Sell {
		return -i.Qty
	}
	return i.Qty
}
