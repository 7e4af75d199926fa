package capital

import (
	"sync"

	"github.com/chimera-labs/execution-governor/internal/models"
)

// Exposure is one slot's committed/reserved notional. Both fields are always
// >= 0 and committed+reserved <= the slot's cap, enforced only while the
// allocator's single lock is held.
type Exposure struct {
	Committed float64
	Reserved  float64
}

// EngineID identifies the strategy engine owning an intent, for the
// per-engine exposure cap.
type EngineID string

// Reservation is the receipt returned by Reserve, threaded through Commit,
// AdjustOnFill, and Release so every stage operates on the exact notional
// that was originally reserved. Its first AdjustOnFill call "settles" it —
// later partial fills of the same order then simply add their own notional,
// since the unfilled remainder was already released on settlement.
type Reservation struct {
	Symbol   string
	Engine   EngineID
	Qty      float64
	Price    float64
	notional float64
	settled  bool
}

// Allocator is the atomicity heart of the capital layer: three exposure
// maps (global, per-engine, per-symbol) serialized through one lock held
// for the entire reserve/commit/adjust/release operation.
type Allocator struct {
	mu sync.Mutex

	globalCap float64
	global    Exposure

	engineWeights map[EngineID]float64 // clamped to [0.2, 0.8] of global cap
	engine        map[EngineID]*Exposure

	symbol map[string]*Exposure
}

func NewAllocator(globalCap float64) *Allocator {
	return &Allocator{
		globalCap:     globalCap,
		engineWeights: make(map[EngineID]float64),
		engine:        make(map[EngineID]*Exposure),
		symbol:        make(map[string]*Exposure),
	}
}

// SetEngineWeight assigns engine e a dynamic weight, clamped to [0.2, 0.8],
// which becomes its share of the global cap.
func (a *Allocator) SetEngineWeight(e EngineID, weight float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engineWeights[e] = clamp(weight, 0.2, 0.8)
}

func (a *Allocator) engineCapLocked(e EngineID) float64 {
	w, ok := a.engineWeights[e]
	if !ok {
		w = 0.5
	}
	return a.globalCap * w
}

func (a *Allocator) symbolCapLocked() float64 {
	return 0.5 * a.globalCap
}

func (a *Allocator) engineSlotLocked(e EngineID) *Exposure {
	slot, ok := a.engine[e]
	if !ok {
		slot = &Exposure{}
		a.engine[e] = slot
	}
	return slot
}

func (a *Allocator) symbolSlotLocked(symbol string) *Exposure {
	slot, ok := a.symbol[symbol]
	if !ok {
		slot = &Exposure{}
		a.symbol[symbol] = slot
	}
	return slot
}

// Reserve computes notional = qty*price and, if it fits under the global,
// engine, and symbol caps, adds it to all three slots' Reserved field.
func (a *Allocator) Reserve(symbol string, engine EngineID, qty, price float64) (*Reservation, bool) {
	notional := qty * price

	a.mu.Lock()
	defer a.mu.Unlock()

	engSlot := a.engineSlotLocked(engine)
	symSlot := a.symbolSlotLocked(symbol)

	if a.global.Committed+a.global.Reserved+notional > a.globalCap {
		return nil, false
	}
	if engSlot.Committed+engSlot.Reserved+notional > a.engineCapLocked(engine) {
		return nil, false
	}
	if symSlot.Committed+symSlot.Reserved+notional > a.symbolCapLocked() {
		return nil, false
	}

	a.global.Reserved += notional
	engSlot.Reserved += notional
	symSlot.Reserved += notional

	return &Reservation{Symbol: symbol, Engine: engine, Qty: qty, Price: price, notional: notional}, true
}

// Commit moves the reservation's notional from Reserved to Committed in all
// three slots. Total exposure is unchanged.
func (a *Allocator) Commit(r *Reservation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	move := func(slot *Exposure) {
		slot.Reserved -= r.notional
		slot.Committed += r.notional
	}
	move(&a.global)
	move(a.engineSlotLocked(r.Engine))
	move(a.symbolSlotLocked(r.Symbol))
}

// AdjustOnFill is the critical partial-fill reconciliation. On a
// reservation's first fill it releases the entire originally-reserved
// notional — wherever it currently sits, in Reserved (not yet committed) or
// Committed (already committed) — and replaces it with the actual filled
// notional; any unfilled remainder is thereby released. Subsequent fills
// against the same (now-settled) reservation simply add their own notional
// to Committed. Must be called once per fill event, partial or complete.
func (a *Allocator) AdjustOnFill(r *Reservation, actualQty, actualPrice float64) {
	actualNotional := actualQty * actualPrice

	a.mu.Lock()
	defer a.mu.Unlock()

	adjust := func(slot *Exposure) {
		if !r.settled {
			fromReserved := r.notional
			if fromReserved > slot.Reserved {
				fromReserved = slot.Reserved
			}
			slot.Reserved -= fromReserved
			remainder := r.notional - fromReserved
			slot.Committed -= remainder
			if slot.Committed < 0 {
				slot.Committed = 0
			}
		}
		slot.Committed += actualNotional
	}

	adjust(&a.global)
	adjust(a.engineSlotLocked(r.Engine))
	adjust(a.symbolSlotLocked(r.Symbol))

	r.settled = true
}

// Release subtracts the original notional from Reserved only. Used on
// cancel/reject before any fill occurred.
func (a *Allocator) Release(r *Reservation) {
	a.mu.Lock()
	defer a.mu.Unlock()

	release := func(slot *Exposure) {
		slot.Reserved -= r.notional
		if slot.Reserved < 0 {
			slot.Reserved = 0
		}
	}
	release(&a.global)
	release(a.engineSlotLocked(r.Engine))
	release(a.symbolSlotLocked(r.Symbol))
}

// GlobalExposure, EngineExposure, SymbolExposure are read-only snapshots for
// telemetry and the bucket ranker.
func (a *Allocator) GlobalExposure() Exposure {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.global
}

func (a *Allocator) EngineExposure(e EngineID) Exposure {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot, ok := a.engine[e]; ok {
		return *slot
	}
	return Exposure{}
}

func (a *Allocator) SymbolExposure(symbol string) Exposure {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot, ok := a.symbol[symbol]; ok {
		return *slot
	}
	return Exposure{}
}

// ReserveIntent is a convenience wrapper taking a models.Intent directly.
func (a *Allocator) ReserveIntent(i models.Intent, engine EngineID, price float64) (*Reservation, bool) {
	return a.Reserve(i.Symbol, engine, i.Qty, price)
}
