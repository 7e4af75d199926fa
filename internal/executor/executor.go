// Package executor implements the L4 per-symbol execution state machine
// and its sliced-fill exposure tracker.
package executor

import (
	"math"
	"sync/atomic"

	"github.com/chimera-labs/execution-governor/internal/models"
)

// State is the symbol executor's lifecycle stage.
type State int32

const (
	StateIdle State = iota
	StateEntering
	StateHolding
	StateExiting
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateEntering:
		return "ENTERING"
	case StateHolding:
		return "HOLDING"
	case StateExiting:
		return "EXITING"
	case StateCooldown:
		return "COOLDOWN"
	default:
		return "UNKNOWN"
	}
}

// Config holds the executor's tunable timing constants.
type Config struct {
	SoftCooldownMs        int64
	HardCooldownMs        int64
	ImpulseDecayTauMs     float64
	ImpulseDecayExitRatio float64
	ImpulseDecayWarnRatio float64
	TrailArmR             float64 // favorable move, in R, that arms the trailing stop
	TrailDistanceR        float64 // trailing stop distance, in R, once armed
}

func DefaultConfig() Config {
	return Config{
		SoftCooldownMs:        800,
		HardCooldownMs:        400,
		ImpulseDecayTauMs:     120,
		ImpulseDecayExitRatio: 0.30,
		ImpulseDecayWarnRatio: 0.48,
		TrailArmR:             1.0,
		TrailDistanceR:        0.5,
	}
}

// TickContext is one market-tick observation fed to the executor.
type TickContext struct {
	Price   float64
	TSNano  int64
	Velocity float64
}

// EntryConditions bundles everything the IDLE entry evaluation needs, already
// composed by the caller from the upstream gate lattice (capital policy,
// risk governor, venue arbiter) and the impulse sizer.
type EntryConditions struct {
	Side             models.Side
	Price            float64
	TSNano           int64
	Velocity         float64
	ImpulseSoftFloor float64
	GatesPass        bool
	BaseQty          float64
	SizeMult         float64
	TPScale          float64
	StopDistance     float64 // price distance defining 1R
}

// position is the open (or being-opened) leg's state. Owned exclusively by
// the symbol's single consumer goroutine; no lock needed.
type position struct {
	side         models.Side
	qty          float64
	entryPrice   float64
	entryImpulse float64
	entryTSNano  int64
	stopPrice    float64
	tpPrice      float64
	stopDistance float64
	mfe          float64
	mae          float64
	trailArmed   bool
}

// ActionKind is what the executor wants the caller to do as a result of a
// tick or fill observation.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionExit
	ActionWarn
)

type Action struct {
	Kind   ActionKind
	Reason string
}

// Executor is the per-symbol state machine: IDLE -> ENTERING -> HOLDING ->
// EXITING -> COOLDOWN -> IDLE. A single goroutine drains one symbol's ring
// and is the sole writer of every field here except state, which is also
// read by telemetry from other goroutines.
type Executor struct {
	symbol string
	cfg    Config

	state atomic.Int32

	pos      position
	exposure Exposure

	cooldownUntilNs int64
	hardCooldown    bool
	pyramided       bool
	consecLosses    int
}

func New(symbol string, cfg Config) *Executor {
	return &Executor{symbol: symbol, cfg: cfg}
}

func (e *Executor) Symbol() string { return e.symbol }

func (e *Executor) State() State { return State(e.state.Load()) }

func (e *Executor) setState(s State) { e.state.Store(int32(s)) }

// InCooldown reports whether the executor is still within its post-exit
// cooldown window at nowNs.
func (e *Executor) InCooldown(nowNs int64) bool {
	return e.State() == StateCooldown && nowNs < e.cooldownUntilNs
}

// Pyramided reports whether this executor has recorded a scale-up for its
// symbol. It is local bookkeeping only: CapitalPolicy does not read it.
func (e *Executor) Pyramided() bool { return e.pyramided }

// TryEnter evaluates IDLE -> ENTERING. Velocity must clear the symbol's
// impulse-soft floor, the executor must not be in cooldown, and every
// upstream gate must already have passed (composed by the caller). Returns
// false without side effects if any condition fails.
func (e *Executor) TryEnter(c EntryConditions) bool {
	if e.State() != StateIdle {
		return false
	}
	if e.InCooldown(c.TSNano) {
		return false
	}
	if !c.GatesPass || c.Velocity < c.ImpulseSoftFloor {
		return false
	}

	qty := c.BaseQty * c.SizeMult
	stopPrice, tpPrice := computeStopAndTP(c.Side, c.Price, c.StopDistance, c.TPScale)

	e.pos = position{
		side:         c.Side,
		qty:          qty,
		entryPrice:   c.Price,
		entryImpulse: c.Velocity,
		entryTSNano:  c.TSNano,
		stopPrice:    stopPrice,
		tpPrice:      tpPrice,
		stopDistance: c.StopDistance,
	}
	e.exposure.Reset(qty)
	e.setState(StateEntering)
	return true
}

func computeStopAndTP(side models.Side, price, stopDistance, tpScale float64) (stop, tp float64) {
	tpDistance := stopDistance * 1.5 * tpScale
	if side == models.Buy {
		return price - stopDistance, price + tpDistance
	}
	return price + stopDistance, price - tpDistance
}

// OnFill updates the entering/holding leg's exposure. Once the target
// quantity has been filled, ENTERING completes into HOLDING.
func (e *Executor) OnFill(qty float64) {
	e.exposure.RecordFill(qty)
	if e.State() == StateEntering && e.exposure.Complete() {
		e.setState(StateHolding)
	}
}

// OnTick drives per-tick state transitions for COOLDOWN expiry and the
// HOLDING leg's trailing-stop / TP / impulse-decay checks. IDLE entry
// evaluation is driven by TryEnter instead, since it needs externally
// composed gate results the tick context alone does not carry.
func (e *Executor) OnTick(ctx TickContext) Action {
	switch e.State() {
	case StateCooldown:
		if ctx.TSNano >= e.cooldownUntilNs {
			e.setState(StateIdle)
		}
		return Action{Kind: ActionNone}
	case StateHolding:
		return e.evaluateHolding(ctx)
	default:
		return Action{Kind: ActionNone}
	}
}

func (e *Executor) evaluateHolding(ctx TickContext) Action {
	move := signedMove(e.pos.side, e.pos.entryPrice, ctx.Price)
	if move > e.pos.mfe {
		e.pos.mfe = move
	}
	if -move > e.pos.mae {
		e.pos.mae = -move
	}

	if !e.pos.trailArmed && e.pos.stopDistance > 0 && e.pos.mfe >= e.cfg.TrailArmR*e.pos.stopDistance {
		e.pos.trailArmed = true
	}
	if e.pos.trailArmed {
		trail := e.cfg.TrailDistanceR * e.pos.stopDistance
		newStop := trailingStop(e.pos.side, ctx.Price, trail)
		if betterStop(e.pos.side, newStop, e.pos.stopPrice) {
			e.pos.stopPrice = newStop
		}
	}

	if stopHit(e.pos.side, ctx.Price, e.pos.stopPrice) {
		e.setState(StateExiting)
		return Action{Kind: ActionExit, Reason: "stop"}
	}
	if tpHit(e.pos.side, ctx.Price, e.pos.tpPrice) {
		e.setState(StateExiting)
		return Action{Kind: ActionExit, Reason: "tp"}
	}

	dtMs := float64(ctx.TSNano-e.pos.entryTSNano) / 1e6
	if e.pos.entryImpulse > 0 {
		effective := e.pos.entryImpulse * math.Exp(-dtMs/e.cfg.ImpulseDecayTauMs)
		ratio := effective / e.pos.entryImpulse
		if ratio < e.cfg.ImpulseDecayExitRatio {
			e.setState(StateExiting)
			return Action{Kind: ActionExit, Reason: "impulse_decay"}
		}
		if ratio < e.cfg.ImpulseDecayWarnRatio {
			return Action{Kind: ActionWarn, Reason: "impulse_decay_warn"}
		}
	}

	return Action{Kind: ActionNone}
}

// OnExit finalizes EXITING -> COOLDOWN, updating the consecutive-loss count
// and arming the appropriate cooldown tier. A negative pnl counts as a loss;
// any other pnl resets the count. The pnl itself is not stored. stopOut marks
// a hard-stop exit, which always forces the hard cooldown regardless of PnL.
func (e *Executor) OnExit(nowNs int64, pnl float64, stopOut bool) {
	if pnl < 0 {
		e.consecLosses++
	} else {
		e.consecLosses = 0
	}

	hard := stopOut || e.consecLosses >= 2
	var cooldownMs int64
	if hard {
		cooldownMs = e.cfg.HardCooldownMs
	} else {
		cooldownMs = e.cfg.SoftCooldownMs
	}
	e.hardCooldown = hard
	e.cooldownUntilNs = nowNs + cooldownMs*int64(1e6)
	e.pos = position{}
	e.setState(StateCooldown)
}

// MarkPyramided records that this symbol has taken a scale-up.
func (e *Executor) MarkPyramided() { e.pyramided = true }

func signedMove(side models.Side, entry, cur float64) float64 {
	if side == models.Buy {
		return cur - entry
	}
	return entry - cur
}

func trailingStop(side models.Side, cur, distance float64) float64 {
	if side == models.Buy {
		return cur - distance
	}
	return cur + distance
}

func betterStop(side models.Side, candidate, current float64) bool {
	if side == models.Buy {
		return candidate > current
	}
	return candidate < current
}

func stopHit(side models.Side, price, stop float64) bool {
	if side == models.Buy {
		return price <= stop
	}
	return price >= stop
}

func tpHit(side models.Side, price, tp float64) bool {
	if side == models.Buy {
		return price >= tp
	}
	return price <= tp
}
