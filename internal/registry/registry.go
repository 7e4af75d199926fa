// Package registry replaces the source's mutable singletons (static ...&
// instance() globals such as SymbolHealthManager, TradeAuthority,
// TradeOpportunityMetrics) with a single explicitly-constructed service
// container, passed by reference to whatever needs it. No governor lives in
// a package-level variable; every governor main uses is reached through a
// Registry.
package registry

import (
	"sync"

	"github.com/chimera-labs/execution-governor/internal/bootstrap"
	"github.com/chimera-labs/execution-governor/internal/capital"
	"github.com/chimera-labs/execution-governor/internal/deltagate"
	"github.com/chimera-labs/execution-governor/internal/executor"
	"github.com/chimera-labs/execution-governor/internal/latency"
	"github.com/chimera-labs/execution-governor/internal/lossguard"
	"github.com/chimera-labs/execution-governor/internal/position"
	"github.com/chimera-labs/execution-governor/internal/scheduler"
	"github.com/chimera-labs/execution-governor/internal/symbolhealth"
	"github.com/chimera-labs/execution-governor/internal/venue"
	"github.com/chimera-labs/execution-governor/internal/watchdog"
)

// Registry owns every long-lived governor and the per-symbol state built
// around them. Construction order matters: shared singletons first (control
// plane, allocator, loss guard, drift detector), then the per-symbol maps
// that reference them.
type Registry struct {
	Control        *ControlPlane
	Allocator      *capital.Allocator
	Policy         *capital.CapitalPolicy
	RiskGovernor   *capital.RiskGovernor
	LossGuard      *lossguard.Guard
	PositionGate   *position.Gate
	ExchangeTruth  *position.ExchangeTruth
	DriftDetector  *position.DriftDetector
	Arbiter        *venue.Arbiter
	Scheduler      *scheduler.CoreScheduler
	Watchdog       *watchdog.Watchdog

	mu            sync.RWMutex
	latencyGovs   map[string]*latency.Governor
	bootstraps    map[string]*bootstrap.Evaluator
	symbolHealths map[string]*symbolhealth.Health
	deltaGates    map[string]*deltagate.Gate
	executors     map[string]*executor.Executor
	symbolEnabled map[string]bool
}

// Config bundles the construction parameters for process-wide singletons;
// per-symbol state is added afterward via the Add* methods.
type Config struct {
	GlobalNotionalCap float64
	DailyLossLimit    float64
	MaxPositionPerSym float64
	BaseVol           float64
	BaseLatency       float64
	MaxLossRef        float64
	MaxRejects        uint64
}

func New(cfg Config, flatten watchdog.FlattenFunc) *Registry {
	truth := position.NewExchangeTruth()
	r := &Registry{
		Control:       NewControlPlane(),
		Allocator:     capital.NewAllocator(cfg.GlobalNotionalCap),
		Policy:        capital.NewCapitalPolicy(),
		RiskGovernor:  capital.NewRiskGovernor(cfg.BaseVol, cfg.BaseLatency, cfg.MaxLossRef, cfg.MaxRejects),
		LossGuard:     lossguard.New(cfg.DailyLossLimit),
		PositionGate:  position.NewGate(cfg.MaxPositionPerSym),
		ExchangeTruth: truth,
		DriftDetector: position.NewDriftDetector(truth),
		Scheduler:     scheduler.New(),
		Watchdog:      watchdog.New(flatten),
		latencyGovs:   make(map[string]*latency.Governor),
		bootstraps:    make(map[string]*bootstrap.Evaluator),
		symbolHealths: make(map[string]*symbolhealth.Health),
		deltaGates:    make(map[string]*deltagate.Gate),
		executors:     make(map[string]*executor.Executor),
		symbolEnabled: make(map[string]bool),
	}
	return r
}

// SetArbiter wires the venue arbiter once venues are known; kept separate
// from New because venue discovery happens after process startup.
func (r *Registry) SetArbiter(a *venue.Arbiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Arbiter = a
}

// AddSymbol registers every per-symbol governor for symbol in one call,
// building each from the given configs or its default construction. The
// registry has no per-governor setters; AddSymbol is the only way to add
// per-symbol governors.
func (r *Registry) AddSymbol(symbol string, bootstrapCfg bootstrap.Config, execCfg executor.Config, symHealthWindow, symHealthMinSample int, symHealthMinWinRate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencyGovs[symbol] = latency.NewGovernor()
	r.bootstraps[symbol] = bootstrap.New(bootstrapCfg)
	r.symbolHealths[symbol] = symbolhealth.New(symHealthWindow, symHealthMinSample, symHealthMinWinRate)
	r.deltaGates[symbol] = deltagate.New()
	r.executors[symbol] = executor.New(symbol, execCfg)
	r.symbolEnabled[symbol] = true
}

// ResetDailyGuard clears the daily loss guard's trip latch. Operator-only.
func (r *Registry) ResetDailyGuard() {
	r.LossGuard.Reset()
}

// ClearDriftKill clears the position drift detector's latched kill.
// Hot-path code must never call this; only an operator-facing control
// surface should.
func (r *Registry) ClearDriftKill() {
	r.DriftDetector.ClearKill()
}

// SetSymbolEnabled toggles whether new entries are allowed for symbol.
// Operator-only.
func (r *Registry) SetSymbolEnabled(symbol string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbolEnabled[symbol] = enabled
}

// SymbolEnabled reports whether symbol currently accepts new entries.
// Unknown symbols default to enabled.
func (r *Registry) SymbolEnabled(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	enabled, ok := r.symbolEnabled[symbol]
	if !ok {
		return true
	}
	return enabled
}

func (r *Registry) Latency(symbol string) (*latency.Governor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.latencyGovs[symbol]
	return g, ok
}

func (r *Registry) Bootstrap(symbol string) (*bootstrap.Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bootstraps[symbol]
	return b, ok
}

func (r *Registry) SymbolHealth(symbol string) (*symbolhealth.Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.symbolHealths[symbol]
	return h, ok
}

func (r *Registry) DeltaGate(symbol string) (*deltagate.Gate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.deltaGates[symbol]
	return g, ok
}

func (r *Registry) Executor(symbol string) (*executor.Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[symbol]
	return e, ok
}

func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.executors))
	for s := range r.executors {
		out = append(out, s)
	}
	return out
}
