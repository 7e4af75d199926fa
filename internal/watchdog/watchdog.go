// Package watchdog implements the L5 external liveness monitor: the only
// code path allowed to unilaterally trigger a flatten when the hot path
// stops making progress. It invokes the flatten callback and does not
// terminate the process itself.
package watchdog

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultTickTimeout       = 500 * time.Millisecond
	DefaultFillTimeout       = 5 * time.Second
	DefaultMaxDailyDDBps     = -25.0
	DefaultReconnectWindow   = 10 * time.Second
	DefaultMaxReconnects     = 3
	DefaultMaxDepthCorruptions = 5
	checkInterval            = 50 * time.Millisecond
)

// FlattenFunc is invoked exactly once per triggered flatten, with the
// reason string describing which condition tripped.
type FlattenFunc func(reason string)

// Watchdog monitors tick/fill liveness, drawdown, venue reconnect churn, and
// depth corruption counts, independent of the hot path it supervises.
type Watchdog struct {
	tickTimeout    time.Duration
	fillTimeout    time.Duration
	maxDailyDDBps  float64
	reconnectWindow time.Duration
	maxReconnects  int
	maxDepthCorrupt uint64

	flatten FlattenFunc

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	lastTickNs  atomic.Int64
	lastFillNs  atomic.Int64
	positionsOpen atomic.Int32
	totalPnLBps atomic.Int64 // stored as bits via math.Float64bits would complicate; kept as bps*1000 fixed point
	flattenTriggered atomic.Bool
	armed       atomic.Bool
	depthCorruptions atomic.Uint64

	mu             sync.Mutex
	reconnectTimes []time.Time
}

func New(flatten FlattenFunc) *Watchdog {
	return &Watchdog{
		tickTimeout:     DefaultTickTimeout,
		fillTimeout:     DefaultFillTimeout,
		maxDailyDDBps:   DefaultMaxDailyDDBps,
		reconnectWindow: DefaultReconnectWindow,
		maxReconnects:   DefaultMaxReconnects,
		maxDepthCorrupt: DefaultMaxDepthCorruptions,
		flatten:         flatten,
		stopCh:          make(chan struct{}),
	}
}

// Arm resets liveness timestamps to now and clears any latched flatten flag,
// readying the watchdog for a fresh monitoring session.
func (w *Watchdog) Arm(nowNs int64) {
	w.lastTickNs.Store(nowNs)
	w.lastFillNs.Store(nowNs)
	w.flattenTriggered.Store(false)
	w.armed.Store(true)
}

// Start launches the background check loop. Safe to call once; call Stop
// before a second Start.
func (w *Watchdog) Start(nowNs int64) {
	w.Arm(nowNs)
	w.running.Store(true)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stopCh:
				return
			case <-ticker.C:
				w.checkHealth(time.Now().UnixNano())
			}
		}
	}()
}

func (w *Watchdog) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Watchdog) OnTick(nowNs int64) {
	w.lastTickNs.Store(nowNs)
	w.armed.Store(true)
}

func (w *Watchdog) OnFill(nowNs int64) {
	w.lastFillNs.Store(nowNs)
}

func (w *Watchdog) OnPositionOpen() {
	w.positionsOpen.Add(1)
}

func (w *Watchdog) OnPositionClose() {
	w.positionsOpen.Add(-1)
}

// UpdatePnL records the running daily PnL in basis points.
func (w *Watchdog) UpdatePnL(pnlBps float64) {
	w.totalPnLBps.Store(int64(pnlBps * 1000))
}

func (w *Watchdog) pnlBps() float64 {
	return float64(w.totalPnLBps.Load()) / 1000
}

// OnWSReconnect records a reconnect event, pruning any outside the
// reconnect window.
func (w *Watchdog) OnWSReconnect(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	windowStart := now.Add(-w.reconnectWindow)
	kept := w.reconnectTimes[:0]
	for _, t := range w.reconnectTimes {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	w.reconnectTimes = append(kept, now)
}

func (w *Watchdog) reconnectsInWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.reconnectTimes)
}

func (w *Watchdog) OnDepthCorruption() {
	w.depthCorruptions.Add(1)
}

func (w *Watchdog) OnDepthResync() {
	w.depthCorruptions.Store(0)
}

func (w *Watchdog) checkHealth(nowNs int64) {
	if !w.armed.Load() {
		return
	}

	lastTick := w.lastTickNs.Load()
	if nowNs < lastTick {
		return
	}
	tickAge := time.Duration(nowNs - lastTick)
	if tickAge > w.tickTimeout {
		w.triggerFlatten("TICK_TIMEOUT")
		return
	}

	if w.positionsOpen.Load() > 0 {
		lastFill := w.lastFillNs.Load()
		if nowNs >= lastFill {
			fillAge := time.Duration(nowNs - lastFill)
			if fillAge > w.fillTimeout {
				w.triggerFlatten("FILL_TIMEOUT")
				return
			}
		}
	}

	if w.pnlBps() < w.maxDailyDDBps {
		w.triggerFlatten("DRAWDOWN_LIMIT")
		return
	}

	if w.reconnectsInWindow() >= w.maxReconnects {
		w.triggerFlatten("WS_INSTABILITY")
		return
	}

	if w.depthCorruptions.Load() >= w.maxDepthCorrupt {
		w.triggerFlatten("DEPTH_CORRUPTION")
		return
	}
}

func (w *Watchdog) triggerFlatten(reason string) {
	if w.flattenTriggered.Swap(true) {
		return
	}
	if w.flatten != nil {
		w.flatten(reason)
	}
	// A cooldown before the latch clears prevents a single sustained
	// condition from re-triggering the callback every check tick.
	time.AfterFunc(2*time.Second, func() { w.flattenTriggered.Store(false) })
}
