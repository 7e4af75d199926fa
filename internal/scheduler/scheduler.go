// Package scheduler binds one consumer goroutine per symbol to its intent
// ring, the core's thread model: producers are unpinned, each symbol's hot
// path is single-consumer, and shutdown is cooperative via one atomic flag.
package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/chimera-labs/execution-governor/internal/models"
	"github.com/chimera-labs/execution-governor/internal/ring"
)

// Consumer processes one popped intent. Implemented by the gate-lattice/
// executor composition the caller wires up; the scheduler itself has no
// opinion about gating.
type Consumer func(models.Intent)

// symbolLoop is one symbol's dedicated drain loop.
type symbolLoop struct {
	symbol  string
	r       *ring.Ring[models.Intent]
	consume Consumer
	pinCore bool
}

// CoreScheduler owns one symbolLoop per registered symbol and a single
// running flag that, cleared, stops every loop within one spin cycle: loops
// observe the flag and exit on their own next iteration, and Stop waits for
// all of them to exit before returning.
type CoreScheduler struct {
	running atomic.Bool
	wg      sync.WaitGroup

	mu    sync.Mutex
	loops map[string]*symbolLoop
}

func New() *CoreScheduler {
	return &CoreScheduler{loops: make(map[string]*symbolLoop)}
}

// Register binds symbol to its own ring and consumer. Must be called before
// Start; registering after Start has no effect on already-running loops.
func (s *CoreScheduler) Register(symbol string, capacity int, consume Consumer, pinCore bool) *ring.Ring[models.Intent] {
	r := ring.New[models.Intent](capacity)
	s.mu.Lock()
	s.loops[symbol] = &symbolLoop{symbol: symbol, r: r, consume: consume, pinCore: pinCore}
	s.mu.Unlock()
	return r
}

// Start launches one goroutine per registered symbol.
func (s *CoreScheduler) Start() {
	s.running.Store(true)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loop := range s.loops {
		s.wg.Add(1)
		go s.run(loop)
	}
}

func (s *CoreScheduler) run(loop *symbolLoop) {
	defer s.wg.Done()
	if loop.pinCore {
		// Go has no direct CPU-affinity syscall; locking the OS thread is
		// the closest available approximation to the original's
		// pthread_setaffinity_np pinning.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	var intent models.Intent
	idleSpins := 0
	for s.running.Load() {
		if loop.r.TryPop(&intent) {
			loop.consume(intent)
			idleSpins = 0
			continue
		}
		idleSpins++
		if idleSpins > 1000 {
			runtime.Gosched()
		}
	}
}

// Stop clears the running flag and blocks until every symbol loop has
// observed it and exited.
func (s *CoreScheduler) Stop() {
	s.running.Store(false)
	s.wg.Wait()
}

// Ring returns the registered ring for symbol, for producers to push into.
func (s *CoreScheduler) Ring(symbol string) (*ring.Ring[models.Intent], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loop, ok := s.loops[symbol]
	if !ok {
		return nil, false
	}
	return loop.r, true
}
