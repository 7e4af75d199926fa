// Command chimerad is the execution-governor process entrypoint: it wires
// the service registry, binds one consumer goroutine per symbol to the
// gate lattice, and exposes the operator HTTP/WebSocket surface. Ownership
// of portfolio state is per-component through a Registry, not a single
// mutable struct behind one mutex.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/chimera-labs/execution-governor/internal/bootstrap"
	"github.com/chimera-labs/execution-governor/internal/capital"
	"github.com/chimera-labs/execution-governor/internal/config"
	"github.com/chimera-labs/execution-governor/internal/deltagate"
	"github.com/chimera-labs/execution-governor/internal/executor"
	"github.com/chimera-labs/execution-governor/internal/journal"
	"github.com/chimera-labs/execution-governor/internal/latency"
	"github.com/chimera-labs/execution-governor/internal/models"
	"github.com/chimera-labs/execution-governor/internal/position"
	"github.com/chimera-labs/execution-governor/internal/registry"
	"github.com/chimera-labs/execution-governor/internal/telemetry"
	"github.com/chimera-labs/execution-governor/internal/transport"
	"github.com/chimera-labs/execution-governor/internal/venue"
)

// defaultSymbols is the demo symbol universe when core_pinning names none.
var defaultSymbols = []string{"XAU", "XAG", "EURUSD"}

func main() {
	configPath := flag.String("config", "", "path to a JSON config file overlaying the defaults")
	journalPath := flag.String("journal", "chimera.journal", "path to the append-only event journal")
	operatorToken := flag.String("operator-token", os.Getenv("CHIMERA_OPERATOR_TOKEN"), "bearer token for /api/control endpoints")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "chimerad").Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	jlog, err := journal.Open(*journalPath)
	if err != nil {
		log.Fatal().Err(err).Msg("journal open failed")
	}
	defer jlog.Close()

	hub := telemetry.NewHub(10_000, log)
	go hub.Run()
	metrics := telemetry.NewMetrics()
	sink := transport.NewMultiSink(transport.NewWSHubTelemetrySink(hub))

	nc, err := nats.Connect(cfg.NATSUrl, nats.MaxReconnects(-1), nats.ReconnectWait(2*time.Second))
	var router transport.OrderRouter
	var feed transport.MarketDataFeed
	var fillSub *transport.NATSFillCallback
	if err != nil {
		log.Warn().Err(err).Msg("nats connect failed, running with a logging-only order router")
		router = loggingRouter{log: log}
	} else {
		router = transport.NewNATSOrderRouter(nc, log)
		nmdFeed := transport.NewNATSMarketDataFeed(nc, log)
		feed = nmdFeed
	}

	app := newApp(cfg, log, jlog, metrics, sink, router)

	if nc != nil {
		fillSub = transport.NewNATSFillCallback(nc, app, log)
		if err := fillSub.Start(); err != nil {
			log.Error().Err(err).Msg("fill subscription failed")
		}
		if err := feed.Start(); err != nil {
			log.Error().Err(err).Msg("market data subscription failed")
		} else {
			feed.OnQuote(app.onQuote)
			feed.OnTrade(app.onTrade)
		}
	}

	app.reg.Scheduler.Start()
	app.reg.Watchdog.Start(int64(transport.SystemClock{}.NowNano()))

	bucketCtx, stopBuckets := context.WithCancel(context.Background())
	go app.reportBuckets(bucketCtx, 30*time.Second)

	mux := telemetry.Routes(hub, metrics, app.reg, *operatorToken, log)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      telemetry.CORSMiddleware(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http control/telemetry surface listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("graceful shutdown initiated")
	stopBuckets()
	app.reg.Scheduler.Stop()
	app.reg.Watchdog.Stop()
	if fillSub != nil {
		fillSub.Stop()
	}
	if feed != nil {
		feed.Stop()
	}
	if nc != nil {
		nc.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	log.Info().Msg("shutdown complete")
}

// loggingRouter is the fallback OrderRouter used when no NATS connection is
// available; it never blocks or errors, matching the total-function
// contract the real router must satisfy.
type loggingRouter struct {
	log zerolog.Logger
}

func (r loggingRouter) Submit(clientID uint64, symbol string, side models.Side, qty, price float64, kind transport.OrderKind) error {
	r.log.Info().Uint64("client_id", clientID).Str("symbol", symbol).Str("side", side.String()).
		Float64("qty", qty).Float64("price", price).Msg("submit (no venue connected)")
	return nil
}
func (r loggingRouter) Cancel(clientID uint64) error        { return nil }
func (r loggingRouter) CancelAll(symbol string) error       { return nil }

// pendingOrder is the context needed to reconcile a fill once it arrives:
// the allocator reservation it must be adjusted against, and whether it was
// an entry (feeds the executor/position-gate) or an exit.
type pendingOrder struct {
	reservation *capital.Reservation
	symbol      string
	side        models.Side
	isEntry     bool
}

// app bundles the registry with the process-wide collaborators every
// per-symbol consumer closure needs: the allocator, the venue arbiter, the
// order router, the journal, telemetry, and the pending-order ledger that
// lets fills find their way back to the right reservation and executor.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	jlog   *journal.Log
	metrics *telemetry.Metrics
	sink   transport.TelemetrySink
	router transport.OrderRouter

	reg          *registry.Registry
	sizer        *capital.Sizer
	ladder       *capital.Ladder
	bucketRanker *capital.BucketRanker
	clock        transport.Clock
	nextID       atomic.Uint64
	symbols      []string

	mu       sync.Mutex
	pending  map[uint64]*pendingOrder
	positions map[string]*models.SymbolPosition
}

func newApp(cfg config.Config, log zerolog.Logger, jlog *journal.Log, metrics *telemetry.Metrics, sink transport.TelemetrySink, router transport.OrderRouter) *app {
	a := &app{
		cfg: cfg, log: log, jlog: jlog, metrics: metrics, sink: sink, router: router,
		clock:        transport.SystemClock{},
		sizer:        capital.NewSizer(nil),
		ladder:       capital.DefaultLadder(cfg.GlobalNotionalCap),
		pending:      make(map[uint64]*pendingOrder),
		positions:    make(map[string]*models.SymbolPosition),
	}

	regCfg := registry.Config{
		GlobalNotionalCap: cfg.GlobalNotionalCap,
		DailyLossLimit:    cfg.Hot.GetDailyLossLimit(),
		MaxPositionPerSym: cfg.GlobalNotionalCap * 0.5,
		BaseVol:           5.0,
		BaseLatency:       500,
		MaxLossRef:        cfg.Hot.GetDailyLossLimit(),
		MaxRejects:        cfg.Hot.MaxRejects.Load(),
	}
	a.reg = registry.New(regCfg, a.flatten)

	cryptoVenue := venue.New(cfg.VenueStalenessMaxNs, cfg.VenueLatencyMaxNs, cfg.VenueRejectMax)
	cfdVenue := venue.New(cfg.VenueStalenessMaxNs, cfg.VenueLatencyMaxNs, cfg.VenueRejectMax)
	fix := venue.NewFixSession(venue.DefaultFixThresholds())
	a.reg.SetArbiter(venue.NewArbiter(fix, cryptoVenue, cfdVenue))

	symbols := defaultSymbols
	if len(cfg.CorePinning) > 0 {
		symbols = make([]string, 0, len(cfg.CorePinning))
		for s := range cfg.CorePinning {
			symbols = append(symbols, s)
		}
	}
	a.reg.Allocator.SetEngineWeight("core", 0.6)

	for _, sym := range symbols {
		bootCfg := bootstrap.DefaultConfig()
		execCfg := executor.Config{
			SoftCooldownMs:        cfg.SoftCooldownMs,
			HardCooldownMs:        cfg.HardCooldownMs,
			ImpulseDecayTauMs:     cfg.TPDecayTauMs,
			ImpulseDecayExitRatio: 0.30,
			ImpulseDecayWarnRatio: 0.48,
			TrailArmR:             1.0,
			TrailDistanceR:        0.5,
		}
		a.reg.AddSymbol(sym, bootCfg, execCfg, 50, 10, 0.35)
		a.positions[sym] = &models.SymbolPosition{}

		_, pinned := cfg.CorePinning[sym]
		a.reg.Scheduler.Register(sym, cfg.RingCapacity, a.consume, pinned)
	}

	a.symbols = symbols
	a.bucketRanker = capital.NewBucketRanker(a.reg.Allocator)
	return a
}

// reportBuckets periodically ranks every tracked symbol's allocator exposure
// by a naive edge score and broadcasts the ranking to the telemetry hub; a
// cold-path dashboard feed, it never influences a gating decision.
func (a *app) reportBuckets(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scores := make(map[string]float64, len(a.symbols))
			for _, sym := range a.symbols {
				if health, ok := a.reg.SymbolHealth(sym); ok {
					scores[sym] = health.WinRate()
				}
			}
			ranked := a.bucketRanker.RankSymbols(a.symbols, scores)
			a.sink.Record("bucket_ranking", ranked)
		}
	}
}

// push enqueues intent onto sym's registered ring, the boundary between
// producer threads (feed adapters, strategies) and the single per-symbol
// consumer.
func (a *app) push(sym string, intent models.Intent) {
	r, ok := a.reg.Scheduler.Ring(sym)
	if !ok {
		return
	}
	if !r.Push(intent) {
		a.metrics.IntentsDropped.Inc()
		return
	}
	a.metrics.IntentsPushed.Inc()
}

// onQuote feeds the bootstrap evaluator's DATA_READY tick count and its
// DATA_READY spread-sample count, the latter approximated from the quote's
// bid/ask width.
func (a *app) onQuote(q transport.QuoteUpdate) {
	boot, ok := a.reg.Bootstrap(q.Symbol)
	if !ok {
		return
	}
	spread := q.Ask - q.Bid
	boot.ObserveTick(true, spread >= 0, int64(q.TSNano/1_000_000))
}

// onTrade is the thin reference strategy collaborator: it treats print
// velocity as impulse and, once bootstrap is complete, constructs an
// Intent for the consumer loop to gate and size. This is a named,
// replaceable collaborator, not core alpha — which signals correlate with
// profit is out of scope here.
func (a *app) onTrade(t transport.TradeUpdate) {
	ex, ok := a.reg.Executor(t.Symbol)
	if !ok || ex.State() != executor.StateIdle {
		return
	}
	side := models.Sell
	if t.IsBuy {
		side = models.Buy
	}
	intent, err := models.NewIntent(side, t.Symbol, t.Qty, t.TSNano)
	if err != nil {
		return
	}
	a.push(t.Symbol, intent)
}

// consume is the per-symbol consumer the scheduler drains the ring into. It
// traverses the gate lattice in a fixed order and, on pass, drives the
// executor and submits to the order router.
func (a *app) consume(intent models.Intent) {
	sym := intent.Symbol
	now := a.clock.NowNano()
	a.reg.Watchdog.OnTick(int64(now))

	coarse := a.reg.Control.Decide(edgeEstimateBps, costEstimateBps, intent.Qty)
	if !coarse.Allow {
		a.block(sym, models.ReasonRegimeMismatch)
		return
	}

	boot, _ := a.reg.Bootstrap(sym)
	latGov, _ := a.reg.Latency(sym)
	health, _ := a.reg.SymbolHealth(sym)
	delta, _ := a.reg.DeltaGate(sym)
	ex, ok := a.reg.Executor(sym)
	if !ok {
		return
	}

	if a.reg.DriftDetector.Killed() {
		a.block(sym, models.ReasonDriftKill)
		return
	}
	if boot != nil {
		boot.ObserveIntent(intent.Side == models.Buy, 0.6)
		if !boot.ExecutionAllowed() {
			a.block(sym, models.ReasonNotBootstrapped)
			return
		}
	}
	if health != nil && !health.Enabled() {
		a.block(sym, models.ReasonTierRestricted)
		return
	}
	if !a.reg.SymbolEnabled(sym) {
		a.block(sym, models.ReasonTierRestricted)
		return
	}
	if !a.reg.LossGuard.Allow() {
		a.block(sym, models.ReasonDailyRiskLimit)
		return
	}

	nowUTC := time.Now().UTC()
	policyDecision := a.reg.Policy.Evaluate(capital.PolicyInput{
		Symbol:           sym,
		Tier:             capital.TierA,
		MinuteOfDayUTC:   nowUTC.Hour()*60 + nowUTC.Minute(),
		Spread:           0,
		SpreadLimit:      1,
		RegimeAllowed:    true,
		ChopDetected:     false,
		EdgeStrength:     1.0,
		Side:             intent.Side,
		DailyRUsed:       a.reg.LossGuard.DrawdownUsed() * 2,
		MaxOpenPositions: 2,
	})
	if !policyDecision.Approved {
		a.block(sym, policyDecision.Reason)
		return
	}

	regime := capital.SessionFromUTCHour(nowUTC.Hour())
	riskDecision := a.reg.RiskGovernor.Evaluate(regime, 0, 1)
	if !riskDecision.Approved {
		a.block(sym, models.ReasonRegimeMismatch)
		return
	}

	var regimeNow latency.Regime = latency.Fast
	if latGov != nil {
		regimeNow = latGov.Regime()
		if !latency.EntryAllowed(sym, regimeNow) {
			a.block(sym, models.ReasonLatencyDegraded)
			return
		}
	}

	var deltaMult float64 = 1.0
	if delta != nil {
		if delta.State() == deltagate.Block {
			a.block(sym, models.ReasonRegimeMismatch)
			return
		}
		deltaMult = delta.SizeMultiplier()
	}

	decision := a.reg.Arbiter.Decide(now)
	if !decision.Allow {
		a.block(sym, models.ReasonLatencyDegraded)
		return
	}

	if a.reg.PositionGate.WouldViolate(sym, intent.SignedQty()) {
		a.block(sym, models.ReasonMaxPositions)
		return
	}

	price := estimatedPrice(sym)
	tier, ok := capital.TierFromVelocity(intent.Qty, a.cfg.ImpulseSoft, a.cfg.ImpulseMed, a.cfg.ImpulseHard)
	if !ok {
		a.block(sym, models.ReasonEdgeTooWeak)
		return
	}
	sizeMult, tpScale := a.sizer.Compose(sym, tier, regimeNow)
	equity := a.cfg.GlobalNotionalCap + a.reg.LossGuard.PnL()
	sizeMult *= decision.SizeMult * riskDecision.SizeMult * deltaMult * a.ladder.MultiplierFor(equity) * coarse.SizeMultiplier

	reservation, ok := a.reg.Allocator.ReserveIntent(intent, "core", price)
	if !ok {
		a.block(sym, models.ReasonDailyRiskLimit)
		return
	}

	entered := ex.TryEnter(executor.EntryConditions{
		Side:             intent.Side,
		Price:            price,
		TSNano:           int64(now),
		Velocity:         intent.Qty,
		ImpulseSoftFloor: a.cfg.ImpulseSoft,
		GatesPass:        true,
		BaseQty:          intent.Qty,
		SizeMult:         sizeMult,
		TPScale:          tpScale,
		StopDistance:     price * 0.002,
	})
	if !entered {
		a.reg.Allocator.Release(reservation)
		a.block(sym, models.ReasonMaxPositions)
		return
	}
	if policyDecision.ScaledUp && !ex.Pyramided() {
		ex.MarkPyramided()
	}

	a.reg.PositionGate.Reserve(sym, intent.SignedQty())
	clientID := a.nextID.Add(1)
	a.mu.Lock()
	a.pending[clientID] = &pendingOrder{reservation: reservation, symbol: sym, side: intent.Side, isEntry: true}
	a.mu.Unlock()

	if latGov != nil {
		latGov.RecordSubmit(clientID, now)
	}
	a.jlog.Append(int64(now), journal.KindOrder, nil)
	a.sink.Record("order_submit", map[string]interface{}{
		"symbol": sym, "client_id": clientID, "size_mult": sizeMult,
		"risk_fraction": policyDecision.RiskFraction, "scaled_up": policyDecision.ScaledUp,
	})

	if err := a.router.Submit(clientID, sym, intent.Side, intent.Qty*sizeMult, price, transport.OrderMarket); err != nil {
		a.log.Error().Err(err).Str("symbol", sym).Msg("order submit failed")
	}
}

func (a *app) block(symbol string, reason models.BlockReason) {
	a.metrics.GateBlocks.WithLabelValues(reason.String()).Inc()
	a.sink.Record("gate_block", map[string]interface{}{"symbol": symbol, "reason": reason.String()})
}

// estimatedPrice is a placeholder price source until a quote-cache
// collaborator is wired; real deployments price from the last QuoteUpdate
// mid, which onQuote would maintain per symbol.
func estimatedPrice(symbol string) float64 { return 100.0 }

// edgeEstimateBps/costEstimateBps stand in for the ControlPlane's cost-model
// inputs until a real edge estimator is wired. With edge fixed above cost,
// the coarse pre-check's cost-fail branch never fires in this process.
const edgeEstimateBps = 8.0
const costEstimateBps = 3.0

// OnAck satisfies transport.FillCallback, feeding the latency governor's
// ACK-RTT tracking and the watchdog's fill-liveness timer.
func (a *app) OnAck(clientID uint64, tsNano uint64) {
	a.mu.Lock()
	p, ok := a.pending[clientID]
	a.mu.Unlock()
	if !ok {
		return
	}
	if latGov, ok := a.reg.Latency(p.symbol); ok {
		latGov.OnAck(clientID, tsNano)
	}
}

// OnFill satisfies transport.FillCallback: it is the critical partial-fill
// reconciliation path, serialized through the allocator's lock via
// AdjustOnFill, then fans out to position tracking, the daily loss guard,
// symbol health, and the executor.
func (a *app) OnFill(clientID uint64, symbol string, filledQty, fillPrice, fee float64, tsNano uint64) {
	a.mu.Lock()
	p, ok := a.pending[clientID]
	a.mu.Unlock()
	if !ok {
		return
	}

	a.reg.Allocator.AdjustOnFill(p.reservation, filledQty, fillPrice)
	a.reg.Watchdog.OnFill(int64(tsNano))

	signedQty := filledQty
	if p.side == models.Sell {
		signedQty = -filledQty
	}

	a.mu.Lock()
	pos := a.positions[symbol]
	if pos == nil {
		pos = &models.SymbolPosition{}
		a.positions[symbol] = pos
	}
	realizedBefore := pos.RealizedPnL
	pos.ApplyFill(signedQty, fillPrice, fee)
	pnl := pos.RealizedPnL - realizedBefore
	a.mu.Unlock()

	a.reg.LossGuard.OnFill(pnl, int64(tsNano))
	a.reg.ExchangeTruth.OnExchangePosition(position.ExchangePosition{Symbol: symbol, Qty: pos.NetQty, EntryPrice: pos.AvgPrice})
	if a.reg.DriftDetector.Check(symbol, pos.NetQty, 0.05) {
		a.log.Warn().Str("symbol", symbol).Msg("drift kill latched")
	}

	if ex, ok := a.reg.Executor(symbol); ok {
		if p.isEntry {
			ex.OnFill(filledQty)
		} else {
			ex.OnExit(int64(tsNano), pnl, false)
			if health, ok := a.reg.SymbolHealth(symbol); ok {
				health.RecordOutcome(pnl > 0)
			}
		}
	}
	a.sink.Record("fill", map[string]interface{}{"symbol": symbol, "qty": filledQty, "price": fillPrice, "pnl": pnl})
	payload, _ := json.Marshal(struct {
		Symbol      string  `json:"symbol"`
		SignedQty   float64 `json:"signed_qty"`
		Price       float64 `json:"price"`
		RealizedPnL float64 `json:"realized_pnl"`
	}{symbol, signedQty, fillPrice, pnl})
	a.jlog.Append(int64(tsNano), journal.KindFill, payload)
}

// OnReject satisfies transport.FillCallback: an unfilled reservation is
// released, never committed.
func (a *app) OnReject(clientID uint64, reason string) {
	a.mu.Lock()
	p, ok := a.pending[clientID]
	delete(a.pending, clientID)
	a.mu.Unlock()
	if !ok {
		return
	}
	a.reg.Allocator.Release(p.reservation)
	a.metrics.GateBlocks.WithLabelValues("VENUE_REJECT").Inc()
	a.log.Warn().Uint64("client_id", clientID).Str("reason", reason).Msg("order rejected")
}

// flatten is the watchdog.FlattenFunc: the only code path allowed to
// unilaterally cancel every open order across every symbol.
func (a *app) flatten(reason string) {
	a.log.Error().Str("reason", reason).Msg("watchdog flatten triggered")
	a.metrics.WatchdogFlattens.Inc()
	for _, sym := range a.reg.Symbols() {
		if err := a.router.CancelAll(sym); err != nil {
			a.log.Error().Err(err).Str("symbol", sym).Msg("cancel_all failed during flatten")
		}
	}
	a.sink.Record("watchdog_flatten", map[string]interface{}{"reason": reason})
}
