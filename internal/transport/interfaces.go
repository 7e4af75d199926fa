// Package transport defines the governor's collaborator contracts — the
// order router it submits to, the market data and fill callbacks it
// receives, the clock it reads, the control surface operators use, and the
// telemetry sink it reports to — plus concrete adapters. The core packages
// (capital, executor, registry, ...) depend only on these interfaces, never
// on nats.go or any wire format directly.
package transport

import "github.com/chimera-labs/execution-governor/internal/models"

// OrderKind distinguishes order placement styles understood by OrderRouter.
type OrderKind int

const (
	OrderMarket OrderKind = iota
	OrderLimit
)

// OrderRouter submits and cancels orders. Submit returns immediately; the
// router reports acknowledgements, fills, and rejects asynchronously
// through a FillCallback. client_id is assigned by the caller and must be
// monotonically increasing for a given router instance.
type OrderRouter interface {
	Submit(clientID uint64, symbol string, side models.Side, qty, price float64, kind OrderKind) error
	Cancel(clientID uint64) error
	CancelAll(symbol string) error
}

// QuoteUpdate is a top-of-book snapshot pushed by a MarketDataFeed.
type QuoteUpdate struct {
	Symbol string
	Bid    float64
	Ask    float64
	BidQty float64
	AskQty float64
	TSNano uint64
}

// TradeUpdate is a single executed trade observed on the tape.
type TradeUpdate struct {
	Symbol string
	Qty    float64
	IsBuy  bool
	TSNano uint64
}

// MarketDataFeed delivers quotes and trades. Implementations own their own
// subscription lifecycle; handlers must not block.
type MarketDataFeed interface {
	OnQuote(handler func(QuoteUpdate))
	OnTrade(handler func(TradeUpdate))
	Start() error
	Stop() error
}

// FillCallback receives order lifecycle events from an OrderRouter.
type FillCallback interface {
	OnAck(clientID uint64, tsNano uint64)
	OnFill(clientID uint64, symbol string, filledQty, fillPrice, fee float64, tsNano uint64)
	OnReject(clientID uint64, reason string)
}

// Clock supplies monotonic nanosecond timestamps to code that would
// otherwise call time.Now directly, so tests can substitute a fake.
type Clock interface {
	NowNano() uint64
}

// ControlPlane is the operator-facing subset of the governor's control
// surface: reset the daily loss guard after a manual review, clear a
// latched drift kill, or enable/disable trading on one symbol.
type ControlPlane interface {
	ResetDailyGuard()
	ClearDriftKill()
	SetSymbolEnabled(symbol string, enabled bool)
}

// TelemetrySink accepts opaque, already-serializable records off the hot
// path. Implementations decide the wire format (JSON over WebSocket,
// Prometheus gauges, a binary journal entry); the sink never blocks the
// caller on I/O.
type TelemetrySink interface {
	Record(eventType string, payload interface{})
}
