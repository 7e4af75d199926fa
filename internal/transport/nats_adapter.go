package transport

import (
	"encoding/json"
	"fmt"

	"github.com/chimera-labs/execution-governor/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSMarketDataFeed subscribes to per-symbol tick and trade subjects and
// decodes JSON payloads into QuoteUpdate/TradeUpdate before handing them to
// the registered handlers. It never holds a handler lock across Start,
// matching the producer's expectation of an immediately-returning call.
type NATSMarketDataFeed struct {
	nc     *nats.Conn
	log    zerolog.Logger
	subs   []*nats.Subscription
	quoteH func(QuoteUpdate)
	tradeH func(TradeUpdate)
}

// NewNATSMarketDataFeed wraps an already-connected *nats.Conn. Connection
// lifecycle (Connect/Close, reconnect policy) is the caller's concern.
func NewNATSMarketDataFeed(nc *nats.Conn, log zerolog.Logger) *NATSMarketDataFeed {
	return &NATSMarketDataFeed{nc: nc, log: log.With().Str("component", "nats_market_data").Logger()}
}

func (f *NATSMarketDataFeed) OnQuote(handler func(QuoteUpdate)) { f.quoteH = handler }
func (f *NATSMarketDataFeed) OnTrade(handler func(TradeUpdate)) { f.tradeH = handler }

// Start subscribes to chimera.ticks.> and chimera.trades.>, dispatching
// every message to the registered handler. A message that fails to decode
// is dropped with a warning rather than propagated, matching the governor's
// rule that transport failures never reach the hot path as errors.
func (f *NATSMarketDataFeed) Start() error {
	quoteSub, err := f.nc.Subscribe("chimera.ticks.>", func(msg *nats.Msg) {
		var q QuoteUpdate
		if err := json.Unmarshal(msg.Data, &q); err != nil {
			f.log.Warn().Err(err).Str("subject", msg.Subject).Msg("quote decode failed")
			return
		}
		if f.quoteH != nil {
			f.quoteH(q)
		}
	})
	if err != nil {
		return fmt.Errorf("transport: subscribe ticks: %w", err)
	}
	f.subs = append(f.subs, quoteSub)

	tradeSub, err := f.nc.Subscribe("chimera.trades.>", func(msg *nats.Msg) {
		var t TradeUpdate
		if err := json.Unmarshal(msg.Data, &t); err != nil {
			f.log.Warn().Err(err).Str("subject", msg.Subject).Msg("trade decode failed")
			return
		}
		if f.tradeH != nil {
			f.tradeH(t)
		}
	})
	if err != nil {
		return fmt.Errorf("transport: subscribe trades: %w", err)
	}
	f.subs = append(f.subs, tradeSub)
	return nil
}

func (f *NATSMarketDataFeed) Stop() error {
	for _, sub := range f.subs {
		if err := sub.Unsubscribe(); err != nil {
			return err
		}
	}
	return nil
}

// ackMsg/fillMsg/rejectMsg are the JSON shapes expected on the fill subject.
type ackMsg struct {
	ClientID uint64 `json:"client_id"`
	TSNano   uint64 `json:"ts_nano"`
}

type fillMsg struct {
	ClientID  uint64  `json:"client_id"`
	Symbol    string  `json:"symbol"`
	FilledQty float64 `json:"filled_qty"`
	FillPrice float64 `json:"fill_price"`
	Fee       float64 `json:"fee"`
	TSNano    uint64  `json:"ts_nano"`
}

type rejectMsg struct {
	ClientID uint64 `json:"client_id"`
	Reason   string `json:"reason"`
}

type fillEnvelope struct {
	Kind   string          `json:"kind"`
	Ack    *ackMsg         `json:"ack,omitempty"`
	Fill   *fillMsg        `json:"fill,omitempty"`
	Reject *rejectMsg      `json:"reject,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// NATSFillCallback subscribes to chimera.fills.<symbol> and dispatches
// decoded envelopes to the FillCallback's three methods.
type NATSFillCallback struct {
	nc  *nats.Conn
	log zerolog.Logger
	cb  FillCallback
	sub *nats.Subscription
}

func NewNATSFillCallback(nc *nats.Conn, cb FillCallback, log zerolog.Logger) *NATSFillCallback {
	return &NATSFillCallback{nc: nc, cb: cb, log: log.With().Str("component", "nats_fill_callback").Logger()}
}

func (f *NATSFillCallback) Start() error {
	sub, err := f.nc.Subscribe("chimera.fills.>", func(msg *nats.Msg) {
		var env fillEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			f.log.Warn().Err(err).Str("subject", msg.Subject).Msg("fill envelope decode failed")
			return
		}
		switch env.Kind {
		case "ack":
			if env.Ack != nil {
				f.cb.OnAck(env.Ack.ClientID, env.Ack.TSNano)
			}
		case "fill":
			if env.Fill != nil {
				f.cb.OnFill(env.Fill.ClientID, env.Fill.Symbol, env.Fill.FilledQty, env.Fill.FillPrice, env.Fill.Fee, env.Fill.TSNano)
			}
		case "reject":
			if env.Reject != nil {
				f.cb.OnReject(env.Reject.ClientID, env.Reject.Reason)
			}
		default:
			f.log.Warn().Str("kind", env.Kind).Msg("unknown fill envelope kind")
		}
	})
	if err != nil {
		return fmt.Errorf("transport: subscribe fills: %w", err)
	}
	f.sub = sub
	return nil
}

func (f *NATSFillCallback) Stop() error {
	if f.sub == nil {
		return nil
	}
	return f.sub.Unsubscribe()
}

// NATSOrderRouter publishes order requests onto chimera.orders.<symbol> for
// an external execution service to pick up. This mirrors the pack's
// paper-broker pattern of routing orders over NATS rather than embedding a
// venue SDK directly in the governor.
type NATSOrderRouter struct {
	nc  *nats.Conn
	log zerolog.Logger
}

func NewNATSOrderRouter(nc *nats.Conn, log zerolog.Logger) *NATSOrderRouter {
	return &NATSOrderRouter{nc: nc, log: log.With().Str("component", "nats_order_router").Logger()}
}

type orderMsg struct {
	ClientID uint64  `json:"client_id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Qty      float64 `json:"qty"`
	Price    float64 `json:"price"`
	Kind     string  `json:"kind"`
}

func (r *NATSOrderRouter) Submit(clientID uint64, symbol string, side models.Side, qty, price float64, kind OrderKind) error {
	kindStr := "market"
	if kind == OrderLimit {
		kindStr = "limit"
	}
	msg := orderMsg{ClientID: clientID, Symbol: symbol, Side: side.String(), Qty: qty, Price: price, Kind: kindStr}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transport: marshal order: %w", err)
	}
	return r.nc.Publish(fmt.Sprintf("chimera.orders.%s", symbol), data)
}

func (r *NATSOrderRouter) Cancel(clientID uint64) error {
	data, err := json.Marshal(map[string]uint64{"client_id": clientID})
	if err != nil {
		return fmt.Errorf("transport: marshal cancel: %w", err)
	}
	return r.nc.Publish("chimera.cancel", data)
}

func (r *NATSOrderRouter) CancelAll(symbol string) error {
	return r.nc.Publish(fmt.Sprintf("chimera.cancel_all.%s", symbol), nil)
}
