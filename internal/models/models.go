// Package models also carries the thin data types exchanged across the
// external-collaborator boundary (§6): market data, fills, acks. These are
// intentionally plain, JSON-tagged structs — the wire format is a transport
// concern, not a core one.
package models

import "time"

// QuoteUpdate is pushed by a MarketDataFeed collaborator on every top-of-book
// change.
type QuoteUpdate struct {
	Symbol  string  `json:"symbol"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	BidQty  float64 `json:"bid_qty"`
	AskQty  float64 `json:"ask_qty"`
	TSNano  uint64  `json:"ts_ns"`
}

// TradeUpdate is pushed by a MarketDataFeed collaborator on every print.
type TradeUpdate struct {
	Symbol string  `json:"symbol"`
	Qty    float64 `json:"qty"`
	IsBuy  bool    `json:"is_buy"`
	TSNano uint64  `json:"ts_ns"`
}

// FillEvent is delivered by a FillCallback collaborator, partial or full.
type FillEvent struct {
	ClientID  uint64  `json:"client_id"`
	Symbol    string  `json:"symbol"`
	Side      Side    `json:"side"`
	FilledQty float64 `json:"filled_qty"`
	Price     float64 `json:"price"`
	Fee       float64 `json:"fee"`
	TSNano    uint64  `json:"ts_ns"`
}

// AckEvent is delivered by a FillCallback collaborator on order acceptance.
type AckEvent struct {
	ClientID uint64 `json:"client_id"`
	TSNano   uint64 `json:"ts_ns"`
}

// RejectEvent is delivered by a FillCallback collaborator on order rejection.
type RejectEvent struct {
	ClientID uint64 `json:"client_id"`
	Reason   string `json:"reason"`
}

// RiskCheckResult is the outcome of a pre-trade gate traversal, surfaced to
// telemetry and to any synchronous caller (e.g. a REST dry-run endpoint).
type RiskCheckResult struct {
	Approved    bool        `json:"approved"`
	Reason      BlockReason `json:"reason"`
	SizeMult    float64     `json:"size_mult"`
	CheckTimeNs int64       `json:"check_time_ns"`
}

// WSEvent is the payload broadcast to operator dashboards over the
// telemetry WebSocket hub.
type WSEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	SeqID     uint64      `json:"seq_id"`
	Timestamp time.Time   `json:"timestamp"`
}
