package journal

import (
	"encoding/json"
	"io"
)

// fillPayload is the JSON shape a KindFill record's Payload decodes into.
// Other kinds are opaque to replay and only affect PositionState via Fill.
type fillPayload struct {
	Symbol      string  `json:"symbol"`
	SignedQty   float64 `json:"signed_qty"`
	Price       float64 `json:"price"`
	RealizedPnL float64 `json:"realized_pnl"`
}

// PositionState is one symbol's reconstructed position and realized PnL
// after replaying a journal.
type PositionState struct {
	Qty         float64
	AvgPrice    float64
	RealizedPnL float64
}

// ReplayResult is the full reconstructed state after a journal replay.
type ReplayResult struct {
	Positions   map[string]*PositionState
	TotalPnL    float64
	LastEventID uint64
}

// Replay reads every record in path and folds KindFill payloads into
// per-symbol positions and total realized PnL, matching the original
// ReplayEngine's purpose of rebuilding state after a crash. Records of
// other kinds are counted (LastEventID advances) but do not affect
// position/PnL reconstruction.
func Replay(path string) (*ReplayResult, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	result := &ReplayResult{Positions: make(map[string]*PositionState)}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		result.LastEventID = rec.EventID

		if rec.Kind != KindFill || len(rec.Payload) == 0 {
			continue
		}
		var fp fillPayload
		if err := json.Unmarshal(rec.Payload, &fp); err != nil {
			continue
		}
		applyFill(result, fp)
	}
	return result, nil
}

func applyFill(result *ReplayResult, fp fillPayload) {
	pos, ok := result.Positions[fp.Symbol]
	if !ok {
		pos = &PositionState{}
		result.Positions[fp.Symbol] = pos
	}

	newQty := pos.Qty + fp.SignedQty
	switch {
	case pos.Qty == 0 || sameSign(pos.Qty, fp.SignedQty):
		// Adding to (or opening) a position: roll the average price.
		totalCost := pos.AvgPrice*absf(pos.Qty) + fp.Price*absf(fp.SignedQty)
		if absf(newQty) > 1e-12 {
			pos.AvgPrice = totalCost / absf(newQty)
		}
	default:
		// Reducing or flipping: realize PnL on the reduced portion.
		pos.RealizedPnL += fp.RealizedPnL
		if sameSign(newQty, fp.SignedQty) && absf(newQty) > 1e-12 {
			// Flipped through zero into the opposite side.
			pos.AvgPrice = fp.Price
		}
	}
	pos.Qty = newQty
	result.TotalPnL += fp.RealizedPnL
}

func sameSign(a, b float64) bool {
	return (a >= 0) == (b >= 0)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
