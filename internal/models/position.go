package models

// SymbolPosition is the local view of a symbol's net position. avg_price is
// weighted by signed quantity; a sign-crossing realizes PnL on the closed
// portion before the new direction's average price is established.
type SymbolPosition struct {
	NetQty      float64
	AvgPrice    float64
	RealizedPnL float64
	Fees        float64
}

// ApplyFill updates the position for a fill of signedQty at price, realizing
// PnL on any portion that closes or flips the existing position.
func (p *SymbolPosition) ApplyFill(signedQty, price, fee float64) {
	p.Fees += fee

	switch {
	case p.NetQty == 0 || sameSign(p.NetQty, signedQty):
		// Adding to (or opening) a position of the same direction.
		totalCost := p.AvgPrice*absf(p.NetQty) + price*absf(signedQty)
		p.NetQty += signedQty
		if p.NetQty != 0 {
			p.AvgPrice = totalCost / absf(p.NetQty)
		}
	default:
		closing := minf(absf(signedQty), absf(p.NetQty))
		direction := 1.0
		if p.NetQty < 0 {
			direction = -1.0
		}
		p.RealizedPnL += direction * (price - p.AvgPrice) * closing
		remaining := absf(signedQty) - closing
		p.NetQty += signedQty
		if remaining > 0 {
			// The fill over-ran the existing position and flipped it.
			p.AvgPrice = price
		}
	}
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

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
