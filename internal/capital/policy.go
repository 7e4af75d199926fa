// Package capital implements the L2 sizing and exposure layer: the
// pre-trade gate lattice (CapitalPolicy), the runtime risk governor
// (RiskGovernor), the exposure ledger (CapitalAllocator), and the
// impulse/latency size composition (ImpulseSizer).
package capital

import (
	"github.com/chimera-labs/execution-governor/internal/models"
)

// Tier classifies a symbol's permitted risk.
type Tier int

const (
	TierA Tier = iota
	TierB
	TierC
)

// Session is the UTC trading session window.
type Session int

const (
	LondonOpen Session = iota
	LondonNY
	NYOpen
	OtherSession
)

// SessionFromUTCMinute derives the session window from minute-of-day (UTC).
// Windows: LONDON_OPEN 07:00-09:00, LONDON_NY 12:00-14:00, NY_OPEN
// 13:30-15:30. Checked in that priority order so the LONDON_NY/NY_OPEN
// overlap (13:30-14:00) resolves to LONDON_NY.
func SessionFromUTCMinute(minuteOfDay int) Session {
	switch {
	case minuteOfDay >= 7*60 && minuteOfDay < 9*60:
		return LondonOpen
	case minuteOfDay >= 12*60 && minuteOfDay < 14*60:
		return LondonNY
	case minuteOfDay >= 13*60+30 && minuteOfDay < 15*60+30:
		return NYOpen
	default:
		return OtherSession
	}
}

func (s Session) qualifies() bool {
	return s == LondonOpen || s == LondonNY || s == NYOpen
}

func (s Session) multiplier() float64 {
	switch s {
	case LondonOpen:
		return 1.4
	case LondonNY:
		return 1.2
	case NYOpen:
		return 1.6
	default:
		return 0
	}
}

// indexSymbols is the undifferentiated set of index symbols the
// overlapping-exposure gate treats as one group, matching the original's
// is_index(): any two same-direction, non-risk-free index positions
// conflict regardless of region.
var indexSymbols = map[string]bool{
	"NAS100": true,
	"SPX500": true,
	"US30":   true,
	"GER40":  true,
	"UK100":  true,
}

func isIndex(symbol string) bool {
	return indexSymbols[symbol]
}

// OpenPosition is the minimal view of an existing position the policy needs
// to evaluate the scale-up and overlapping-exposure gates.
type OpenPosition struct {
	Symbol      string
	Side        models.Side
	RMultiple   float64 // current favorable excursion in R
	RiskFree    bool    // stop has been moved to breakeven or better
}

// PolicyInput bundles every signal CapitalPolicy's gate lattice consumes.
type PolicyInput struct {
	Symbol          string
	Tier            Tier
	MinuteOfDayUTC  int
	Spread          float64
	SpreadLimit     float64
	RegimeAllowed   bool
	ChopDetected    bool
	EdgeStrength    float64
	Side            models.Side
	DailyRUsed      float64
	OpenPositions   []OpenPosition
	MaxOpenPositions int
}

// Decision is the CapitalPolicy evaluation outcome.
type Decision struct {
	Approved    bool
	Reason      models.BlockReason
	RiskFraction float64 // fraction of equity to risk, before allocator caps
	ScaledUp    bool
}

// CapitalPolicy evaluates the fixed 9-gate lattice. Default is reject: any
// unmatched path returns Approved=false.
type CapitalPolicy struct {
	maxOpenPositionsDefault int
}

func NewCapitalPolicy() *CapitalPolicy {
	return &CapitalPolicy{maxOpenPositionsDefault: 2}
}

func (p *CapitalPolicy) Evaluate(in PolicyInput) Decision {
	maxOpen := in.MaxOpenPositions
	if maxOpen == 0 {
		maxOpen = p.maxOpenPositionsDefault
	}

	// Gate 1: tier.
	if in.Tier == TierC {
		return Decision{Reason: models.ReasonTierRestricted}
	}

	// Gate 2: session.
	session := SessionFromUTCMinute(in.MinuteOfDayUTC)
	if !session.qualifies() {
		return Decision{Reason: models.ReasonSessionInvalid}
	}

	// Gate 3: spread.
	if in.Spread > in.SpreadLimit {
		return Decision{Reason: models.ReasonSpreadWide}
	}

	// Gate 4: regime.
	if !in.RegimeAllowed {
		return Decision{Reason: models.ReasonRegimeMismatch}
	}

	// Gate 5: chop.
	if in.ChopDetected {
		return Decision{Reason: models.ReasonChopDetected}
	}

	// Gate 6: edge.
	if in.EdgeStrength < 1.0 {
		return Decision{Reason: models.ReasonEdgeTooWeak}
	}

	// Gate 7: overlapping index exposure.
	if overlappingIndexExposure(in.Symbol, in.Side, in.OpenPositions) {
		return Decision{Reason: models.ReasonOverlappingExposure}
	}

	// Gate 8: daily-R.
	if in.DailyRUsed >= 2.0 {
		return Decision{Reason: models.ReasonDailyRiskLimit}
	}

	// Gate 9: max open positions, unless this is a qualifying scale-up.
	scaleUp := scaleUpEligible(in.Symbol, session, in.OpenPositions)
	if len(in.OpenPositions) >= maxOpen && !scaleUp {
		return Decision{Reason: models.ReasonMaxPositions}
	}

	baseRisk := 0.005
	if in.Tier == TierB {
		baseRisk = 0.0025
	}
	risk := baseRisk * session.multiplier()
	if scaleUp {
		risk *= 1.5
	}

	return Decision{Approved: true, Reason: models.ReasonNone, RiskFraction: risk, ScaledUp: scaleUp}
}

// overlappingIndexExposure blocks a same-direction entry into an index
// symbol when any other index position is already open, same direction,
// and not yet risk-free — the original does not differentiate by region.
func overlappingIndexExposure(symbol string, side models.Side, open []OpenPosition) bool {
	if !isIndex(symbol) {
		return false
	}
	for _, p := range open {
		if p.Symbol == symbol || !isIndex(p.Symbol) {
			continue
		}
		if p.Side == side && !p.RiskFree {
			return true
		}
	}
	return false
}

// scaleUpEligible permits a pyramid on a symbol when an existing position in
// it has reached >=0.5R and is risk-free and the session still qualifies.
// It keeps no record of earlier scale-ups, so it does not limit a symbol to
// one pyramid.
func scaleUpEligible(symbol string, session Session, open []OpenPosition) bool {
	if !session.qualifies() {
		return false
	}
	for _, p := range open {
		if p.Symbol == symbol && p.RiskFree && p.RMultiple >= 0.5 {
			return true
		}
	}
	return false
}
