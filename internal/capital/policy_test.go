package capital

import (
	"testing"

	"github.com/chimera-labs/execution-governor/internal/models"
)

func baseInput() PolicyInput {
	return PolicyInput{
		Symbol:         "XAU",
		Tier:           TierA,
		MinuteOfDayUTC: 7 * 60, // LONDON_OPEN
		Spread:         0.08,
		SpreadLimit:    0.10,
		RegimeAllowed:  true,
		ChopDetected:   false,
		EdgeStrength:   1.2,
		Side:           models.Buy,
		DailyRUsed:     0,
	}
}

func TestPolicyTierCAlwaysBlocked(t *testing.T) {
	p := NewCapitalPolicy()
	in := baseInput()
	in.Tier = TierC
	d := p.Evaluate(in)
	if d.Approved || d.Reason != models.ReasonTierRestricted {
		t.Fatalf("expected TIER_RESTRICTED, got %+v", d)
	}
}

func TestPolicyFullPassS1(t *testing.T) {
	p := NewCapitalPolicy()
	d := p.Evaluate(baseInput())
	if !d.Approved {
		t.Fatalf("expected approval, got %+v", d)
	}
	// float64 operands so the product rounds the same way as at runtime;
	// an untyped constant 0.005 * 1.4 would be the exact 0.007.
	baseRisk, sessionMult := 0.005, 1.4
	want := baseRisk * sessionMult
	if d.RiskFraction != want {
		t.Fatalf("risk fraction = %v, want %v", d.RiskFraction, want)
	}
}

func TestPolicyGateOrdering(t *testing.T) {
	p := NewCapitalPolicy()
	in := baseInput()
	in.MinuteOfDayUTC = 3 * 60 // OTHER session
	in.Spread = 999            // would also fail spread, but session fails first
	d := p.Evaluate(in)
	if d.Reason != models.ReasonSessionInvalid {
		t.Fatalf("expected SESSION_INVALID to fire before SPREAD_WIDE, got %v", d.Reason)
	}
}

func TestPolicyQualifyingScaleUpApproved(t *testing.T) {
	p := NewCapitalPolicy()
	in := baseInput()
	in.OpenPositions = []OpenPosition{{Symbol: "XAU", RMultiple: 0.6, RiskFree: true}}
	in.MaxOpenPositions = 1
	d := p.Evaluate(in)
	if !d.Approved || !d.ScaledUp {
		t.Fatalf("expected a qualifying scale-up to be approved, got %+v", d)
	}
	baseRisk, sessionMult := 0.005, 1.4
	want := baseRisk * sessionMult * 1.5
	if d.RiskFraction != want {
		t.Fatalf("scaled-up risk fraction = %v, want %v", d.RiskFraction, want)
	}
}

func TestPolicyMaxPositionsBlocksNonScaleUp(t *testing.T) {
	p := NewCapitalPolicy()
	in := baseInput()
	in.OpenPositions = []OpenPosition{{Symbol: "EURUSD"}, {Symbol: "GBPUSD"}}
	in.MaxOpenPositions = 2
	d := p.Evaluate(in)
	if d.Approved || d.Reason != models.ReasonMaxPositions {
		t.Fatalf("expected MAX_POSITIONS, got %+v", d)
	}
}

func TestOverlappingIndexExposure(t *testing.T) {
	p := NewCapitalPolicy()
	in := baseInput()
	in.Symbol = "SPX500"
	in.OpenPositions = []OpenPosition{{Symbol: "US30", Side: models.Buy, RiskFree: false}}
	d := p.Evaluate(in)
	if d.Approved || d.Reason != models.ReasonOverlappingExposure {
		t.Fatalf("expected OVERLAPPING_EXPOSURE, got %+v", d)
	}
}

// TestOverlappingIndexExposureCrossRegion guards against reintroducing
// regional index buckets: all indices are a single undifferentiated group,
// so a non-risk-free long SPX500 must also block a new long NAS100.
func TestOverlappingIndexExposureCrossRegion(t *testing.T) {
	p := NewCapitalPolicy()
	in := baseInput()
	in.Symbol = "NAS100"
	in.OpenPositions = []OpenPosition{{Symbol: "SPX500", Side: models.Buy, RiskFree: false}}
	d := p.Evaluate(in)
	if d.Approved || d.Reason != models.ReasonOverlappingExposure {
		t.Fatalf("expected OVERLAPPING_EXPOSURE across index regions, got %+v", d)
	}
}
