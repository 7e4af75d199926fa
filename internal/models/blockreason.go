package models

// BlockReason enumerates every reason a gate may refuse an intent. Values
// are surfaced verbatim in telemetry, so the string form is part of the
// observable contract, not just a debug label.
type BlockReason int

const (
	ReasonNone BlockReason = iota
	ReasonTierRestricted
	ReasonSessionInvalid
	ReasonSpreadWide
	ReasonRegimeMismatch
	ReasonEdgeTooWeak
	ReasonChopDetected
	ReasonOverlappingExposure
	ReasonDailyRiskLimit
	ReasonMaxPositions
	ReasonLatencyDegraded
	ReasonLockdown
	ReasonDriftKill
	ReasonNotBootstrapped
)

var blockReasonNames = [...]string{
	"NONE",
	"TIER_RESTRICTED",
	"SESSION_INVALID",
	"SPREAD_WIDE",
	"REGIME_MISMATCH",
	"EDGE_TOO_WEAK",
	"CHOP_DETECTED",
	"OVERLAPPING_EXPOSURE",
	"DAILY_RISK_LIMIT",
	"MAX_POSITIONS",
	"LATENCY_DEGRADED",
	"LOCKDOWN",
	"DRIFT_KILL",
	"NOT_BOOTSTRAPPED",
}

func (r BlockReason) String() string {
	if int(r) < 0 || int(r) >= len(blockReasonNames) {
		return "UNKNOWN"
	}
	return blockReasonNames[r]
}
