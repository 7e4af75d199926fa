package venue

// Decision is the composite output of the execution arbiter.
type Decision struct {
	Allow    bool
	SizeMult float64
}

// Arbiter composes one or more venue Health trackers with a FixSession into
// a single allow/size-multiplier decision. size_mult is the minimum across
// every venue health multiplier and the FIX multiplier — the worst leg wins.
type Arbiter struct {
	venues []*Health
	fix    *FixSession
}

func NewArbiter(fix *FixSession, venues ...*Health) *Arbiter {
	return &Arbiter{venues: venues, fix: fix}
}

func (a *Arbiter) Decide(nowNs uint64) Decision {
	mult := 1.0
	for _, v := range a.venues {
		if !v.CanTrade(nowNs) {
			return Decision{Allow: false, SizeMult: 0}
		}
	}
	fixMult := a.fix.SizeMultiplier(nowNs)
	if fixMult < mult {
		mult = fixMult
	}
	if mult <= 0 {
		return Decision{Allow: false, SizeMult: 0}
	}
	return Decision{Allow: true, SizeMult: mult}
}
