package domain

// DriverState is a snapshot of a driver's Hours-of-Service counters, supplied
// by the Fleet collaborator. All values are hours.
type DriverState struct {
	DriverID        string
	HoursDriven     float64
	OnDutyHours     float64
	HoursSinceBreak float64
	// CycleHoursUsed is nil for jurisdictions without a multi-day cycle rule.
	CycleHoursUsed *float64
}

// HOSRule is one regulatory limit with its alerting thresholds.
// LimitHours is an exclusive upper bound: a counter exactly at the limit is
// already non-compliant.
type HOSRule struct {
	LimitHours  float64
	WarningPct  float64
	CriticalPct float64
}

// HOSRules is a configurable rule set. Ceilings vary by jurisdiction, so they
// are data, never constants in the evaluator.
type HOSRules struct {
	Drive HOSRule
	Duty  HOSRule
	Break HOSRule
	// Cycle is nil when the jurisdiction has no multi-day cycle limit.
	Cycle *HOSRule
}

// DefaultHOSRules returns US FMCSA property-carrying limits.
func DefaultHOSRules() HOSRules {
	return HOSRules{
		Drive: HOSRule{LimitHours: 11, WarningPct: 0.8, CriticalPct: 0.95},
		Duty:  HOSRule{LimitHours: 14, WarningPct: 0.8, CriticalPct: 0.95},
		Break: HOSRule{LimitHours: 8, WarningPct: 0.8, CriticalPct: 0.95},
		Cycle: &HOSRule{LimitHours: 70, WarningPct: 0.85, CriticalPct: 0.95},
	}
}
