package hos

import (
	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
)

// Severity grades how close a counter is to its regulatory limit.
type Severity string

// List of possible severities
const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rule names used in statuses, reasoning strings and violation lists.
const (
	RuleDrive = "drive_limit"
	RuleDuty  = "duty_window"
	RuleBreak = "break_limit"
	RuleCycle = "cycle_limit"
)

// RuleStatus is the evaluation of one counter against one rule. Remaining is
// clamped to zero for display; Shortfall keeps the raw overrun for callers
// that size rests from it.
type RuleStatus struct {
	Rule      string
	Used      float64
	Limit     float64
	Remaining float64
	Shortfall float64
	Compliant bool
	Severity  Severity
}

// Evaluation is the full HOS picture for one driver state. Cycle is nil when
// the rule set has no cycle limit or the driver state carries no cycle hours.
type Evaluation struct {
	Drive       RuleStatus
	Duty        RuleStatus
	Break       RuleStatus
	Cycle       *RuleStatus
	IsCompliant bool
}

// Statuses returns the evaluated rules in a fixed order.
func (e Evaluation) Statuses() []RuleStatus {
	out := []RuleStatus{e.Drive, e.Duty, e.Break}
	if e.Cycle != nil {
		out = append(out, *e.Cycle)
	}
	return out
}

// ValidateState rejects counters outside [0, ceiling]. Ceilings come from the
// rule set, never from constants.
func ValidateState(d domain.DriverState, rules domain.HOSRules) error {
	if d.HoursDriven < 0 || d.HoursDriven > rules.Drive.LimitHours {
		return apperr.Fieldf("hours_driven", "must be within [0, %.1f]", rules.Drive.LimitHours)
	}
	if d.OnDutyHours < 0 || d.OnDutyHours > rules.Duty.LimitHours {
		return apperr.Fieldf("on_duty_hours", "must be within [0, %.1f]", rules.Duty.LimitHours)
	}
	if d.HoursSinceBreak < 0 || d.HoursSinceBreak > rules.Break.LimitHours {
		return apperr.Fieldf("hours_since_break", "must be within [0, %.1f]", rules.Break.LimitHours)
	}
	if d.CycleHoursUsed != nil && rules.Cycle != nil {
		if *d.CycleHoursUsed < 0 || *d.CycleHoursUsed > rules.Cycle.LimitHours {
			return apperr.Fieldf("cycle_hours_used", "must be within [0, %.1f]", rules.Cycle.LimitHours)
		}
	}
	return nil
}

// Evaluate compares a driver's counters against the rule set. Pure and
// deterministic; the limit is an exclusive upper bound, so a counter exactly
// at the limit is non-compliant.
func Evaluate(d domain.DriverState, rules domain.HOSRules) Evaluation {
	ev := Evaluation{
		Drive: evalRule(RuleDrive, d.HoursDriven, rules.Drive),
		Duty:  evalRule(RuleDuty, d.OnDutyHours, rules.Duty),
		Break: evalRule(RuleBreak, d.HoursSinceBreak, rules.Break),
	}
	if rules.Cycle != nil && d.CycleHoursUsed != nil {
		c := evalRule(RuleCycle, *d.CycleHoursUsed, *rules.Cycle)
		ev.Cycle = &c
	}
	ev.IsCompliant = ev.Drive.Compliant && ev.Duty.Compliant && ev.Break.Compliant
	if ev.Cycle != nil {
		ev.IsCompliant = ev.IsCompliant && ev.Cycle.Compliant
	}
	return ev
}

func evalRule(name string, used float64, r domain.HOSRule) RuleStatus {
	remaining := r.LimitHours - used
	shortfall := 0.0
	if remaining < 0 {
		shortfall = -remaining
		remaining = 0
	}
	st := RuleStatus{
		Rule:      name,
		Used:      used,
		Limit:     r.LimitHours,
		Remaining: remaining,
		Shortfall: shortfall,
		Compliant: used < r.LimitHours,
	}
	switch {
	case used >= r.LimitHours*r.CriticalPct:
		st.Severity = SeverityCritical
	case used >= r.LimitHours*r.WarningPct:
		st.Severity = SeverityWarning
	default:
		st.Severity = SeverityOK
	}
	return st
}
