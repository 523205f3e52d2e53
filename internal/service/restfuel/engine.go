package restfuel

import (
	"fmt"
	"math"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/service/hos"
)

// Config tunes the decision engine. All knobs are hours except the
// opportunity threshold and weights.
type Config struct {
	Rules                domain.HOSRules
	AvgSpeedMPH          float64
	FullRestHours        float64
	MinPartialRestHours  float64
	MinFullDockHours     float64
	OpportunityThreshold float64
	CriticalityWeight    float64
	DockUsabilityWeight  float64
}

// DefaultConfig returns the engine defaults: FMCSA rules, 55 mph planning
// speed, a 10h full rest, a 2h minimum sleeper-berth split.
func DefaultConfig() Config {
	return Config{
		Rules:                domain.DefaultHOSRules(),
		AvgSpeedMPH:          55,
		FullRestHours:        10,
		MinPartialRestHours:  2,
		MinFullDockHours:     10,
		OpportunityThreshold: 0.55,
		CriticalityWeight:    0.6,
		DockUsabilityWeight:  0.4,
	}
}

// Input is one decision point: a dock stop on the skeleton, plan
// initialization, or a trigger re-plan.
type Input struct {
	Driver                 domain.DriverState
	RemainingDistanceMiles float64
	// HasDockStop marks a decision point that coincides with a dock segment;
	// DockHours is that stop's dock duration.
	HasDockStop bool
	DockHours   float64
	// BreakScheduled is true when a rest is already planned before the break
	// limit would be reached.
	BreakScheduled bool
	// ForceMandatoryRest is set by the hos_violation trigger.
	ForceMandatoryRest bool
}

// Engine makes rest and fuel decisions. Pure: no I/O, no randomness.
type Engine struct {
	cfg Config
}

// NewEngine validates the config and returns a decision engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.AvgSpeedMPH <= 0 {
		return nil, apperr.Fieldf("avg_speed_mph", "must be positive")
	}
	if cfg.FullRestHours <= 0 || cfg.MinPartialRestHours <= 0 {
		return nil, apperr.Fieldf("rest_hours", "rest durations must be positive")
	}
	if cfg.MinPartialRestHours >= cfg.FullRestHours {
		return nil, apperr.Fieldf("rest_hours", "partial increment must be shorter than a full rest")
	}
	return &Engine{cfg: cfg}, nil
}

// Decide runs the rest decision algorithm for one decision point.
func (e *Engine) Decide(in Input) (Decision, error) {
	if in.RemainingDistanceMiles < 0 {
		return Decision{}, apperr.Fieldf("remaining_distance_miles", "must be non-negative")
	}
	if in.DockHours < 0 {
		return Decision{}, apperr.Fieldf("dock_hours", "must be non-negative")
	}

	ev := hos.Evaluate(in.Driver, e.cfg.Rules)

	feas := e.analyzeFeasibility(in, ev)
	mandatory, mandatoryWhy := e.mandatoryBreak(in, ev)
	opp := e.analyzeOpportunity(in, ev)

	d := Decision{
		IsCompliant: ev.IsCompliant,
		Feasibility: feas,
		Opportunity: opp,
	}

	var branch decisionBranch
	switch {
	case mandatory:
		branch = branchMandatory
		e.decideMandatory(&d, in, mandatoryWhy)
	case feas.ShortfallHours > 0:
		branch = branchShortfall
		e.decideShortfall(&d, in, feas)
	case opp.OpportunityScore >= e.cfg.OpportunityThreshold:
		branch = branchOpportunity
		e.decideOpportunity(&d, in, opp)
	default:
		branch = branchNone
		d.Recommendation = NoRest
		d.DriverCanDecline = true
		d.Reasoning = fmt.Sprintf(
			"no rest needed: %.1fh drive and %.1fh duty required fit margins of %.1fh and %.1fh",
			feas.DriveNeededHours, feas.DutyNeededHours, feas.DriveMarginHours, feas.DutyMarginHours)
	}

	d.Cost = e.analyzeCost(d, in)
	d.HoursAfterRestDrive, d.HoursAfterRestDuty = e.countersAfterRest(d, in)
	d.Confidence = e.confidence(d, branch, ev)
	return d, nil
}

// analyzeFeasibility computes drive/duty need versus remaining margins, using
// the raw shortfalls the evaluator keeps below the display clamp.
func (e *Engine) analyzeFeasibility(in Input, ev hos.Evaluation) FeasibilityAnalysis {
	driveNeeded := in.RemainingDistanceMiles / e.cfg.AvgSpeedMPH
	dutyNeeded := driveNeeded + in.DockHours

	f := FeasibilityAnalysis{
		DriveNeededHours: round2(driveNeeded),
		DutyNeededHours:  round2(dutyNeeded),
		DriveMarginHours: ev.Drive.Remaining,
		DutyMarginHours:  ev.Duty.Remaining,
	}
	driveShort := math.Max(0, driveNeeded-ev.Drive.Remaining+ev.Drive.Shortfall)
	dutyShort := math.Max(0, dutyNeeded-ev.Duty.Remaining+ev.Duty.Shortfall)
	switch {
	case driveShort == 0 && dutyShort == 0:
		// both satisfied
	case dutyShort > driveShort:
		f.ShortfallHours = round2(dutyShort)
		f.LimitingFactor = hos.RuleDuty
	default:
		f.ShortfallHours = round2(driveShort)
		f.LimitingFactor = hos.RuleDrive
	}
	return f
}

// mandatoryBreak applies the break rule: at or past the limit, or inside its
// warning band with no break already on the plan.
func (e *Engine) mandatoryBreak(in Input, ev hos.Evaluation) (bool, string) {
	if in.ForceMandatoryRest {
		return true, "an HOS violation was reported"
	}
	if !ev.Break.Compliant {
		return true, fmt.Sprintf("%.1fh since last break meets the %.1fh limit",
			ev.Break.Used, ev.Break.Limit)
	}
	if ev.Break.Severity != hos.SeverityOK && !in.BreakScheduled {
		return true, fmt.Sprintf("mandatory break imminent (%.1fh of %.1fh since last break, none scheduled)",
			ev.Break.Used, ev.Break.Limit)
	}
	return false, ""
}

// analyzeOpportunity scores a coinciding dock window as rest time.
func (e *Engine) analyzeOpportunity(in Input, ev hos.Evaluation) OpportunityAnalysis {
	opp := OpportunityAnalysis{}
	driveRatio := clamp01(ev.Drive.Remaining / ev.Drive.Limit)
	dutyRatio := clamp01(ev.Duty.Remaining / ev.Duty.Limit)
	opp.CriticalityScore = round2(1 - math.Min(driveRatio, dutyRatio))

	if !in.HasDockStop {
		return opp
	}
	opp.DockTimeAvailableHours = in.DockHours
	opp.HoursGainable = math.Min(in.DockHours, e.cfg.FullRestHours)

	var usability float64
	switch {
	case in.DockHours >= e.cfg.MinFullDockHours:
		usability = 1
	case in.DockHours >= e.cfg.MinPartialRestHours:
		usability = 0.6
	}
	opp.OpportunityScore = round2(e.cfg.CriticalityWeight*opp.CriticalityScore + e.cfg.DockUsabilityWeight*usability)
	return opp
}

func (e *Engine) decideMandatory(d *Decision, in Input, why string) {
	d.DriverCanDecline = false
	if in.HasDockStop && in.DockHours >= e.cfg.MinPartialRestHours && in.DockHours < e.cfg.FullRestHours {
		// the dock window only fits a qualifying sleeper-berth split
		dur := in.DockHours
		d.Recommendation = PartialRest
		d.RecommendedDurationHours = &dur
		d.DeferredRestHours = round2(e.cfg.FullRestHours - dur)
		d.Reasoning = fmt.Sprintf(
			"%s; the %.1fh dock window supports a %.1fh partial rest, deferring %.1fh to a later rest",
			why, in.DockHours, dur, d.DeferredRestHours)
		return
	}
	dur := e.cfg.FullRestHours
	d.Recommendation = FullRest
	d.RecommendedDurationHours = &dur
	d.Reasoning = fmt.Sprintf("%s; scheduling a %.1fh full rest", why, dur)
}

// decideShortfall picks the smallest rest that eliminates the shortfall,
// partial before full. A partial split pauses the duty window, so it can cover
// a duty shortfall but never a drive shortfall.
func (e *Engine) decideShortfall(d *Decision, in Input, feas FeasibilityAnalysis) {
	d.DriverCanDecline = false
	if feas.LimitingFactor == hos.RuleDuty {
		dur := math.Max(e.cfg.MinPartialRestHours, round2(feas.ShortfallHours))
		if dur < e.cfg.FullRestHours {
			d.Recommendation = PartialRest
			d.RecommendedDurationHours = &dur
			d.Reasoning = fmt.Sprintf(
				"duty margin %.1fh is short of the %.1fh needed by %.1fh; a %.1fh partial rest pauses the duty window and covers it",
				feas.DutyMarginHours, feas.DutyNeededHours, feas.ShortfallHours, dur)
			return
		}
	}
	dur := e.cfg.FullRestHours
	d.Recommendation = FullRest
	d.RecommendedDurationHours = &dur
	d.Reasoning = fmt.Sprintf(
		"drive margin %.1fh is short of the %.1fh needed by %.1fh; only a %.1fh full rest resets the drive clock",
		feas.DriveMarginHours, feas.DriveNeededHours, feas.ShortfallHours, dur)
}

func (e *Engine) decideOpportunity(d *Decision, in Input, opp OpportunityAnalysis) {
	dur := math.Min(in.DockHours, e.cfg.FullRestHours)
	d.Recommendation = PartialRest
	if dur >= e.cfg.FullRestHours {
		d.Recommendation = FullRest
	}
	d.RecommendedDurationHours = &dur
	d.DriverCanDecline = true
	d.Reasoning = fmt.Sprintf(
		"no rest is required, but the %.1fh dock window scores %.2f as a rest opportunity (criticality %.2f); the driver may decline",
		in.DockHours, opp.OpportunityScore, opp.CriticalityScore)
}

// analyzeCost measures how much each rest option would extend the plan beyond
// the dock time already being spent.
func (e *Engine) analyzeCost(d Decision, in Input) CostAnalysis {
	dock := 0.0
	if in.HasDockStop {
		dock = in.DockHours
	}
	c := CostAnalysis{
		FullRestExtensionHours: round2(math.Max(0, e.cfg.FullRestHours-dock)),
	}
	if d.RecommendedDurationHours != nil && d.Recommendation == PartialRest {
		c.PartialRestExtensionHours = round2(math.Max(0, *d.RecommendedDurationHours-dock))
	}
	switch d.Recommendation {
	case FullRest:
		c.ChosenExtensionHours = c.FullRestExtensionHours
	case PartialRest:
		c.ChosenExtensionHours = c.PartialRestExtensionHours
	}
	return c
}

// countersAfterRest projects the HOS counters past the chosen rest. A full
// rest resets all clocks; a partial split resets the break clock and credits
// its duration against the duty window.
func (e *Engine) countersAfterRest(d Decision, in Input) (drive, duty float64) {
	switch d.Recommendation {
	case FullRest:
		return 0, 0
	case PartialRest:
		dur := 0.0
		if d.RecommendedDurationHours != nil {
			dur = *d.RecommendedDurationHours
		}
		return in.Driver.HoursDriven, round2(math.Max(0, in.Driver.OnDutyHours-dur))
	default:
		return in.Driver.HoursDriven, in.Driver.OnDutyHours
	}
}

type decisionBranch int

const (
	branchNone decisionBranch = iota
	branchMandatory
	branchShortfall
	branchOpportunity
)

// confidence grades how decisively the inputs cleared or missed the relevant
// threshold. Near-boundary cases score lower. Deterministic by construction.
func (e *Engine) confidence(d Decision, branch decisionBranch, ev hos.Evaluation) float64 {
	var decisiveness float64
	switch branch {
	case branchNone:
		margin := math.Min(
			ev.Drive.Remaining-d.Feasibility.DriveNeededHours,
			ev.Duty.Remaining-d.Feasibility.DutyNeededHours,
		)
		decisiveness = clamp01(margin / ev.Drive.Limit)
	case branchShortfall:
		need := math.Max(d.Feasibility.DriveNeededHours, d.Feasibility.DutyNeededHours)
		if need > 0 {
			decisiveness = clamp01(d.Feasibility.ShortfallHours / need)
		}
	case branchOpportunity:
		decisiveness = clamp01((d.Opportunity.OpportunityScore - e.cfg.OpportunityThreshold) / e.cfg.OpportunityThreshold)
	case branchMandatory:
		// grade distance past the warning band
		warn := ev.Break.Limit * e.cfg.Rules.Break.WarningPct
		if ev.Break.Limit > warn {
			decisiveness = clamp01((ev.Break.Used - warn) / (ev.Break.Limit - warn))
		}
		if d.Feasibility.ShortfallHours > 0 {
			decisiveness = math.Max(decisiveness, clamp01(d.Feasibility.ShortfallHours/math.Max(d.Feasibility.DriveNeededHours, 1)))
		}
	}
	return round2(0.5 + 0.5*decisiveness)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
