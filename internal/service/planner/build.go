package planner

import (
	"fmt"
	"math"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/service/restfuel"
	"hos-route-coordinator/internal/service/sequencer"
)

type buildResult struct {
	segments   []domain.Segment
	issues     []string
	compliance domain.ComplianceReport
	feasible   bool
}

// buildPlan turns an input snapshot into a rested, fueled segment list. When
// order is nil the stop sequencer decides the ordering; a non-nil order
// replays an existing one (trigger re-plans that did not change the stop set
// skip re-sequencing).
func (s *Service) buildPlan(snap domain.InputSnapshot, order []string, forceRest bool, injectRestHours *float64) (buildResult, error) {
	var (
		sk  *sequencer.Skeleton
		err error
	)
	opts := sequencer.Options{DepartAt: snap.DepartAt, Driver: &snap.Driver, Rules: s.cfg.Engine.Rules}
	if order == nil {
		sk, err = sequencer.Sequence(snap.Stops, snap.Legs, opts)
	} else {
		sk, err = resequence(snap, order, opts)
	}
	if err != nil {
		return buildResult{}, err
	}

	sim := simulation{
		engine:   s.engine,
		rules:    s.cfg.Engine.Rules,
		counters: snap.Driver,
	}
	segments, err := sim.run(sk, forceRest, injectRestHours)
	if err != nil {
		return buildResult{}, err
	}

	segments, err = s.insertFuelStops(segments, snap)
	if err != nil {
		return buildResult{}, err
	}

	issues := append([]string(nil), sk.FeasibilityIssues...)
	compliance := domain.ComplianceReport{
		MaxDriveHoursUsed: round2(sim.maxDrive),
		MaxDutyHoursUsed:  round2(sim.maxDuty),
		BreaksRequired:    sim.breaksRequired,
		BreaksPlanned:     sim.breaksPlanned,
		Violations:        sim.violations,
	}
	return buildResult{
		segments:   segments,
		issues:     issues,
		compliance: compliance,
		feasible:   len(issues) == 0 && len(sim.violations) == 0,
	}, nil
}

// resequence rebuilds drive+dock stubs along a fixed stop order.
func resequence(snap domain.InputSnapshot, order []string, opts sequencer.Options) (*sequencer.Skeleton, error) {
	byID := make(map[string]domain.Stop, len(snap.Stops))
	for _, st := range snap.Stops {
		byID[st.ID] = st
	}
	seq := 0
	pinned := make([]domain.Stop, 0, len(order))
	for _, id := range order {
		st, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("ordered stop %q: %w", id, apperr.NotFound)
		}
		if !st.IsOrigin && !st.IsDestination {
			hint := seq
			st.SequenceHint = &hint
			seq++
		}
		pinned = append(pinned, st)
	}
	return sequencer.Sequence(pinned, snap.Legs, opts)
}

// simulation walks the skeleton, tracks HOS counters and inserts rest
// segments where the decision engine requires them.
type simulation struct {
	engine   *restfuel.Engine
	rules    domain.HOSRules
	counters domain.DriverState

	maxDrive       float64
	maxDuty        float64
	breaksRequired int
	breaksPlanned  int
	violations     []string
}

func (sim *simulation) run(sk *sequencer.Skeleton, forceRest bool, injectRestHours *float64) ([]domain.Segment, error) {
	remaining := make([]float64, len(sk.Segments)+1)
	for i := len(sk.Segments) - 1; i >= 0; i-- {
		remaining[i] = remaining[i+1]
		if sk.Segments[i].Kind == domain.SegmentDrive {
			remaining[i] += sk.Segments[i].DistanceMiles
		}
	}

	out := make([]domain.Segment, 0, len(sk.Segments)+2)

	if injectRestHours != nil {
		// driver_rest_request: mandatory rest at the current position
		out = append(out, sim.rest(*injectRestHours, "driver rest request"))
	}

	// initialization decision point
	d, err := sim.engine.Decide(restfuel.Input{
		Driver:                 sim.counters,
		RemainingDistanceMiles: remaining[0],
		ForceMandatoryRest:     forceRest,
	})
	if err != nil {
		return nil, err
	}
	if seg, ok := sim.takeRest(d); ok {
		out = append(out, seg)
	}

	for i, seg := range sk.Segments {
		switch seg.Kind {
		case domain.SegmentDrive:
			sim.drive(seg)
			out = append(out, seg)
		case domain.SegmentDock:
			d, err := sim.engine.Decide(restfuel.Input{
				Driver:                 sim.counters,
				RemainingDistanceMiles: remaining[i+1],
				HasDockStop:            true,
				DockHours:              seg.DockHours,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, seg)
			if restSeg, ok := sim.takeRest(d); ok {
				out = append(out, restSeg)
			} else {
				sim.counters.OnDutyHours += seg.DockHours
				sim.counters.HoursSinceBreak += seg.DockHours
				sim.observe()
			}
		}
	}
	return out, nil
}

func (sim *simulation) drive(seg domain.Segment) {
	sim.counters.HoursDriven += seg.DriveHours
	sim.counters.OnDutyHours += seg.DriveHours
	sim.counters.HoursSinceBreak += seg.DriveHours
	sim.observe()
	if sim.counters.HoursDriven >= sim.rules.Drive.LimitHours {
		sim.violations = append(sim.violations, fmt.Sprintf(
			"drive limit reached on leg %s->%s (%.1fh of %.1fh)",
			seg.FromStopID, seg.ToStopID, sim.counters.HoursDriven, sim.rules.Drive.LimitHours))
	}
	if sim.counters.OnDutyHours >= sim.rules.Duty.LimitHours {
		sim.violations = append(sim.violations, fmt.Sprintf(
			"duty window exhausted on leg %s->%s (%.1fh of %.1fh)",
			seg.FromStopID, seg.ToStopID, sim.counters.OnDutyHours, sim.rules.Duty.LimitHours))
	}
}

// takeRest applies a non-declinable engine decision, returning the rest
// segment to insert. Declinable recommendations do not change the plan.
func (sim *simulation) takeRest(d restfuel.Decision) (domain.Segment, bool) {
	if d.Recommendation == restfuel.NoRest || d.DriverCanDecline || d.RecommendedDurationHours == nil {
		return domain.Segment{}, false
	}
	sim.breaksRequired++
	seg := sim.rest(*d.RecommendedDurationHours, d.Reasoning)
	sim.counters.HoursDriven = d.HoursAfterRestDrive
	sim.counters.OnDutyHours = d.HoursAfterRestDuty
	sim.counters.HoursSinceBreak = 0
	return seg, true
}

func (sim *simulation) rest(hours float64, reason string) domain.Segment {
	sim.breaksPlanned++
	restType := domain.RestPartial
	if hours >= 10 {
		restType = domain.RestFull
		sim.counters = domain.DriverState{
			DriverID:       sim.counters.DriverID,
			CycleHoursUsed: sim.counters.CycleHoursUsed,
		}
	} else {
		sim.counters.HoursSinceBreak = 0
		sim.counters.OnDutyHours = math.Max(0, sim.counters.OnDutyHours-hours)
	}
	return domain.Segment{
		Kind:       domain.SegmentRest,
		RestType:   restType,
		RestHours:  hours,
		RestReason: reason,
	}
}

func (sim *simulation) observe() {
	sim.maxDrive = math.Max(sim.maxDrive, sim.counters.HoursDriven)
	sim.maxDuty = math.Max(sim.maxDuty, sim.counters.OnDutyHours)
}

// insertFuelStops splices mandatory fuel segments in front of the drive legs
// the fuel planner flagged. Station and price belong to the Fuel collaborator.
func (s *Service) insertFuelStops(segments []domain.Segment, snap domain.InputSnapshot) ([]domain.Segment, error) {
	var legs []domain.Leg
	for _, seg := range segments {
		if seg.Kind == domain.SegmentDrive {
			legs = append(legs, domain.Leg{
				FromStopID:    seg.FromStopID,
				ToStopID:      seg.ToStopID,
				DistanceMiles: seg.DistanceMiles,
				DriveHours:    seg.DriveHours,
			})
		}
	}
	insertions, err := restfuel.PlanFuel(legs, snap.Vehicle, s.cfg.Fuel)
	if err != nil {
		return nil, err
	}
	if len(insertions) == 0 {
		return segments, nil
	}

	byLeg := make(map[int]restfuel.FuelInsertion, len(insertions))
	for _, ins := range insertions {
		byLeg[ins.LegIndex] = ins
	}
	out := make([]domain.Segment, 0, len(segments)+len(insertions))
	legIdx := 0
	for _, seg := range segments {
		if seg.Kind == domain.SegmentDrive {
			if ins, ok := byLeg[legIdx]; ok {
				out = append(out, domain.Segment{
					Kind:    domain.SegmentFuel,
					Gallons: ins.GallonsToFill,
				})
			}
			legIdx++
		}
		out = append(out, seg)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
