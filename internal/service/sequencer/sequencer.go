package sequencer

import (
	"fmt"
	"sort"
	"time"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/service/hos"
)

// Skeleton is the unrested drive+dock ordering handed to the rest/fuel
// decision engine. It is never a final plan.
type Skeleton struct {
	Order             []string
	Segments          []domain.Segment
	Arrivals          map[string]time.Time
	FeasibilityIssues []string
}

// Options tune a sequencing run.
type Options struct {
	DepartAt time.Time
	// Driver enables HOS feasibility pruning of the finished skeleton when
	// set: an ordering that needs more drive or duty hours than the driver has
	// left is reported as infeasible.
	Driver *domain.DriverState
	Rules  domain.HOSRules
}

type legKey struct{ from, to string }

// Sequence orders stops into drive+dock segment stubs. Explicit sequence
// hints win when present; stops without hints are placed by a greedy
// nearest-feasible-next pick. Violated time windows are reported in
// FeasibilityIssues, never silently dropped.
//
// The greedy step minimizes immediate added drive time among time-window
// feasible candidates, breaking ties by earliest latest-arrival deadline and
// finally by stop ID so the ordering is deterministic.
func Sequence(stops []domain.Stop, legs []domain.Leg, opts Options) (*Skeleton, error) {
	if err := validateInputs(stops, legs); err != nil {
		return nil, err
	}

	legByPair := make(map[legKey]domain.Leg, len(legs))
	for _, l := range legs {
		legByPair[legKey{l.FromStopID, l.ToStopID}] = l
	}

	var origin, destination *domain.Stop
	middle := make([]domain.Stop, 0, len(stops))
	for i := range stops {
		s := stops[i]
		switch {
		case s.IsOrigin:
			origin = &s
		case s.IsDestination:
			destination = &s
		default:
			middle = append(middle, s)
		}
	}

	order := []domain.Stop{*origin}
	remaining := append([]domain.Stop(nil), middle...)
	current := *origin
	currentTime := opts.DepartAt

	sk := &Skeleton{Arrivals: map[string]time.Time{origin.ID: opts.DepartAt}}

	for len(remaining) > 0 {
		next, idx, err := pickNext(current, currentTime, remaining, legByPair)
		if err != nil {
			return nil, err
		}
		leg := legByPair[legKey{current.ID, next.ID}]
		currentTime = advance(sk, currentTime, next, leg)
		order = append(order, next)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		current = next
	}

	if destination != nil {
		leg, ok := legByPair[legKey{current.ID, destination.ID}]
		if !ok {
			return nil, apperr.Fieldf("legs", "missing estimate from %q to %q", current.ID, destination.ID)
		}
		currentTime = advance(sk, currentTime, *destination, leg)
		order = append(order, *destination)
	}

	for i := 1; i < len(order); i++ {
		leg := legByPair[legKey{order[i-1].ID, order[i].ID}]
		sk.Segments = append(sk.Segments, domain.Segment{
			Kind:          domain.SegmentDrive,
			FromStopID:    leg.FromStopID,
			ToStopID:      leg.ToStopID,
			DistanceMiles: leg.DistanceMiles,
			DriveHours:    leg.DriveHours,
			DriveCost:     leg.Cost,
		})
		if order[i].DockHours > 0 {
			sk.Segments = append(sk.Segments, domain.Segment{
				Kind:      domain.SegmentDock,
				StopID:    order[i].ID,
				Customer:  order[i].Name,
				DockHours: order[i].DockHours,
			})
		}
	}

	for _, s := range order {
		sk.Order = append(sk.Order, s.ID)
	}

	if opts.Driver != nil {
		pruneByHOS(sk, *opts.Driver, opts.Rules)
	}
	return sk, nil
}

// pruneByHOS flags the skeleton when the ordering cannot fit the driver's
// remaining drive or duty margins without rest.
func pruneByHOS(sk *Skeleton, driver domain.DriverState, rules domain.HOSRules) {
	ev := hos.Evaluate(driver, rules)
	var driveHours, dutyHours float64
	for _, seg := range sk.Segments {
		switch seg.Kind {
		case domain.SegmentDrive:
			driveHours += seg.DriveHours
			dutyHours += seg.DriveHours
		case domain.SegmentDock:
			dutyHours += seg.DockHours
		}
	}
	if driveHours > ev.Drive.Remaining {
		sk.FeasibilityIssues = append(sk.FeasibilityIssues,
			fmt.Sprintf("route needs %.1fh of driving but only %.1fh remain before the drive limit", driveHours, ev.Drive.Remaining))
	}
	if dutyHours > ev.Duty.Remaining {
		sk.FeasibilityIssues = append(sk.FeasibilityIssues,
			fmt.Sprintf("route needs %.1fh on duty but only %.1fh remain in the duty window", dutyHours, ev.Duty.Remaining))
	}
}

// pickNext returns the next stop: the lowest remaining sequence hint when any
// hinted stop is left, otherwise the greedy nearest-feasible-next choice.
func pickNext(current domain.Stop, now time.Time, remaining []domain.Stop, legs map[legKey]domain.Leg) (domain.Stop, int, error) {
	hintIdx := -1
	for i, s := range remaining {
		if s.SequenceHint == nil {
			continue
		}
		if hintIdx < 0 || *s.SequenceHint < *remaining[hintIdx].SequenceHint {
			hintIdx = i
		}
	}
	if hintIdx >= 0 {
		s := remaining[hintIdx]
		if _, ok := legs[legKey{current.ID, s.ID}]; !ok {
			return domain.Stop{}, 0, apperr.Fieldf("legs", "missing estimate from %q to %q", current.ID, s.ID)
		}
		return s, hintIdx, nil
	}

	type candidate struct {
		idx      int
		stop     domain.Stop
		hours    float64
		feasible bool
	}
	cands := make([]candidate, 0, len(remaining))
	for i, s := range remaining {
		leg, ok := legs[legKey{current.ID, s.ID}]
		if !ok {
			return domain.Stop{}, 0, apperr.Fieldf("legs", "missing estimate from %q to %q", current.ID, s.ID)
		}
		arrival := now.Add(hoursToDuration(leg.DriveHours))
		feasible := s.Window.LatestArrival == nil || !arrival.After(*s.Window.LatestArrival)
		cands = append(cands, candidate{idx: i, stop: s, hours: leg.DriveHours, feasible: feasible})
	}

	feasible := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.feasible {
			feasible = append(feasible, c)
		}
	}
	// no feasible candidate: fall through to best effort over everything
	pool := cands
	if len(feasible) > 0 {
		pool = feasible
	}
	sort.Slice(pool, func(a, b int) bool {
		if pool[a].hours != pool[b].hours {
			return pool[a].hours < pool[b].hours
		}
		da, db := deadline(pool[a].stop), deadline(pool[b].stop)
		if !da.Equal(db) {
			return da.Before(db)
		}
		return pool[a].stop.ID < pool[b].stop.ID
	})
	best := pool[0]
	return best.stop, best.idx, nil
}

func deadline(s domain.Stop) time.Time {
	if s.Window.LatestArrival != nil {
		return *s.Window.LatestArrival
	}
	// open deadline sorts last
	return time.Unix(1<<40, 0)
}

// advance moves simulated time through a drive leg and the stop's dock,
// recording the arrival and any violated window.
func advance(sk *Skeleton, now time.Time, stop domain.Stop, leg domain.Leg) time.Time {
	arrival := now.Add(hoursToDuration(leg.DriveHours))
	sk.Arrivals[stop.ID] = arrival
	if w := stop.Window.LatestArrival; w != nil && arrival.After(*w) {
		late := arrival.Sub(*w).Round(time.Minute)
		sk.FeasibilityIssues = append(sk.FeasibilityIssues,
			fmt.Sprintf("stop %s misses latest arrival %s by %s", stop.ID, w.Format(time.RFC3339), late))
	}
	if e := stop.Window.EarliestArrival; e != nil && arrival.Before(*e) {
		// wait at the gate until the window opens
		arrival = *e
	}
	return arrival.Add(hoursToDuration(stop.DockHours))
}

func validateInputs(stops []domain.Stop, legs []domain.Leg) error {
	if len(stops) == 0 {
		return apperr.Fieldf("stops", "must not be empty")
	}
	seen := make(map[string]struct{}, len(stops))
	var origins, destinations int
	for _, s := range stops {
		if s.ID == "" {
			return apperr.Fieldf("stops", "stop id must not be empty")
		}
		if _, dup := seen[s.ID]; dup {
			return apperr.Fieldf("stops", "duplicate stop id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		if s.IsOrigin {
			origins++
		}
		if s.IsDestination {
			destinations++
		}
		if !s.Kind.Valid() {
			return apperr.Fieldf("location_kind", "unknown value %q for stop %q", s.Kind, s.ID)
		}
		if !s.Action.Valid() {
			return apperr.Fieldf("action", "unknown value %q for stop %q", s.Action, s.ID)
		}
		if s.DockHours < 0 {
			return apperr.Fieldf("dock_hours", "must be non-negative for stop %q", s.ID)
		}
	}
	if origins != 1 {
		return apperr.Fieldf("stops", "must contain exactly one origin, got %d", origins)
	}
	if destinations > 1 {
		return apperr.Fieldf("stops", "must contain at most one destination, got %d", destinations)
	}
	for _, l := range legs {
		if l.DistanceMiles < 0 {
			return apperr.Fieldf("distance_miles", "must be non-negative for leg %s->%s", l.FromStopID, l.ToStopID)
		}
		if l.DriveHours < 0 {
			return apperr.Fieldf("drive_hours", "must be non-negative for leg %s->%s", l.FromStopID, l.ToStopID)
		}
		if l.Cost < 0 {
			return apperr.Fieldf("cost", "must be non-negative for leg %s->%s", l.FromStopID, l.ToStopID)
		}
	}
	return nil
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
