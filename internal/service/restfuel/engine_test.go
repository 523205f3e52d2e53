package restfuel

import (
	"errors"
	"strings"
	"testing"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	return e
}

// Tight margins, a 2h dock window and an imminent mandatory break must yield
// a partial rest sized to the dock window that the driver cannot decline.
func TestDecide_TightMarginsPartialRestAtDock(t *testing.T) {
	t.Parallel()

	d, err := newEngine(t).Decide(Input{
		Driver: domain.DriverState{
			HoursDriven:     10.5,
			OnDutyHours:     13.0,
			HoursSinceBreak: 7.0,
		},
		RemainingDistanceMiles: 150,
		HasDockStop:            true,
		DockHours:              2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Recommendation != PartialRest {
		t.Fatalf("expected partial rest, got %s", d.Recommendation)
	}
	if d.RecommendedDurationHours == nil || *d.RecommendedDurationHours != 2 {
		t.Fatalf("rest must be sized to the 2h dock window, got %v", d.RecommendedDurationHours)
	}
	if d.DriverCanDecline {
		t.Fatal("mandatory break imminent: the driver cannot decline")
	}
	if d.Feasibility.ShortfallHours <= 0 {
		t.Fatalf("expected a positive shortfall, got %v", d.Feasibility.ShortfallHours)
	}
	if d.Feasibility.DriveMarginHours != 0.5 {
		t.Fatalf("drive margin should be 0.5h, got %v", d.Feasibility.DriveMarginHours)
	}
	if d.DeferredRestHours != 8 {
		t.Fatalf("a 2h split of a 10h rest defers 8h, got %v", d.DeferredRestHours)
	}
	if !strings.Contains(d.Reasoning, "dock window") {
		t.Fatalf("reasoning must explain the dock-window split: %q", d.Reasoning)
	}
}

// A fresh driver with plenty of margin and no dock stop needs no rest.
func TestDecide_FreshDriverNoRest(t *testing.T) {
	t.Parallel()

	d, err := newEngine(t).Decide(Input{
		Driver: domain.DriverState{
			HoursDriven:     2.0,
			OnDutyHours:     3.0,
			HoursSinceBreak: 2.0,
		},
		RemainingDistanceMiles: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Recommendation != NoRest {
		t.Fatalf("expected no rest, got %s", d.Recommendation)
	}
	if !d.IsCompliant {
		t.Fatal("driver state is compliant")
	}
	if d.RecommendedDurationHours != nil {
		t.Fatalf("no duration for no rest, got %v", *d.RecommendedDurationHours)
	}
	if d.Feasibility.LimitingFactor != "" {
		t.Fatalf("no limiting factor when both margins hold, got %q", d.Feasibility.LimitingFactor)
	}
	if d.HoursAfterRestDrive != 2.0 || d.HoursAfterRestDuty != 3.0 {
		t.Fatal("counters unchanged without rest")
	}
}

func TestDecide_Deterministic(t *testing.T) {
	t.Parallel()

	in := Input{
		Driver: domain.DriverState{
			HoursDriven:     9.2,
			OnDutyHours:     11.7,
			HoursSinceBreak: 5.5,
		},
		RemainingDistanceMiles: 240,
		HasDockStop:            true,
		DockHours:              3,
	}
	e := newEngine(t)

	first, err := e.Decide(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := e.Decide(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.Recommendation != first.Recommendation ||
			again.Confidence != first.Confidence ||
			again.Reasoning != first.Reasoning {
			t.Fatalf("decision not reproducible:\nfirst: %+v\nagain: %+v", first, again)
		}
		if (again.RecommendedDurationHours == nil) != (first.RecommendedDurationHours == nil) {
			t.Fatal("duration presence differs between runs")
		}
		if first.RecommendedDurationHours != nil && *again.RecommendedDurationHours != *first.RecommendedDurationHours {
			t.Fatal("duration differs between runs")
		}
	}
}

// No dock stop and a hard drive shortfall: only a full rest resets the drive
// clock.
func TestDecide_DriveShortfallForcesFullRest(t *testing.T) {
	t.Parallel()

	d, err := newEngine(t).Decide(Input{
		Driver: domain.DriverState{
			HoursDriven:     9.0,
			OnDutyHours:     9.5,
			HoursSinceBreak: 3.0,
		},
		RemainingDistanceMiles: 330, // 6h at 55mph against a 2h drive margin
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Recommendation != FullRest {
		t.Fatalf("expected full rest, got %s", d.Recommendation)
	}
	if d.Feasibility.LimitingFactor != "drive_limit" {
		t.Fatalf("drive is the tighter rule, got %q", d.Feasibility.LimitingFactor)
	}
	if d.DriverCanDecline {
		t.Fatal("feasibility-driven rest is not declinable")
	}
	if d.HoursAfterRestDrive != 0 || d.HoursAfterRestDuty != 0 {
		t.Fatal("full rest resets both clocks")
	}
	if !strings.Contains(d.Reasoning, "4.0h") && !strings.Contains(d.Reasoning, "shortfall") && !strings.Contains(d.Reasoning, "short of") {
		t.Fatalf("reasoning must carry the numeric margins: %q", d.Reasoning)
	}
}

// A duty-only shortfall is covered by the smallest qualifying partial split.
func TestDecide_DutyShortfallPartialRest(t *testing.T) {
	t.Parallel()

	d, err := newEngine(t).Decide(Input{
		Driver: domain.DriverState{
			HoursDriven:     4.0,
			OnDutyHours:     12.0,
			HoursSinceBreak: 3.0,
		},
		RemainingDistanceMiles: 110, // 2h drive fits; 5h duty (with dock) does not
		HasDockStop:            true,
		DockHours:              3,
		BreakScheduled:         true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Recommendation != PartialRest {
		t.Fatalf("expected partial rest for a duty shortfall, got %s", d.Recommendation)
	}
	if d.Feasibility.LimitingFactor != "duty_window" {
		t.Fatalf("duty is the tighter rule, got %q", d.Feasibility.LimitingFactor)
	}
	if d.RecommendedDurationHours == nil || *d.RecommendedDurationHours < 2 {
		t.Fatalf("partial rest must be at least the qualifying increment, got %v", d.RecommendedDurationHours)
	}
}

func TestDecide_HOSViolationForcesMandatory(t *testing.T) {
	t.Parallel()

	d, err := newEngine(t).Decide(Input{
		Driver:                 domain.DriverState{HoursDriven: 1, OnDutyHours: 1, HoursSinceBreak: 1},
		RemainingDistanceMiles: 50,
		ForceMandatoryRest:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Recommendation != FullRest || d.DriverCanDecline {
		t.Fatalf("hos violation must force a non-declinable full rest, got %+v", d)
	}
}

// A long dock window on a tired driver is recommended as declinable rest even
// when nothing forces it yet.
func TestDecide_OpportunityRestIsDeclinable(t *testing.T) {
	t.Parallel()

	d, err := newEngine(t).Decide(Input{
		Driver: domain.DriverState{
			HoursDriven:     6.5,
			OnDutyHours:     4.0,
			HoursSinceBreak: 4.0,
		},
		RemainingDistanceMiles: 110, // 2h fits the 4.5h drive margin
		HasDockStop:            true,
		DockHours:              3,
		BreakScheduled:         true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.Recommendation == NoRest {
		t.Fatalf("high opportunity score should recommend rest, got %+v", d)
	}
	if !d.DriverCanDecline {
		t.Fatal("opportunity rest must be declinable")
	}
	if d.Opportunity.OpportunityScore < 0.55 {
		t.Fatalf("score below threshold should not have recommended: %v", d.Opportunity.OpportunityScore)
	}
}

func TestDecide_NearBoundaryLowersConfidence(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	// barely short
	near, err := e.Decide(Input{
		Driver:                 domain.DriverState{HoursDriven: 8.9, OnDutyHours: 9, HoursSinceBreak: 3},
		RemainingDistanceMiles: 121, // 2.2h needed vs 2.1h margin
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// wildly short
	far, err := e.Decide(Input{
		Driver:                 domain.DriverState{HoursDriven: 10.5, OnDutyHours: 9, HoursSinceBreak: 3},
		RemainingDistanceMiles: 440,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if near.Confidence >= far.Confidence {
		t.Fatalf("near-boundary confidence %v should be below decisive %v", near.Confidence, far.Confidence)
	}
}

func TestDecide_InputValidation(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	_, err := e.Decide(Input{RemainingDistanceMiles: -1})
	if !errors.Is(err, apperr.Invalid) {
		t.Fatalf("negative distance must be rejected, got %v", err)
	}
	_, err = e.Decide(Input{DockHours: -0.5})
	if !errors.Is(err, apperr.Invalid) {
		t.Fatalf("negative dock hours must be rejected, got %v", err)
	}
}

func TestNewEngine_BadConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.AvgSpeedMPH = 0
	if _, err := NewEngine(cfg); !errors.Is(err, apperr.Invalid) {
		t.Fatalf("zero speed must be rejected, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.MinPartialRestHours = 12
	if _, err := NewEngine(cfg); !errors.Is(err, apperr.Invalid) {
		t.Fatalf("partial >= full must be rejected, got %v", err)
	}
}
