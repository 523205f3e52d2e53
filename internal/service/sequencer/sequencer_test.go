package sequencer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
)

var depart = time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)

func stop(id string, hints ...int) domain.Stop {
	s := domain.Stop{
		ID:        id,
		Name:      "customer " + id,
		Kind:      domain.LocationCustomer,
		Action:    domain.ActionDelivery,
		DockHours: 1,
	}
	if len(hints) > 0 {
		h := hints[0]
		s.SequenceHint = &h
	}
	return s
}

func origin() domain.Stop {
	return domain.Stop{
		ID: "origin", Name: "hub", Kind: domain.LocationWarehouse,
		Action: domain.ActionPickup, IsOrigin: true,
	}
}

func leg(from, to string, miles, hours float64) domain.Leg {
	return domain.Leg{FromStopID: from, ToStopID: to, DistanceMiles: miles, DriveHours: hours, Cost: miles * 2}
}

func TestSequence_ExplicitHintsWin(t *testing.T) {
	t.Parallel()

	stops := []domain.Stop{origin(), stop("b", 2), stop("a", 1), stop("c", 3)}
	legs := []domain.Leg{
		leg("origin", "a", 10, 0.2), leg("origin", "b", 1, 0.1), leg("origin", "c", 1, 0.1),
		leg("a", "b", 30, 0.6), leg("b", "c", 5, 0.1),
	}

	sk, err := Sequence(stops, legs, Options{DepartAt: depart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"origin", "a", "b", "c"}
	if strings.Join(sk.Order, ",") != strings.Join(want, ",") {
		t.Fatalf("hinted order ignored: got %v, want %v", sk.Order, want)
	}
}

func TestSequence_GreedyNearestFirst(t *testing.T) {
	t.Parallel()

	stops := []domain.Stop{origin(), stop("far"), stop("near")}
	legs := []domain.Leg{
		leg("origin", "near", 20, 0.5), leg("origin", "far", 100, 2),
		leg("near", "far", 80, 1.5), leg("far", "near", 80, 1.5),
	}

	sk, err := Sequence(stops, legs, Options{DepartAt: depart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sk.Order[1] != "near" || sk.Order[2] != "far" {
		t.Fatalf("expected greedy nearest-first, got %v", sk.Order)
	}
	if len(sk.FeasibilityIssues) != 0 {
		t.Fatalf("unexpected issues: %v", sk.FeasibilityIssues)
	}
}

func TestSequence_DeadlineBreaksTies(t *testing.T) {
	t.Parallel()

	tight := depart.Add(2 * time.Hour)
	loose := depart.Add(8 * time.Hour)

	a := stop("a")
	a.Window.LatestArrival = &loose
	b := stop("b")
	b.Window.LatestArrival = &tight

	stops := []domain.Stop{origin(), a, b}
	legs := []domain.Leg{
		leg("origin", "a", 50, 1), leg("origin", "b", 50, 1),
		leg("a", "b", 10, 0.25), leg("b", "a", 10, 0.25),
	}

	sk, err := Sequence(stops, legs, Options{DepartAt: depart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sk.Order[1] != "b" {
		t.Fatalf("equal drive times: earliest deadline must win, got %v", sk.Order)
	}
}

func TestSequence_InfeasibleWindowReportedNotDropped(t *testing.T) {
	t.Parallel()

	late := depart.Add(30 * time.Minute)
	a := stop("a")
	a.Window.LatestArrival = &late

	stops := []domain.Stop{origin(), a}
	legs := []domain.Leg{leg("origin", "a", 100, 2)}

	sk, err := Sequence(stops, legs, Options{DepartAt: depart})
	if err != nil {
		t.Fatalf("infeasibility is not an error: %v", err)
	}
	if len(sk.Order) != 2 {
		t.Fatalf("best-effort order must keep all stops, got %v", sk.Order)
	}
	if len(sk.FeasibilityIssues) != 1 || !strings.Contains(sk.FeasibilityIssues[0], "stop a") {
		t.Fatalf("expected a named window violation, got %v", sk.FeasibilityIssues)
	}
}

func TestSequence_DestinationLast(t *testing.T) {
	t.Parallel()

	dest := domain.Stop{
		ID: "dest", Kind: domain.LocationDistributionCenter,
		Action: domain.ActionDelivery, IsDestination: true, DockHours: 0.5,
	}
	stops := []domain.Stop{origin(), dest, stop("a")}
	legs := []domain.Leg{
		leg("origin", "a", 10, 0.2), leg("a", "dest", 40, 0.8),
	}

	sk, err := Sequence(stops, legs, Options{DepartAt: depart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sk.Order[len(sk.Order)-1] != "dest" {
		t.Fatalf("destination must be last, got %v", sk.Order)
	}

	var drives, docks int
	for _, seg := range sk.Segments {
		switch seg.Kind {
		case domain.SegmentDrive:
			drives++
		case domain.SegmentDock:
			docks++
		}
	}
	if drives != 2 || docks != 2 {
		t.Fatalf("expected 2 drive and 2 dock stubs, got %d/%d", drives, docks)
	}
}

func TestSequence_HOSPruning(t *testing.T) {
	t.Parallel()

	driver := domain.DriverState{HoursDriven: 10, OnDutyHours: 12}
	stops := []domain.Stop{origin(), stop("a")}
	legs := []domain.Leg{leg("origin", "a", 200, 4)}

	sk, err := Sequence(stops, legs, Options{
		DepartAt: depart,
		Driver:   &driver,
		Rules:    domain.DefaultHOSRules(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sk.FeasibilityIssues) != 2 {
		t.Fatalf("expected drive and duty margin issues, got %v", sk.FeasibilityIssues)
	}
}

func TestSequence_ValidationErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		stops []domain.Stop
		legs  []domain.Leg
		field string
	}{
		{"empty stops", nil, nil, "stops"},
		{"no origin", []domain.Stop{stop("a")}, nil, "stops"},
		{
			"two origins",
			[]domain.Stop{origin(), {
				ID: "hub-2", Kind: domain.LocationWarehouse,
				Action: domain.ActionPickup, IsOrigin: true,
			}},
			nil, "stops",
		},
		{
			"two destinations",
			[]domain.Stop{
				origin(),
				{ID: "dest-1", Kind: domain.LocationWarehouse, Action: domain.ActionDelivery, IsDestination: true},
				{ID: "dest-2", Kind: domain.LocationWarehouse, Action: domain.ActionDelivery, IsDestination: true},
			},
			nil, "stops",
		},
		{"duplicate id", []domain.Stop{origin(), stop("a"), stop("a")}, nil, "stops"},
		{
			"bad kind",
			[]domain.Stop{origin(), {ID: "x", Kind: "spaceport", Action: domain.ActionDelivery}},
			nil, "location_kind",
		},
		{
			"negative leg",
			[]domain.Stop{origin(), stop("a")},
			[]domain.Leg{leg("origin", "a", -5, 1)},
			"distance_miles",
		},
		{
			"missing leg",
			[]domain.Stop{origin(), stop("a")},
			nil, "legs",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sequence(tc.stops, tc.legs, Options{DepartAt: depart})
			if !errors.Is(err, apperr.Invalid) {
				t.Fatalf("expected Invalid, got %v", err)
			}
			var fe *apperr.FieldError
			if !errors.As(err, &fe) || fe.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}
