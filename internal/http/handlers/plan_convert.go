package handlers

import (
	"fmt"
	"strings"

	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/service/planner"
)

func stopToDomain(s stopDTO) domain.Stop {
	return domain.Stop{
		ID:     strings.TrimSpace(s.ID),
		Name:   s.Name,
		Lat:    s.Lat,
		Lon:    s.Lon,
		Kind:   domain.LocationKind(s.Kind),
		Action: domain.StopAction(s.Action),
		Window: domain.TimeWindow{
			EarliestArrival: s.Window.EarliestArrival,
			LatestArrival:   s.Window.LatestArrival,
		},
		DockHours:     s.DockHours,
		SequenceHint:  s.SequenceHint,
		IsOrigin:      s.IsOrigin,
		IsDestination: s.IsDestination,
	}
}

func legToDomain(l legDTO) domain.Leg {
	return domain.Leg{
		FromStopID:    strings.TrimSpace(l.FromStopID),
		ToStopID:      strings.TrimSpace(l.ToStopID),
		DistanceMiles: l.DistanceMiles,
		DriveHours:    l.DriveHours,
		Cost:          l.Cost,
	}
}

func toCreateRequest(req createPlanRequest) planner.CreateRequest {
	stops := make([]domain.Stop, 0, len(req.Stops))
	for _, s := range req.Stops {
		stops = append(stops, stopToDomain(s))
	}
	legs := make([]domain.Leg, 0, len(req.Legs))
	for _, l := range req.Legs {
		legs = append(legs, legToDomain(l))
	}
	return planner.CreateRequest{
		PlanID:   strings.TrimSpace(req.PlanID),
		TenantID: strings.TrimSpace(req.TenantID),
		Driver: domain.DriverState{
			DriverID:        strings.TrimSpace(req.Driver.DriverID),
			HoursDriven:     req.Driver.HoursDriven,
			OnDutyHours:     req.Driver.OnDutyHours,
			HoursSinceBreak: req.Driver.HoursSinceBreak,
			CycleHoursUsed:  req.Driver.CycleHoursUsed,
		},
		Vehicle: domain.VehicleState{
			VehicleID:           strings.TrimSpace(req.Vehicle.VehicleID),
			FuelCapacityGallons: req.Vehicle.FuelCapacityGallons,
			CurrentFuelGallons:  req.Vehicle.CurrentFuelGallons,
			MilesPerGallon:      req.Vehicle.MilesPerGallon,
		},
		Stops:    stops,
		Legs:     legs,
		DepartAt: req.DepartAt,
	}
}

func triggersToDomain(dtos []triggerDTO) []domain.Trigger {
	triggers := make([]domain.Trigger, 0, len(dtos))
	for _, d := range dtos {
		t := domain.Trigger{
			Type:         domain.TriggerType(strings.TrimSpace(d.TriggerType)),
			TargetStopID: strings.TrimSpace(d.TargetStopID),
			DockHours:    d.DockHours,
			DelayHours:   d.DelayHours,
			RestHours:    d.RestHours,
		}
		if d.Stop != nil {
			stop := stopToDomain(*d.Stop)
			t.Stop = &stop
		}
		if len(d.Legs) > 0 {
			t.Legs = make([]domain.Leg, 0, len(d.Legs))
			for _, l := range d.Legs {
				t.Legs = append(t.Legs, legToDomain(l))
			}
		}
		triggers = append(triggers, t)
	}
	return triggers
}

func planToResponse(p *domain.RoutePlan) planResponse {
	segments := make([]segmentResponse, 0, len(p.Segments))
	var restStops, fuelStops []segmentResponse
	for _, s := range p.Segments {
		seg := segmentResponse{
			Kind:          string(s.Kind),
			FromStopID:    s.FromStopID,
			ToStopID:      s.ToStopID,
			DistanceMiles: s.DistanceMiles,
			DriveHours:    s.DriveHours,
			DriveCost:     s.DriveCost,
			StopID:        s.StopID,
			Customer:      s.Customer,
			DockHours:     s.DockHours,
			RestType:      string(s.RestType),
			RestHours:     s.RestHours,
			RestReason:    s.RestReason,
			StationID:     s.StationID,
			Gallons:       s.Gallons,
			FuelCost:      s.FuelCost,
		}
		segments = append(segments, seg)
		switch s.Kind {
		case domain.SegmentRest:
			restStops = append(restStops, seg)
		case domain.SegmentFuel:
			fuelStops = append(fuelStops, seg)
		}
	}

	resp := planResponse{
		PlanID:            p.ID,
		PlanVersion:       p.Version,
		Status:            string(p.Status),
		TenantID:          p.TenantID,
		DriverID:          p.DriverID,
		VehicleID:         p.VehicleID,
		IsFeasible:        p.IsFeasible,
		FeasibilityIssues: p.FeasibilityIssues,
		Segments:          segments,
		RestStops:         restStops,
		FuelStops:         fuelStops,
		Summary:           planSummary(p, len(restStops), len(fuelStops)),
		Totals: totalsResponse{
			DistanceMiles: p.Totals.DistanceMiles,
			Hours:         p.Totals.Hours,
			Cost:          p.Totals.Cost,
		},
		Compliance: complianceResponse{
			MaxDriveHoursUsed: p.Compliance.MaxDriveHoursUsed,
			MaxDutyHoursUsed:  p.Compliance.MaxDutyHoursUsed,
			BreaksRequired:    p.Compliance.BreaksRequired,
			BreaksPlanned:     p.Compliance.BreaksPlanned,
			Violations:        p.Compliance.Violations,
			IsCompliant:       p.Compliance.IsCompliant(),
		},
		CreatedAt: p.CreatedAt,
	}
	if p.Impact != nil {
		resp.Impact = &impactResponse{
			ETADeltaMinutes: p.Impact.ETADeltaMinutes,
			AlertCount:      p.Impact.AlertCount,
			Severity:        p.Impact.Severity,
		}
	}
	return resp
}

func planSummary(p *domain.RoutePlan, restStops, fuelStops int) string {
	docks := 0
	for _, s := range p.Segments {
		if s.Kind == domain.SegmentDock {
			docks++
		}
	}
	return fmt.Sprintf("%d stops, %d rest stops, %d fuel stops, %.1f mi, %.1f h",
		docks, restStops, fuelStops, p.Totals.DistanceMiles, p.Totals.Hours)
}
