package monitor

import (
	"fmt"
	"time"

	"hos-route-coordinator/internal/domain"
)

// finding is one predicate firing for one plan on one tick.
type finding struct {
	Type      domain.AlertType
	Message   string
	RootCause string
}

// evaluate runs the predicate catalog for one plan against one telemetry
// observation. Disabled rules are skipped; a critical HOS firing suppresses
// the warning for the same clock so a single condition raises one alert.
func evaluate(plan domain.RoutePlan, tel Telemetry, cfg domain.AlertConfiguration, rules domain.HOSRules, now time.Time) []finding {
	var out []finding
	add := func(t domain.AlertType, rootCause, format string, args ...any) {
		out = append(out, finding{Type: t, RootCause: rootCause, Message: fmt.Sprintf(format, args...)})
	}
	enabled := func(t domain.AlertType) bool { return cfg.Rule(t).Enabled }
	threshold := func(t domain.AlertType) float64 { return cfg.Rule(t).Threshold }

	hosClock := func(used, limit float64, warn, crit domain.AlertType, clock string) {
		if limit <= 0 {
			return
		}
		ratio := used / limit
		switch {
		case enabled(crit) && ratio >= threshold(crit):
			add(crit, "", "%s at %.1fh of %.1fh (%.0f%%)", clock, used, limit, ratio*100)
		case enabled(warn) && ratio >= threshold(warn):
			add(warn, "", "%s at %.1fh of %.1fh (%.0f%%)", clock, used, limit, ratio*100)
		}
	}
	hosClock(tel.HOS.HoursDriven, rules.Drive.LimitHours, domain.AlertHOSDriveWarning, domain.AlertHOSDriveCritical, "drive time")
	hosClock(tel.HOS.OnDutyHours, rules.Duty.LimitHours, domain.AlertHOSDutyWarning, domain.AlertHOSDutyCritical, "duty window")
	hosClock(tel.HOS.HoursSinceBreak, rules.Break.LimitHours, domain.AlertHOSBreakWarning, domain.AlertHOSBreakCritical, "time since break")

	if tel.HOS.CycleHoursUsed != nil && rules.Cycle != nil && enabled(domain.AlertCycleApproaching) {
		if ratio := *tel.HOS.CycleHoursUsed / rules.Cycle.LimitHours; ratio >= threshold(domain.AlertCycleApproaching) {
			add(domain.AlertCycleApproaching, "",
				"cycle at %.1fh of %.1fh (%.0f%%)", *tel.HOS.CycleHoursUsed, rules.Cycle.LimitHours, ratio*100)
		}
	}

	if enabled(domain.AlertRouteDelay) && tel.ETADeviationMinutes >= threshold(domain.AlertRouteDelay) {
		add(domain.AlertRouteDelay, tel.RootCauseKey,
			"running %.0f minutes behind plan", tel.ETADeviationMinutes)
	}

	if enabled(domain.AlertDriverNotMoving) && tel.AtStopID == "" &&
		tel.MinutesSinceMove >= threshold(domain.AlertDriverNotMoving) {
		add(domain.AlertDriverNotMoving, "",
			"stationary for %.0f minutes away from any planned stop", tel.MinutesSinceMove)
	}

	evaluateAppointments(plan, tel, cfg, now, add, enabled, threshold)

	if enabled(domain.AlertDockTimeExceeded) && tel.AtStopID != "" {
		if planned := dockHoursFor(plan, tel.AtStopID); planned > 0 {
			if tel.DockMinutesElapsed >= planned*60*threshold(domain.AlertDockTimeExceeded) {
				add(domain.AlertDockTimeExceeded, "",
					"docked %.0f minutes at %s against %.0f planned", tel.DockMinutesElapsed, tel.AtStopID, planned*60)
			}
		}
	}

	if enabled(domain.AlertCostOverrun) && tel.CostToDateRatio >= 1+threshold(domain.AlertCostOverrun) {
		add(domain.AlertCostOverrun, "",
			"cost to date at %.0f%% of plan", tel.CostToDateRatio*100)
	}

	if enabled(domain.AlertFuelLow) && tel.FuelLevelRatio > 0 &&
		tel.FuelLevelRatio <= threshold(domain.AlertFuelLow) {
		add(domain.AlertFuelLow, "",
			"fuel at %.0f%% of tank capacity", tel.FuelLevelRatio*100)
	}

	return out
}

// evaluateAppointments checks every windowed, unvisited stop: a latest-arrival
// already in the past is missed; one the current delay eats the slack of is at
// risk.
func evaluateAppointments(plan domain.RoutePlan, tel Telemetry, cfg domain.AlertConfiguration, now time.Time,
	add func(t domain.AlertType, rootCause, format string, args ...any),
	enabled func(domain.AlertType) bool, threshold func(domain.AlertType) float64,
) {
	done := make(map[string]bool, len(tel.CompletedStopIDs))
	for _, id := range tel.CompletedStopIDs {
		done[id] = true
	}
	for _, stop := range plan.Snapshot.Stops {
		if stop.Window.LatestArrival == nil || done[stop.ID] || stop.ID == tel.AtStopID {
			continue
		}
		latest := *stop.Window.LatestArrival
		if now.After(latest) {
			if enabled(domain.AlertMissedAppointment) {
				add(domain.AlertMissedAppointment, "",
					"appointment at %s missed (latest arrival %s)", stop.ID, latest.Format(time.RFC3339))
			}
			continue
		}
		if !enabled(domain.AlertAppointmentAtRisk) || tel.ETADeviationMinutes <= 0 {
			continue
		}
		slack := latest.Sub(now).Minutes() - tel.ETADeviationMinutes
		if slack <= threshold(domain.AlertAppointmentAtRisk) {
			add(domain.AlertAppointmentAtRisk, tel.RootCauseKey,
				"appointment at %s at risk: %.0f minutes of slack left", stop.ID, slack)
		}
	}
}

func dockHoursFor(plan domain.RoutePlan, stopID string) float64 {
	for _, stop := range plan.Snapshot.Stops {
		if stop.ID == stopID {
			return stop.DockHours
		}
	}
	return 0
}
