package domain

import "time"

type (
	// AlertType identifies one monitored condition.
	AlertType string
	// AlertCategory groups alert types for the UI.
	AlertCategory string
	// AlertPriority orders alerts for notification and escalation.
	AlertPriority string
	// AlertStatus is the lifecycle state of an alert.
	AlertStatus string
)

// Catalog of monitored conditions evaluated each tick.
const (
	AlertHOSDriveWarning   AlertType = "hos_drive_warning"
	AlertHOSDriveCritical  AlertType = "hos_drive_critical"
	AlertHOSDutyWarning    AlertType = "hos_duty_warning"
	AlertHOSDutyCritical   AlertType = "hos_duty_critical"
	AlertHOSBreakWarning   AlertType = "hos_break_warning"
	AlertHOSBreakCritical  AlertType = "hos_break_critical"
	AlertCycleApproaching  AlertType = "cycle_limit_approaching"
	AlertRouteDelay        AlertType = "route_delay"
	AlertDriverNotMoving   AlertType = "driver_not_moving"
	AlertMissedAppointment AlertType = "missed_appointment"
	AlertAppointmentAtRisk AlertType = "appointment_at_risk"
	AlertDockTimeExceeded  AlertType = "dock_time_exceeded"
	AlertCostOverrun       AlertType = "cost_overrun"
	AlertFuelLow           AlertType = "fuel_low"
)

// List of alert categories
const (
	CategoryCompliance AlertCategory = "compliance"
	CategorySchedule   AlertCategory = "schedule"
	CategoryVehicle    AlertCategory = "vehicle"
	CategoryCost       AlertCategory = "cost"
)

// List of alert priorities
const (
	PriorityCritical AlertPriority = "critical"
	PriorityHigh     AlertPriority = "high"
	PriorityMedium   AlertPriority = "medium"
	PriorityLow      AlertPriority = "low"
)

// List of alert statuses
const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertSnoozed      AlertStatus = "snoozed"
	AlertResolved     AlertStatus = "resolved"
	AlertAutoResolved AlertStatus = "auto_resolved"
)

var allowedAlertPriorities = [...]AlertPriority{
	PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow,
}

// Valid checks if the AlertPriority is valid
func (p AlertPriority) Valid() bool {
	for _, v := range allowedAlertPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// alertTransitions lists the permitted one-way status moves. Snoozed alerts
// reactivate on expiry; everything else is final once resolved.
var alertTransitions = map[AlertStatus][]AlertStatus{
	AlertActive:       {AlertAcknowledged, AlertSnoozed, AlertResolved, AlertAutoResolved},
	AlertAcknowledged: {AlertResolved},
	AlertSnoozed:      {AlertActive, AlertResolved},
}

// CanTransition reports whether status s may move to next.
func (s AlertStatus) CanTransition(next AlertStatus) bool {
	for _, v := range alertTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// Open reports whether the alert still participates in dedup and escalation.
func (s AlertStatus) Open() bool {
	return s == AlertActive || s == AlertAcknowledged || s == AlertSnoozed
}

// Alert is one raised monitoring condition. Created and mutated only by the
// monitoring engine.
type Alert struct {
	ID              int64
	TenantID        string
	DriverID        string
	PlanID          string
	VehicleID       string
	Type            AlertType
	Category        AlertCategory
	Priority        AlertPriority
	Status          AlertStatus
	Message         string
	ParentAlertID   *int64
	RootCauseKey    string
	EscalationLevel int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	AcknowledgedAt  *time.Time
	SnoozedUntil    *time.Time
	ResolvedAt      *time.Time
}

// DefaultCategory returns the category an alert type belongs to.
func (t AlertType) DefaultCategory() AlertCategory {
	switch t {
	case AlertHOSDriveWarning, AlertHOSDriveCritical, AlertHOSDutyWarning,
		AlertHOSDutyCritical, AlertHOSBreakWarning, AlertHOSBreakCritical,
		AlertCycleApproaching:
		return CategoryCompliance
	case AlertRouteDelay, AlertDriverNotMoving, AlertMissedAppointment,
		AlertAppointmentAtRisk, AlertDockTimeExceeded:
		return CategorySchedule
	case AlertFuelLow:
		return CategoryVehicle
	case AlertCostOverrun:
		return CategoryCost
	default:
		return CategorySchedule
	}
}
