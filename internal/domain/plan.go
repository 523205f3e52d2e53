package domain

import "time"

// PlanStatus is the lifecycle state of a route plan.
type PlanStatus string

// List of possible plan statuses
const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

var allowedPlanStatuses = [...]PlanStatus{
	PlanDraft, PlanActive, PlanCompleted, PlanCancelled,
}

// Valid checks if the PlanStatus is valid
func (s PlanStatus) Valid() bool {
	for _, v := range allowedPlanStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s PlanStatus) Terminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// InputSnapshot is the exact input set that produced a plan version. Retained
// per version for audit and replay.
type InputSnapshot struct {
	Driver   DriverState
	Vehicle  VehicleState
	Stops    []Stop
	Legs     []Leg
	DepartAt time.Time
}

// ImpactSummary describes what a trigger application changed.
type ImpactSummary struct {
	ETADeltaMinutes int
	AlertCount      int
	Severity        string
}

// RoutePlan is one immutable version of a driver's route. A trigger never
// edits a plan in place: it supersedes it under Version+1, with the previous
// version retained and linked.
type RoutePlan struct {
	ID                string
	Version           int64
	Status            PlanStatus
	TenantID          string
	DriverID          string
	VehicleID         string
	Segments          []Segment
	IsFeasible        bool
	FeasibilityIssues []string
	Totals            Totals
	Compliance        ComplianceReport
	Snapshot          InputSnapshot
	Impact            *ImpactSummary
	CreatedAt         time.Time
}
