package handlers

import "time"

type timeWindowDTO struct {
	EarliestArrival *time.Time `json:"earliest_arrival,omitempty"`
	LatestArrival   *time.Time `json:"latest_arrival,omitempty"`
}

type stopDTO struct {
	ID            string        `json:"id" validate:"required"`
	Name          string        `json:"name"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	Kind          string        `json:"kind" validate:"required"`
	Action        string        `json:"action,omitempty"`
	Window        timeWindowDTO `json:"window"`
	DockHours     float64       `json:"dock_hours" validate:"gte=0"`
	SequenceHint  *int          `json:"sequence_hint,omitempty"`
	IsOrigin      bool          `json:"is_origin"`
	IsDestination bool          `json:"is_destination"`
}

type legDTO struct {
	FromStopID    string  `json:"from_stop_id" validate:"required"`
	ToStopID      string  `json:"to_stop_id" validate:"required"`
	DistanceMiles float64 `json:"distance_miles" validate:"gte=0"`
	DriveHours    float64 `json:"drive_hours" validate:"gte=0"`
	Cost          float64 `json:"cost" validate:"gte=0"`
}

type driverStateDTO struct {
	DriverID        string   `json:"driver_id" validate:"required"`
	HoursDriven     float64  `json:"hours_driven" validate:"gte=0"`
	OnDutyHours     float64  `json:"on_duty_hours" validate:"gte=0"`
	HoursSinceBreak float64  `json:"hours_since_break" validate:"gte=0"`
	CycleHoursUsed  *float64 `json:"cycle_hours_used,omitempty"`
}

type vehicleStateDTO struct {
	VehicleID           string  `json:"vehicle_id" validate:"required"`
	FuelCapacityGallons float64 `json:"fuel_capacity_gallons" validate:"gte=0"`
	CurrentFuelGallons  float64 `json:"current_fuel_gallons" validate:"gte=0"`
	MilesPerGallon      float64 `json:"miles_per_gallon" validate:"gte=0"`
}

type createPlanRequest struct {
	PlanID   string          `json:"plan_id" validate:"required"`
	TenantID string          `json:"tenant_id" validate:"required"`
	Driver   driverStateDTO  `json:"driver_state" validate:"required"`
	Vehicle  vehicleStateDTO `json:"vehicle_state" validate:"required"`
	Stops    []stopDTO       `json:"stops" validate:"required,min=2,dive"`
	Legs     []legDTO        `json:"legs" validate:"required,min=1,dive"`
	DepartAt time.Time       `json:"depart_at" validate:"required"`
}

type triggerDTO struct {
	TriggerType  string   `json:"trigger_type" validate:"required"`
	TargetStopID string   `json:"target_stop_id,omitempty"`
	DockHours    *float64 `json:"dock_hours,omitempty"`
	DelayHours   *float64 `json:"delay_hours,omitempty"`
	RestHours    *float64 `json:"rest_hours,omitempty"`
	Stop         *stopDTO `json:"stop,omitempty"`
	Legs         []legDTO `json:"legs,omitempty"`
}

type applyTriggersRequest struct {
	BaseVersion int64        `json:"base_version" validate:"required,min=1"`
	Triggers    []triggerDTO `json:"triggers" validate:"required,min=1,dive"`
}

type segmentResponse struct {
	Kind string `json:"kind"`

	FromStopID    string  `json:"from_stop_id,omitempty"`
	ToStopID      string  `json:"to_stop_id,omitempty"`
	DistanceMiles float64 `json:"distance_miles,omitempty"`
	DriveHours    float64 `json:"drive_hours,omitempty"`
	DriveCost     float64 `json:"drive_cost,omitempty"`

	StopID    string  `json:"stop_id,omitempty"`
	Customer  string  `json:"customer,omitempty"`
	DockHours float64 `json:"dock_hours,omitempty"`

	RestType   string  `json:"rest_type,omitempty"`
	RestHours  float64 `json:"rest_hours,omitempty"`
	RestReason string  `json:"rest_reason,omitempty"`

	StationID string  `json:"station_id,omitempty"`
	Gallons   float64 `json:"gallons,omitempty"`
	FuelCost  float64 `json:"fuel_cost,omitempty"`
}

type totalsResponse struct {
	DistanceMiles float64 `json:"distance_miles"`
	Hours         float64 `json:"hours"`
	Cost          float64 `json:"cost"`
}

type complianceResponse struct {
	MaxDriveHoursUsed float64  `json:"max_drive_hours_used"`
	MaxDutyHoursUsed  float64  `json:"max_duty_hours_used"`
	BreaksRequired    int      `json:"breaks_required"`
	BreaksPlanned     int      `json:"breaks_planned"`
	Violations        []string `json:"violations,omitempty"`
	IsCompliant       bool     `json:"is_compliant"`
}

type impactResponse struct {
	ETADeltaMinutes int    `json:"eta_delta_minutes"`
	AlertCount      int    `json:"alert_count"`
	Severity        string `json:"severity"`
}

type planResponse struct {
	PlanID            string             `json:"plan_id"`
	PlanVersion       int64              `json:"plan_version"`
	Status            string             `json:"status"`
	TenantID          string             `json:"tenant_id"`
	DriverID          string             `json:"driver_id"`
	VehicleID         string             `json:"vehicle_id"`
	IsFeasible        bool               `json:"is_feasible"`
	FeasibilityIssues []string           `json:"feasibility_issues,omitempty"`
	Segments          []segmentResponse  `json:"segments"`
	RestStops         []segmentResponse  `json:"rest_stops,omitempty"`
	FuelStops         []segmentResponse  `json:"fuel_stops,omitempty"`
	Summary           string             `json:"summary"`
	Totals            totalsResponse     `json:"totals"`
	Compliance        complianceResponse `json:"compliance_report"`
	Impact            *impactResponse    `json:"impact_summary,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

type planStatusResponse struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}
