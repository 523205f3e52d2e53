package domain

import "hos-route-coordinator/internal/apperr"

// TriggerType is the kind of a re-planning trigger event.
type TriggerType string

// List of possible trigger types
const (
	TriggerDockTimeChange    TriggerType = "dock_time_change"
	TriggerTrafficDelay      TriggerType = "traffic_delay"
	TriggerDriverRestRequest TriggerType = "driver_rest_request"
	TriggerLoadAdded         TriggerType = "load_added"
	TriggerLoadCancelled     TriggerType = "load_cancelled"
	TriggerHOSViolation      TriggerType = "hos_violation"
)

var allowedTriggerTypes = [...]TriggerType{
	TriggerDockTimeChange, TriggerTrafficDelay, TriggerDriverRestRequest,
	TriggerLoadAdded, TriggerLoadCancelled, TriggerHOSViolation,
}

// Valid checks if the TriggerType is valid
func (t TriggerType) Valid() bool {
	for _, v := range allowedTriggerTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Trigger is a real-world event that may invalidate the current plan. It is a
// typed union: only the payload fields required by Type are set. Triggers are
// ephemeral; they survive only inside the resulting version's snapshot.
type Trigger struct {
	Type TriggerType
	// TargetStopID names the affected stop for dock_time_change and
	// load_cancelled.
	TargetStopID string
	// DockHours is the new dock duration for dock_time_change.
	DockHours *float64
	// DelayHours extends a drive segment for traffic_delay.
	DelayHours *float64
	// RestHours is the requested rest length for driver_rest_request.
	RestHours *float64
	// Stop is the added stop for load_added.
	Stop *Stop
	// Legs carries the caller-supplied drive estimates a stop change needs
	// (new pairs for load_added, patch pairs for load_cancelled).
	Legs []Leg
}

// Validate checks the payload fields required by the trigger type.
func (t Trigger) Validate() error {
	if !t.Type.Valid() {
		return apperr.Fieldf("trigger_type", "unknown value %q", t.Type)
	}
	switch t.Type {
	case TriggerDockTimeChange:
		if t.TargetStopID == "" {
			return apperr.Fieldf("target_stop_id", "is required for %s", t.Type)
		}
		if t.DockHours == nil || *t.DockHours < 0 {
			return apperr.Fieldf("dock_hours", "must be a non-negative number")
		}
	case TriggerTrafficDelay:
		if t.DelayHours == nil || *t.DelayHours < 0 {
			return apperr.Fieldf("delay_hours", "must be a non-negative number")
		}
	case TriggerDriverRestRequest:
		if t.RestHours == nil || *t.RestHours <= 0 {
			return apperr.Fieldf("rest_hours", "must be a positive number")
		}
	case TriggerLoadAdded:
		if t.Stop == nil {
			return apperr.Fieldf("stop", "is required for %s", t.Type)
		}
	case TriggerLoadCancelled:
		if t.TargetStopID == "" {
			return apperr.Fieldf("target_stop_id", "is required for %s", t.Type)
		}
	case TriggerHOSViolation:
		// no payload: forces the mandatory-rest branch on re-plan
	}
	return nil
}
