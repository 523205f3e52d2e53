package kafka

import (
	"strings"

	"hos-route-coordinator/internal/domain"
)

// TriggerDTO is the wire form of one trigger in a batch event.
type TriggerDTO struct {
	TriggerType  string   `json:"trigger_type"`
	TargetStopID string   `json:"target_stop_id,omitempty"`
	DockHours    *float64 `json:"dock_hours,omitempty"`
	DelayHours   *float64 `json:"delay_hours,omitempty"`
	RestHours    *float64 `json:"rest_hours,omitempty"`
	Stop         *StopDTO `json:"stop,omitempty"`
	Legs         []LegDTO `json:"legs,omitempty"`
}

// StopDTO is the wire form of a stop carried by a load_added trigger.
type StopDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	Kind          string  `json:"kind"`
	Action        string  `json:"action,omitempty"`
	DockHours     float64 `json:"dock_hours"`
	SequenceHint  *int    `json:"sequence_hint,omitempty"`
	IsOrigin      bool    `json:"is_origin,omitempty"`
	IsDestination bool    `json:"is_destination,omitempty"`
}

// LegDTO is the wire form of a drive estimate between two stops.
type LegDTO struct {
	FromStopID    string  `json:"from_stop_id"`
	ToStopID      string  `json:"to_stop_id"`
	DistanceMiles float64 `json:"distance_miles"`
	DriveHours    float64 `json:"drive_hours"`
	Cost          float64 `json:"cost,omitempty"`
}

// TriggerEventDTO is one trigger batch published for a plan.
type TriggerEventDTO struct {
	PlanID      string       `json:"plan_id"`
	BaseVersion int64        `json:"base_version"`
	Triggers    []TriggerDTO `json:"triggers"`
}

// TriggerEvent is the domain form handed to the handler.
type TriggerEvent struct {
	PlanID      string
	BaseVersion int64
	Triggers    []domain.Trigger
}

// ToDomain converts a wire event to its domain form.
func ToDomain(dto TriggerEventDTO) TriggerEvent {
	ev := TriggerEvent{
		PlanID:      strings.TrimSpace(dto.PlanID),
		BaseVersion: dto.BaseVersion,
	}
	for _, t := range dto.Triggers {
		ev.Triggers = append(ev.Triggers, toDomainTrigger(t))
	}
	return ev
}

func toDomainTrigger(dto TriggerDTO) domain.Trigger {
	out := domain.Trigger{
		Type:         domain.TriggerType(strings.TrimSpace(dto.TriggerType)),
		TargetStopID: strings.TrimSpace(dto.TargetStopID),
		DockHours:    dto.DockHours,
		DelayHours:   dto.DelayHours,
		RestHours:    dto.RestHours,
	}
	if dto.Stop != nil {
		stop := toDomainStop(*dto.Stop)
		out.Stop = &stop
	}
	for _, l := range dto.Legs {
		out.Legs = append(out.Legs, domain.Leg(l))
	}
	return out
}

func toDomainStop(dto StopDTO) domain.Stop {
	return domain.Stop{
		ID:            strings.TrimSpace(dto.ID),
		Name:          dto.Name,
		Lat:           dto.Lat,
		Lon:           dto.Lon,
		Kind:          domain.LocationKind(dto.Kind),
		Action:        domain.StopAction(dto.Action),
		DockHours:     dto.DockHours,
		SequenceHint:  dto.SequenceHint,
		IsOrigin:      dto.IsOrigin,
		IsDestination: dto.IsDestination,
	}
}
