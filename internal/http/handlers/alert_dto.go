package handlers

import (
	"time"

	"hos-route-coordinator/internal/domain"
)

type alertResponse struct {
	ID              int64      `json:"id"`
	TenantID        string     `json:"tenant_id"`
	DriverID        string     `json:"driver_id"`
	PlanID          string     `json:"plan_id"`
	VehicleID       string     `json:"vehicle_id,omitempty"`
	Type            string     `json:"type"`
	Category        string     `json:"category"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	Message         string     `json:"message"`
	ParentAlertID   *int64     `json:"parent_alert_id,omitempty"`
	EscalationLevel int        `json:"escalation_level"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at,omitempty"`
	SnoozedUntil    *time.Time `json:"snoozed_until,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

type snoozeAlertRequest struct {
	SnoozeUntil time.Time `json:"snooze_until" validate:"required"`
}

type alertStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func alertToResponse(a domain.Alert) alertResponse {
	return alertResponse{
		ID:              a.ID,
		TenantID:        a.TenantID,
		DriverID:        a.DriverID,
		PlanID:          a.PlanID,
		VehicleID:       a.VehicleID,
		Type:            string(a.Type),
		Category:        string(a.Category),
		Priority:        string(a.Priority),
		Status:          string(a.Status),
		Message:         a.Message,
		ParentAlertID:   a.ParentAlertID,
		EscalationLevel: a.EscalationLevel,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		AcknowledgedAt:  a.AcknowledgedAt,
		SnoozedUntil:    a.SnoozedUntil,
		ResolvedAt:      a.ResolvedAt,
	}
}
