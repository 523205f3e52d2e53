package monitor

import (
	"context"
	"time"

	"hos-route-coordinator/internal/domain"
)

// Telemetry is one live observation of a driver and vehicle, fetched per plan
// on every tick.
type Telemetry struct {
	DriverID string
	Lat      float64
	Lon      float64
	SpeedMPH float64
	// MinutesSinceMove is how long the vehicle has been stationary.
	MinutesSinceMove float64
	// HOS carries the live duty counters reported by the ELD.
	HOS domain.DriverState
	// ETADeviationMinutes is positive when the driver runs behind plan.
	ETADeviationMinutes float64
	// FuelLevelRatio is current fuel over tank capacity, in [0,1].
	FuelLevelRatio float64
	// AtStopID is set while the vehicle is docked at a planned stop.
	AtStopID           string
	DockMinutesElapsed float64
	// CompletedStopIDs lists the stops already serviced on this plan.
	CompletedStopIDs []string
	// CostToDateRatio is accrued cost over planned cost so far.
	CostToDateRatio float64
	// RootCauseKey links observations sharing an external cause, such as a
	// weather event identifier, across drivers.
	RootCauseKey string
	ObservedAt   time.Time
}

// TelemetrySource supplies live observations. Fetches must honor the caller
// supplied context deadline.
type TelemetrySource interface {
	Fetch(ctx context.Context, plan domain.RoutePlan) (Telemetry, error)
}

// PlanSource enumerates the plans a tick has to evaluate.
type PlanSource interface {
	ListActive(ctx context.Context) ([]domain.RoutePlan, error)
}

// Replanner applies triggers to an active plan, committing a new version.
type Replanner interface {
	ApplyTriggers(ctx context.Context, planID string, baseVersion int64, triggers []domain.Trigger) (*domain.RoutePlan, error)
}

// SettingsSource returns the tenant alerting configuration. Callers fall back
// to the built-in defaults when it fails.
type SettingsSource interface {
	AlertConfig(ctx context.Context, tenantID string) (domain.AlertConfiguration, error)
}

// AlertStore persists alerts. Create must be atomic per (driver_id, type) so
// concurrent evaluation of related conditions cannot produce duplicates: when
// an open alert for the same key already exists the insert collapses into a
// refresh of that alert, and Create reports whether a new row was inserted.
type AlertStore interface {
	Get(ctx context.Context, id int64) (*domain.Alert, error)
	OpenByDriver(ctx context.Context, tenantID, driverID string) ([]domain.Alert, error)
	OpenByRootCause(ctx context.Context, tenantID, key string) ([]domain.Alert, error)
	OpenChildren(ctx context.Context, parentID int64) ([]domain.Alert, error)
	Create(ctx context.Context, alert *domain.Alert) (created bool, err error)
	Update(ctx context.Context, alert *domain.Alert) error
}

type counter interface {
	Inc()
}
