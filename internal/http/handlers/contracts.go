package handlers

import (
	"context"
	"time"

	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/service/monitor"
	"hos-route-coordinator/internal/service/planner"
)

type planUsecase interface {
	CreatePlan(ctx context.Context, req planner.CreateRequest) (*domain.RoutePlan, error)
	Get(ctx context.Context, id string) (*domain.RoutePlan, error)
	GetVersion(ctx context.Context, id string, version int64) (*domain.RoutePlan, error)
	ListActive(ctx context.Context) ([]domain.RoutePlan, error)
	Activate(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	ApplyTriggers(ctx context.Context, planID string, baseVersion int64, triggers []domain.Trigger) (*domain.RoutePlan, error)
}

// NewPlanUsecase wires a planner Service into a planUsecase.
func NewPlanUsecase(svc *planner.Service) planUsecase {
	return svc
}

type alertUsecase interface {
	Open(ctx context.Context, tenantID, driverID string) ([]domain.Alert, error)
	Acknowledge(ctx context.Context, id int64) error
	Snooze(ctx context.Context, id int64, until time.Time) error
	Resolve(ctx context.Context, id int64) error
}

// NewAlertUsecase wires a monitor Engine into an alertUsecase.
func NewAlertUsecase(engine *monitor.Engine) alertUsecase {
	return engine
}
