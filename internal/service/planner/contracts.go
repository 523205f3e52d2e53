package planner

import (
	"context"

	"hos-route-coordinator/internal/domain"
)

// PlanStore persists plans and their version history. CommitVersion must be
// atomic: it appends the new version only while the plan is still ACTIVE and
// its current version equals baseVersion, otherwise it fails without writing.
type PlanStore interface {
	Create(ctx context.Context, plan *domain.RoutePlan) error
	Get(ctx context.Context, id string) (*domain.RoutePlan, error)
	GetVersion(ctx context.Context, id string, version int64) (*domain.RoutePlan, error)
	ListActive(ctx context.Context) ([]domain.RoutePlan, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.PlanStatus) error
	CommitVersion(ctx context.Context, plan *domain.RoutePlan, baseVersion int64) error
}

type counter interface {
	Inc()
}
