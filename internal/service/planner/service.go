package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
	"hos-route-coordinator/internal/service/hos"
	"hos-route-coordinator/internal/service/restfuel"
)

// Config bundles the engine tunables the planner plans with.
type Config struct {
	Engine restfuel.Config
	Fuel   restfuel.FuelConfig
}

// DefaultConfig returns the planner defaults.
func DefaultConfig() Config {
	return Config{Engine: restfuel.DefaultConfig(), Fuel: restfuel.DefaultFuelConfig()}
}

// Service owns the versioned plan lifecycle: creation, activation, and
// trigger-driven re-planning. Every accepted mutation of an ACTIVE plan
// produces a new immutable version.
type Service struct {
	store            PlanStore
	engine           *restfuel.Engine
	cfg              Config
	logger           logx.Logger
	operationTimeout time.Duration
	locks            *keyedMutex
	replans          counter
	now              func() time.Time
}

// NewService creates and configures a planner Service.
func NewService(store PlanStore, cfg Config, logger logx.Logger, timeout time.Duration, replans counter) (*Service, error) {
	engine, err := restfuel.NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		store:            store,
		engine:           engine,
		cfg:              cfg,
		logger:           logger,
		operationTimeout: timeout,
		locks:            newKeyedMutex(),
		replans:          replans,
		now:              func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// CreateRequest carries the normalized inputs for an initial plan.
type CreateRequest struct {
	PlanID   string
	TenantID string
	Driver   domain.DriverState
	Vehicle  domain.VehicleState
	Stops    []domain.Stop
	Legs     []domain.Leg
	DepartAt time.Time
}

// CreatePlan validates the inputs, sequences the stops, inserts rest and fuel
// segments and persists version 1 in DRAFT.
func (s *Service) CreatePlan(ctx context.Context, req CreateRequest) (*domain.RoutePlan, error) {
	if req.PlanID == "" {
		return nil, apperr.Fieldf("plan_id", "must not be empty")
	}
	if req.TenantID == "" {
		return nil, apperr.Fieldf("tenant_id", "must not be empty")
	}
	if err := hos.ValidateState(req.Driver, s.cfg.Engine.Rules); err != nil {
		return nil, err
	}

	snap := domain.InputSnapshot{
		Driver:   req.Driver,
		Vehicle:  req.Vehicle,
		Stops:    req.Stops,
		Legs:     req.Legs,
		DepartAt: req.DepartAt,
	}
	res, err := s.buildPlan(snap, nil, false, nil)
	if err != nil {
		return nil, err
	}

	plan := &domain.RoutePlan{
		ID:                req.PlanID,
		Version:           1,
		Status:            domain.PlanDraft,
		TenantID:          req.TenantID,
		DriverID:          req.Driver.DriverID,
		VehicleID:         req.Vehicle.VehicleID,
		Segments:          res.segments,
		IsFeasible:        res.feasible,
		FeasibilityIssues: res.issues,
		Totals:            domain.SumTotals(res.segments),
		Compliance:        res.compliance,
		Snapshot:          snap,
		CreatedAt:         s.now(),
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.store.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.logger.Info("plan created",
		logx.String("plan_id", plan.ID),
		logx.String("driver_id", plan.DriverID),
		logx.Int("segments", len(plan.Segments)),
		logx.Any("feasible", plan.IsFeasible),
	)
	return plan, nil
}

// Get returns the current version of a plan.
func (s *Service) Get(ctx context.Context, id string) (*domain.RoutePlan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound
	}
	return p, nil
}

// GetVersion returns one retained historical version of a plan.
func (s *Service) GetVersion(ctx context.Context, id string, version int64) (*domain.RoutePlan, error) {
	if version <= 0 {
		return nil, apperr.Fieldf("version", "must be positive")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	p, err := s.store.GetVersion(ctx, id, version)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound
	}
	return p, nil
}

// ListActive returns the current versions of all ACTIVE plans.
func (s *Service) ListActive(ctx context.Context) ([]domain.RoutePlan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.ListActive(ctx)
}

// Activate moves a DRAFT plan to ACTIVE.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.PlanDraft, domain.PlanActive)
}

// Complete terminates an ACTIVE plan as COMPLETED.
func (s *Service) Complete(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.PlanActive, domain.PlanCompleted)
}

// Cancel terminates a DRAFT or ACTIVE plan as CANCELLED.
func (s *Service) Cancel(ctx context.Context, id string) error {
	err := s.transition(ctx, id, domain.PlanActive, domain.PlanCancelled)
	if errors.Is(err, apperr.Conflict) {
		return s.transition(ctx, id, domain.PlanDraft, domain.PlanCancelled)
	}
	return err
}

// transition serializes against in-flight re-plans for the same plan so a
// terminal status takes effect before the next mutation, not during it.
func (s *Service) transition(ctx context.Context, id string, from, to domain.PlanStatus) error {
	s.locks.lock(id)
	defer s.locks.unlock(id)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.UpdateStatus(ctx, id, from, to)
}

// ApplyTriggers applies a trigger batch to an ACTIVE plan under optimistic
// concurrency and commits the result as the next version. The previous
// version is retained, never rewritten. An applied batch always increments
// the version, even when it produced no net segment change: silently dropping
// an accepted trigger would break the audit trail.
func (s *Service) ApplyTriggers(ctx context.Context, planID string, baseVersion int64, triggers []domain.Trigger) (*domain.RoutePlan, error) {
	if len(triggers) == 0 {
		return nil, apperr.Fieldf("triggers", "must not be empty")
	}
	for _, tg := range triggers {
		if err := tg.Validate(); err != nil {
			return nil, err
		}
	}

	s.locks.lock(planID)
	defer s.locks.unlock(planID)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.store.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, apperr.NotFound
	}
	if cur.Status != domain.PlanActive {
		return nil, apperr.Conflict
	}
	if cur.Version != baseVersion {
		return nil, apperr.StaleVersion
	}

	snap := cloneSnapshot(cur.Snapshot)
	var (
		stopsChanged bool
		forceRest    bool
		injectRest   *float64
	)
	for _, tg := range triggers {
		changed, err := applyTrigger(&snap, tg, &forceRest, &injectRest)
		if err != nil {
			return nil, err
		}
		stopsChanged = stopsChanged || changed
	}

	var order []string
	if !stopsChanged {
		order = stopOrder(cur.Segments)
	}
	res, err := s.buildPlan(snap, order, forceRest, injectRest)
	if err != nil {
		return nil, err
	}

	next := &domain.RoutePlan{
		ID:                cur.ID,
		Version:           cur.Version + 1,
		Status:            domain.PlanActive,
		TenantID:          cur.TenantID,
		DriverID:          cur.DriverID,
		VehicleID:         cur.VehicleID,
		Segments:          res.segments,
		IsFeasible:        res.feasible,
		FeasibilityIssues: res.issues,
		Totals:            domain.SumTotals(res.segments),
		Compliance:        res.compliance,
		Snapshot:          snap,
		CreatedAt:         s.now(),
	}
	next.Impact = summarizeImpact(cur, next)

	// the store re-checks status and base version inside the commit; a plan
	// cancelled mid-replan rejects here and the partial result is discarded
	if err := s.store.CommitVersion(ctx, next, baseVersion); err != nil {
		return nil, err
	}
	if s.replans != nil {
		s.replans.Inc()
	}

	s.logger.Info("plan replanned",
		logx.String("plan_id", next.ID),
		logx.Int64("version", next.Version),
		logx.Int("triggers", len(triggers)),
		logx.Int("eta_delta_minutes", next.Impact.ETADeltaMinutes),
	)
	return next, nil
}

// applyTrigger mutates the snapshot for one trigger and reports whether the
// stop set changed (which forces re-sequencing).
func applyTrigger(snap *domain.InputSnapshot, tg domain.Trigger, forceRest *bool, injectRest **float64) (bool, error) {
	switch tg.Type {
	case domain.TriggerDockTimeChange:
		for i := range snap.Stops {
			if snap.Stops[i].ID == tg.TargetStopID {
				snap.Stops[i].DockHours = *tg.DockHours
				return false, nil
			}
		}
		return false, fmt.Errorf("trigger target stop %q: %w", tg.TargetStopID, apperr.NotFound)

	case domain.TriggerTrafficDelay:
		idx := 0
		if tg.TargetStopID != "" {
			idx = -1
			for i, l := range snap.Legs {
				if l.ToStopID == tg.TargetStopID {
					idx = i
					break
				}
			}
			if idx < 0 {
				return false, fmt.Errorf("trigger target leg to %q: %w", tg.TargetStopID, apperr.NotFound)
			}
		}
		if len(snap.Legs) == 0 {
			return false, fmt.Errorf("plan has no drive legs: %w", apperr.NotFound)
		}
		snap.Legs[idx].DriveHours += *tg.DelayHours
		return false, nil

	case domain.TriggerDriverRestRequest:
		*injectRest = tg.RestHours
		return false, nil

	case domain.TriggerLoadAdded:
		for _, st := range snap.Stops {
			if st.ID == tg.Stop.ID {
				return false, apperr.Fieldf("stop", "id %q already on the plan", tg.Stop.ID)
			}
		}
		snap.Stops = append(snap.Stops, *tg.Stop)
		snap.Legs = append(snap.Legs, tg.Legs...)
		return true, nil

	case domain.TriggerLoadCancelled:
		kept := snap.Stops[:0]
		found := false
		for _, st := range snap.Stops {
			if st.ID == tg.TargetStopID {
				found = true
				continue
			}
			kept = append(kept, st)
		}
		if !found {
			return false, fmt.Errorf("trigger target stop %q: %w", tg.TargetStopID, apperr.NotFound)
		}
		snap.Stops = kept
		snap.Legs = append(snap.Legs, tg.Legs...)
		return true, nil

	case domain.TriggerHOSViolation:
		*forceRest = true
		return false, nil
	}
	return false, apperr.Fieldf("trigger_type", "unknown value %q", tg.Type)
}

// stopOrder recovers the stop visiting order from a segment list.
func stopOrder(segments []domain.Segment) []string {
	var order []string
	for _, seg := range segments {
		if seg.Kind != domain.SegmentDrive {
			continue
		}
		if len(order) == 0 {
			order = append(order, seg.FromStopID)
		}
		order = append(order, seg.ToStopID)
	}
	return order
}

func cloneSnapshot(snap domain.InputSnapshot) domain.InputSnapshot {
	out := snap
	out.Stops = append([]domain.Stop(nil), snap.Stops...)
	out.Legs = append([]domain.Leg(nil), snap.Legs...)
	return out
}

func summarizeImpact(prev, next *domain.RoutePlan) *domain.ImpactSummary {
	deltaMin := int(math.Round((next.Totals.Hours - prev.Totals.Hours) * 60))
	severity := "low"
	switch abs := math.Abs(float64(deltaMin)); {
	case abs >= 60:
		severity = "high"
	case abs >= 15:
		severity = "medium"
	}
	return &domain.ImpactSummary{
		ETADeltaMinutes: deltaMin,
		AlertCount:      len(next.FeasibilityIssues) + len(next.Compliance.Violations),
		Severity:        severity,
	}
}
