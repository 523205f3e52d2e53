package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
)

// Engine turns predicate findings into alert records: dedup within the
// configured window, parent/child grouping, SLA escalation, auto-resolution.
type Engine struct {
	alerts AlertStore
	logger logx.Logger
	raised counter
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an alert engine over the given store.
func NewEngine(alerts AlertStore, logger logx.Logger, raised counter) *Engine {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Engine{
		alerts: alerts,
		logger: logger,
		raised: raised,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  make(map[string]*sync.Mutex),
	}
}

// keyLock serializes create-or-update per (driver, type) so concurrent ticks
// evaluating related conditions cannot race a duplicate past the dedup check.
func (e *Engine) keyLock(driverID string, t domain.AlertType) *sync.Mutex {
	key := driverID + "|" + string(t)
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}

// Apply reconciles one plan's findings for one tick against the stored alerts
// of its driver.
func (e *Engine) Apply(ctx context.Context, plan domain.RoutePlan, findings []finding, cfg domain.AlertConfiguration) error {
	open, err := e.alerts.OpenByDriver(ctx, plan.TenantID, plan.DriverID)
	if err != nil {
		return fmt.Errorf("load open alerts: %w", err)
	}

	now := e.now()
	firing := make(map[domain.AlertType]bool, len(findings))
	for _, f := range findings {
		firing[f.Type] = true
		if err := e.raise(ctx, plan, f, cfg, open, now); err != nil {
			return err
		}
	}

	for i := range open {
		a := &open[i]
		if firing[a.Type] {
			if err := e.escalate(ctx, a, cfg, now); err != nil {
				return err
			}
			continue
		}
		if err := e.clear(ctx, a, cfg, now); err != nil {
			return err
		}
	}
	return nil
}

// raise creates a new alert for the finding or refreshes the deduplicated one.
func (e *Engine) raise(ctx context.Context, plan domain.RoutePlan, f finding, cfg domain.AlertConfiguration, open []domain.Alert, now time.Time) error {
	lock := e.keyLock(plan.DriverID, f.Type)
	lock.Lock()
	defer lock.Unlock()

	window := time.Duration(cfg.Grouping.DedupWindowMinutes) * time.Minute
	var sameType *domain.Alert
	for i := range open {
		if open[i].Type == f.Type && open[i].Status.Open() {
			sameType = &open[i]
			break
		}
	}

	if sameType != nil {
		if sameType.Status == domain.AlertSnoozed {
			if sameType.SnoozedUntil != nil && now.Before(*sameType.SnoozedUntil) {
				return nil
			}
			sameType.Status = domain.AlertActive
			sameType.SnoozedUntil = nil
		}
		if now.Sub(sameType.CreatedAt) <= window {
			sameType.Message = f.Message
			sameType.UpdatedAt = now
			return e.alerts.Update(ctx, sameType)
		}
	}

	rule := cfg.Rule(f.Type)
	alert := &domain.Alert{
		TenantID:     plan.TenantID,
		DriverID:     plan.DriverID,
		PlanID:       plan.ID,
		VehicleID:    plan.VehicleID,
		Type:         f.Type,
		Category:     f.Type.DefaultCategory(),
		Priority:     rule.Priority,
		Status:       domain.AlertActive,
		Message:      f.Message,
		RootCauseKey: f.RootCause,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sameType != nil && cfg.Grouping.GroupSameTypePerDriver {
		// recurrence past the dedup window: link under the prior episode
		alert.ParentAlertID = parentOf(sameType)
	} else if f.RootCause != "" && cfg.Grouping.CrossDriverGrouping {
		related, err := e.alerts.OpenByRootCause(ctx, plan.TenantID, f.RootCause)
		if err != nil {
			return fmt.Errorf("load root-cause group: %w", err)
		}
		if len(related) > 0 {
			alert.ParentAlertID = parentOf(&related[0])
		}
	}

	if sameType != nil {
		// the store keeps one open alert per (driver, type); the prior
		// episode has to close before the new one can insert as its own row
		sameType.Status = domain.AlertAutoResolved
		resolved := now
		sameType.ResolvedAt = &resolved
		sameType.UpdatedAt = now
		if err := e.alerts.Update(ctx, sameType); err != nil {
			return fmt.Errorf("supersede alert %d: %w", sameType.ID, err)
		}
	}

	created, err := e.alerts.Create(ctx, alert)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	if !created {
		// a concurrent worker kept an open (driver, type) row between our
		// snapshot and the insert; the store refreshed it, so treat this
		// like a dedup hit
		return nil
	}
	if e.raised != nil {
		e.raised.Inc()
	}
	e.logger.Info("alert raised",
		logx.String("driver_id", plan.DriverID),
		logx.String("alert_type", string(f.Type)),
		logx.String("priority", string(rule.Priority)),
	)
	return nil
}

// parentOf roots grouping at the top of an existing chain.
func parentOf(a *domain.Alert) *int64 {
	if a.ParentAlertID != nil {
		id := *a.ParentAlertID
		return &id
	}
	id := a.ID
	return &id
}

// escalate bumps an active, unacknowledged alert once per full SLA period it
// has gone without acknowledgement.
func (e *Engine) escalate(ctx context.Context, a *domain.Alert, cfg domain.AlertConfiguration, now time.Time) error {
	if a.Status != domain.AlertActive {
		return nil
	}
	sla := cfg.Policy(a.Priority).AcknowledgeSLAMinutes
	if sla <= 0 {
		return nil
	}
	breaches := int(now.Sub(a.CreatedAt).Minutes()) / sla
	if breaches <= a.EscalationLevel {
		return nil
	}
	a.EscalationLevel = breaches
	a.UpdatedAt = now
	e.logger.Warn("alert escalated",
		logx.Int64("alert_id", a.ID),
		logx.String("alert_type", string(a.Type)),
		logx.Int("escalation_level", a.EscalationLevel),
	)
	return e.alerts.Update(ctx, a)
}

// clear auto-resolves an active alert whose condition stopped firing, and
// cascades the resolution to its children when configured.
func (e *Engine) clear(ctx context.Context, a *domain.Alert, cfg domain.AlertConfiguration, now time.Time) error {
	if a.Status != domain.AlertActive {
		// acknowledged alerts wait for an explicit resolve; snoozed ones
		// expire back to active first
		return nil
	}
	a.Status = domain.AlertAutoResolved
	a.ResolvedAt = &now
	a.UpdatedAt = now
	if err := e.alerts.Update(ctx, a); err != nil {
		return err
	}
	if !cfg.Grouping.CascadeLinking {
		return nil
	}
	return e.resolveChildren(ctx, a.ID, now)
}

func (e *Engine) resolveChildren(ctx context.Context, parentID int64, now time.Time) error {
	children, err := e.alerts.OpenChildren(ctx, parentID)
	if err != nil {
		return err
	}
	for i := range children {
		c := &children[i]
		c.Status = domain.AlertAutoResolved
		c.ResolvedAt = &now
		c.UpdatedAt = now
		if err := e.alerts.Update(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Open lists a driver's open alerts (active, acknowledged or snoozed).
func (e *Engine) Open(ctx context.Context, tenantID, driverID string) ([]domain.Alert, error) {
	return e.alerts.OpenByDriver(ctx, tenantID, driverID)
}

// Acknowledge moves an active alert to acknowledged.
func (e *Engine) Acknowledge(ctx context.Context, id int64) error {
	return e.transition(ctx, id, domain.AlertAcknowledged, func(a *domain.Alert, now time.Time) {
		a.AcknowledgedAt = &now
	})
}

// Snooze silences an active alert until the given time.
func (e *Engine) Snooze(ctx context.Context, id int64, until time.Time) error {
	if !until.After(e.now()) {
		return apperr.Fieldf("snoozed_until", "must be in the future")
	}
	return e.transition(ctx, id, domain.AlertSnoozed, func(a *domain.Alert, _ time.Time) {
		a.SnoozedUntil = &until
	})
}

// Resolve closes an alert by explicit human action.
func (e *Engine) Resolve(ctx context.Context, id int64) error {
	return e.transition(ctx, id, domain.AlertResolved, func(a *domain.Alert, now time.Time) {
		a.ResolvedAt = &now
	})
}

func (e *Engine) transition(ctx context.Context, id int64, to domain.AlertStatus, apply func(*domain.Alert, time.Time)) error {
	a, err := e.alerts.Get(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound
	}
	if !a.Status.CanTransition(to) {
		return apperr.Conflict
	}
	now := e.now()
	a.Status = to
	a.UpdatedAt = now
	apply(a, now)
	return e.alerts.Update(ctx, a)
}
