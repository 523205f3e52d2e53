package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
)

// LoopConfig tunes the monitoring loop.
type LoopConfig struct {
	TickInterval     time.Duration
	WorkerPool       int
	TelemetryTimeout time.Duration
	Rules            domain.HOSRules
}

// DefaultLoopConfig returns the 60 second tick with an 8 worker fan-out.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickInterval:     time.Minute,
		WorkerPool:       8,
		TelemetryTimeout: 5 * time.Second,
		Rules:            domain.DefaultHOSRules(),
	}
}

// Loop drives the periodic evaluation of active plans. Ticks never overlap:
// when one is still draining as the next fires, the next is skipped and the
// skip is counted.
type Loop struct {
	cfg       LoopConfig
	plans     PlanSource
	telemetry TelemetrySource
	settings  SettingsSource
	engine    *Engine
	replanner Replanner
	logger    logx.Logger

	skipCounter counter
	inFlight    atomic.Bool
	skipped     atomic.Int64
}

// NewLoop wires a monitoring loop. A nil replanner disables the automatic
// hos_violation replan and leaves the loop alert-only.
func NewLoop(cfg LoopConfig, plans PlanSource, telemetry TelemetrySource, settings SettingsSource, engine *Engine, replanner Replanner, logger logx.Logger, skips counter) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.WorkerPool <= 0 {
		cfg.WorkerPool = 8
	}
	if cfg.TelemetryTimeout <= 0 {
		cfg.TelemetryTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Loop{
		cfg:         cfg,
		plans:       plans,
		telemetry:   telemetry,
		settings:    settings,
		engine:      engine,
		replanner:   replanner,
		logger:      logger,
		skipCounter: skips,
	}
}

// Run blocks on the ticker until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	l.logger.Info("monitoring loop started",
		logx.Duration("tick_interval", l.cfg.TickInterval),
		logx.Int("worker_pool", l.cfg.WorkerPool),
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// SkippedTicks reports how many ticks were skipped because the previous one
// was still draining.
func (l *Loop) SkippedTicks() int64 {
	return l.skipped.Load()
}

// Tick runs one evaluation pass. Per-plan failures are logged and isolated;
// they never abort the pass for other plans.
func (l *Loop) Tick(ctx context.Context) {
	if !l.inFlight.CompareAndSwap(false, true) {
		l.skipped.Add(1)
		if l.skipCounter != nil {
			l.skipCounter.Inc()
		}
		l.logger.Warn("tick skipped, previous still draining", logx.Int64("skipped_total", l.skipped.Load()))
		return
	}
	defer l.inFlight.Store(false)

	plans, err := l.plans.ListActive(ctx)
	if err != nil {
		l.logger.Error("list active plans", logx.Any("error", err))
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(l.cfg.WorkerPool)
	for _, plan := range plans {
		plan := plan
		g.Go(func() error {
			if err := l.evaluatePlan(ctx, plan); err != nil {
				l.logger.Error("plan evaluation failed",
					logx.String("plan_id", plan.ID),
					logx.String("driver_id", plan.DriverID),
					logx.Any("error", err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (l *Loop) evaluatePlan(ctx context.Context, plan domain.RoutePlan) error {
	cfg, err := l.settings.AlertConfig(ctx, plan.TenantID)
	if err != nil {
		// a broken settings backend never fails the tick
		l.logger.Warn("alert configuration unavailable, using defaults",
			logx.String("tenant_id", plan.TenantID),
			logx.Any("error", err),
		)
		cfg = domain.DefaultAlertConfiguration(plan.TenantID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, l.cfg.TelemetryTimeout)
	defer cancel()
	tel, err := l.telemetry.Fetch(fetchCtx, plan)
	if err != nil {
		return err
	}

	findings := evaluate(plan, tel, cfg, l.cfg.Rules, l.engine.now())
	if err := l.engine.Apply(ctx, plan, findings, cfg); err != nil {
		return err
	}

	if l.replanner != nil && hasCriticalHOS(findings) && !hasUpcomingRest(plan, tel) {
		l.replan(ctx, plan)
	}
	return nil
}

func hasCriticalHOS(findings []finding) bool {
	for _, f := range findings {
		switch f.Type {
		case domain.AlertHOSDriveCritical, domain.AlertHOSDutyCritical, domain.AlertHOSBreakCritical:
			return true
		}
	}
	return false
}

// hasUpcomingRest reports whether the plan already schedules a rest after the
// driver's last completed stop. It keeps a persisting critical condition from
// committing a new version on every tick.
func hasUpcomingRest(plan domain.RoutePlan, tel Telemetry) bool {
	completed := make(map[string]struct{}, len(tel.CompletedStopIDs))
	for _, id := range tel.CompletedStopIDs {
		completed[id] = struct{}{}
	}
	lastDone := -1
	for i, s := range plan.Segments {
		if s.Kind == domain.SegmentDock {
			if _, ok := completed[s.StopID]; ok {
				lastDone = i
			}
		}
	}
	for _, s := range plan.Segments[lastDone+1:] {
		if s.Kind == domain.SegmentRest {
			return true
		}
	}
	return false
}

// replan applies a hos_violation trigger against the version this tick
// observed. Losing the optimistic check to a concurrent writer is fine, the
// next tick sees the new version.
func (l *Loop) replan(ctx context.Context, plan domain.RoutePlan) {
	_, err := l.replanner.ApplyTriggers(ctx, plan.ID, plan.Version, []domain.Trigger{{Type: domain.TriggerHOSViolation}})
	switch {
	case err == nil:
		l.logger.Info("hos violation replan committed",
			logx.String("plan_id", plan.ID),
			logx.String("driver_id", plan.DriverID),
		)
	case errors.Is(err, apperr.StaleVersion), errors.Is(err, apperr.Conflict):
	default:
		l.logger.Error("hos violation replan failed",
			logx.String("plan_id", plan.ID),
			logx.Any("error", err),
		)
	}
}
