package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
)

type memAlerts struct {
	mu     sync.Mutex
	seq    int64
	alerts map[int64]domain.Alert
}

func newMemAlerts() *memAlerts {
	return &memAlerts{alerts: make(map[int64]domain.Alert)}
}

func (m *memAlerts) Get(_ context.Context, id int64) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (m *memAlerts) OpenByDriver(_ context.Context, tenantID, driverID string) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.TenantID == tenantID && a.DriverID == driverID && a.Status.Open() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAlerts) OpenByRootCause(_ context.Context, tenantID, key string) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.TenantID == tenantID && a.RootCauseKey == key && a.Status.Open() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAlerts) OpenChildren(_ context.Context, parentID int64) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.ParentAlertID != nil && *a.ParentAlertID == parentID && a.Status.Open() {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create mirrors the partial unique index on open (driver_id, type) rows: a
// conflicting insert collapses into a refresh of the open row.
func (m *memAlerts) Create(_ context.Context, alert *domain.Alert) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.alerts {
		if a.DriverID == alert.DriverID && a.Type == alert.Type && a.Status.Open() {
			a.Message = alert.Message
			a.UpdatedAt = alert.UpdatedAt
			m.alerts[id] = a
			alert.ID = a.ID
			alert.CreatedAt = a.CreatedAt
			return false, nil
		}
	}
	m.seq++
	alert.ID = m.seq
	m.alerts[alert.ID] = *alert
	return true, nil
}

func (m *memAlerts) Update(_ context.Context, alert *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[alert.ID]; !ok {
		return apperr.NotFound
	}
	m.alerts[alert.ID] = *alert
	return nil
}

func (m *memAlerts) byType(t domain.AlertType) []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alert
	for _, a := range m.alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type planSourceFn func(ctx context.Context) ([]domain.RoutePlan, error)

func (f planSourceFn) ListActive(ctx context.Context) ([]domain.RoutePlan, error) { return f(ctx) }

type telemetryFn func(ctx context.Context, plan domain.RoutePlan) (Telemetry, error)

func (f telemetryFn) Fetch(ctx context.Context, plan domain.RoutePlan) (Telemetry, error) {
	return f(ctx, plan)
}

type settingsFn func(ctx context.Context, tenantID string) (domain.AlertConfiguration, error)

func (f settingsFn) AlertConfig(ctx context.Context, tenantID string) (domain.AlertConfiguration, error) {
	return f(ctx, tenantID)
}

func testPlan() domain.RoutePlan {
	return domain.RoutePlan{
		ID:       "plan-1",
		Version:  1,
		Status:   domain.PlanActive,
		TenantID: "tenant-1",
		DriverID: "drv-1",
	}
}

func testEngine(store AlertStore) *Engine {
	return NewEngine(store, logx.Nop(), nil)
}

type stubCounter struct {
	mu sync.Mutex
	n  int
}

func (c *stubCounter) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *stubCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func alertTypes(found []finding) []domain.AlertType {
	if len(found) == 0 {
		return nil
	}
	out := make([]domain.AlertType, 0, len(found))
	for _, f := range found {
		out = append(out, f.Type)
	}
	return out
}

func TestEvaluate_PredicateCatalog(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	rules := domain.DefaultHOSRules()
	cycle := 62.0

	soon := now.Add(20 * time.Minute)
	past := now.Add(-10 * time.Minute)
	windowed := testPlan()
	windowed.Snapshot.Stops = []domain.Stop{
		{ID: "cust-a", Window: domain.TimeWindow{LatestArrival: &soon}},
	}
	missed := testPlan()
	missed.Snapshot.Stops = []domain.Stop{
		{ID: "cust-a", Window: domain.TimeWindow{LatestArrival: &past}},
	}
	docked := testPlan()
	docked.Snapshot.Stops = []domain.Stop{{ID: "cust-a", DockHours: 1}}

	cases := []struct {
		name string
		plan domain.RoutePlan
		tel  Telemetry
		want []domain.AlertType
	}{
		{
			name: "quiet",
			plan: testPlan(),
			tel:  Telemetry{HOS: domain.DriverState{HoursDriven: 2}},
			want: nil,
		},
		{
			name: "drive warning",
			plan: testPlan(),
			tel:  Telemetry{HOS: domain.DriverState{HoursDriven: 9.0}},
			want: []domain.AlertType{domain.AlertHOSDriveWarning},
		},
		{
			name: "drive critical suppresses warning",
			plan: testPlan(),
			tel:  Telemetry{HOS: domain.DriverState{HoursDriven: 10.5}},
			want: []domain.AlertType{domain.AlertHOSDriveCritical},
		},
		{
			name: "duty and break",
			plan: testPlan(),
			tel:  Telemetry{HOS: domain.DriverState{OnDutyHours: 13.5, HoursSinceBreak: 6.5}},
			want: []domain.AlertType{domain.AlertHOSDutyCritical, domain.AlertHOSBreakWarning},
		},
		{
			name: "cycle approaching",
			plan: testPlan(),
			tel:  Telemetry{HOS: domain.DriverState{CycleHoursUsed: &cycle}},
			want: []domain.AlertType{domain.AlertCycleApproaching},
		},
		{
			name: "route delay",
			plan: testPlan(),
			tel:  Telemetry{ETADeviationMinutes: 35},
			want: []domain.AlertType{domain.AlertRouteDelay},
		},
		{
			name: "not moving away from stops",
			plan: testPlan(),
			tel:  Telemetry{MinutesSinceMove: 50},
			want: []domain.AlertType{domain.AlertDriverNotMoving},
		},
		{
			name: "docked vehicle is not a stalled vehicle",
			plan: testPlan(),
			tel:  Telemetry{MinutesSinceMove: 50, AtStopID: "cust-a"},
			want: nil,
		},
		{
			name: "appointment at risk",
			plan: windowed,
			tel:  Telemetry{ETADeviationMinutes: 10},
			want: []domain.AlertType{domain.AlertAppointmentAtRisk},
		},
		{
			name: "missed appointment",
			plan: missed,
			tel:  Telemetry{},
			want: []domain.AlertType{domain.AlertMissedAppointment},
		},
		{
			name: "dock time exceeded",
			plan: docked,
			tel:  Telemetry{AtStopID: "cust-a", DockMinutesElapsed: 95},
			want: []domain.AlertType{domain.AlertDockTimeExceeded},
		},
		{
			name: "cost overrun",
			plan: testPlan(),
			tel:  Telemetry{CostToDateRatio: 1.2},
			want: []domain.AlertType{domain.AlertCostOverrun},
		},
		{
			name: "fuel low",
			plan: testPlan(),
			tel:  Telemetry{FuelLevelRatio: 0.1},
			want: []domain.AlertType{domain.AlertFuelLow},
		},
		{
			name: "completed stop never misses",
			plan: missed,
			tel:  Telemetry{CompletedStopIDs: []string{"cust-a"}},
			want: nil,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := evaluate(tc.plan, tc.tel, cfg, rules, now)
			require.Equal(t, tc.want, alertTypes(got))
		})
	}
}

func TestEvaluate_DisabledRuleNeverFires(t *testing.T) {
	t.Parallel()

	cfg := domain.DefaultAlertConfiguration("tenant-1")
	cfg.Rules[domain.AlertFuelLow] = domain.AlertRule{Enabled: false}

	got := evaluate(testPlan(), Telemetry{FuelLevelRatio: 0.05}, cfg, domain.DefaultHOSRules(), time.Now())
	require.Empty(t, got)
}

func TestApply_DedupWithinWindow(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	plan := testPlan()

	t0 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	critical := []finding{{Type: domain.AlertHOSDriveCritical, Message: "drive time at 10.5h of 11.0h"}}
	require.NoError(t, engine.Apply(context.Background(), plan, critical, cfg))

	// the same condition persisting one tick later updates, not duplicates
	engine.now = func() time.Time { return t0.Add(2 * time.Minute) }
	require.NoError(t, engine.Apply(context.Background(), plan, critical, cfg))

	got := store.byType(domain.AlertHOSDriveCritical)
	require.Len(t, got, 1)
	require.Equal(t, domain.AlertActive, got[0].Status)
	require.Equal(t, t0, got[0].CreatedAt)
	require.Equal(t, t0.Add(2*time.Minute), got[0].UpdatedAt)
}

func TestApply_RecurrenceAfterWindowGroups(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	plan := testPlan()

	t0 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	delay := []finding{{Type: domain.AlertRouteDelay, Message: "running 40 minutes behind plan"}}
	require.NoError(t, engine.Apply(context.Background(), plan, delay, cfg))

	engine.now = func() time.Time { return t0.Add(90 * time.Minute) }
	require.NoError(t, engine.Apply(context.Background(), plan, delay, cfg))

	got := store.byType(domain.AlertRouteDelay)
	require.Len(t, got, 2)

	// the prior episode closes so the new one is the only open alert
	require.Equal(t, domain.AlertAutoResolved, got[0].Status)
	require.NotNil(t, got[0].ResolvedAt)
	require.Equal(t, domain.AlertActive, got[1].Status)
	require.NotEqual(t, got[0].ID, got[1].ID)
	require.Equal(t, t0.Add(90*time.Minute), got[1].CreatedAt)

	require.Nil(t, got[0].ParentAlertID)
	require.NotNil(t, got[1].ParentAlertID)
	require.Equal(t, got[0].ID, *got[1].ParentAlertID)
}

func TestApply_CollapsedCreateIsNotANewEpisode(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	raised := &stubCounter{}
	engine := NewEngine(store, logx.Nop(), raised)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	plan := testPlan()

	// an open row for the same (driver, type) that the per-driver snapshot
	// does not see, as another worker would leave behind
	_, err := store.Create(context.Background(), &domain.Alert{
		TenantID:  "tenant-2",
		DriverID:  plan.DriverID,
		Type:      domain.AlertRouteDelay,
		Category:  domain.AlertRouteDelay.DefaultCategory(),
		Priority:  domain.PriorityHigh,
		Status:    domain.AlertActive,
		Message:   "already firing",
		CreatedAt: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	delay := []finding{{Type: domain.AlertRouteDelay, Message: "running 40 minutes behind plan"}}
	require.NoError(t, engine.Apply(context.Background(), plan, delay, cfg))

	got := store.byType(domain.AlertRouteDelay)
	require.Len(t, got, 1)
	require.Equal(t, "running 40 minutes behind plan", got[0].Message)
	require.Equal(t, 0, raised.count())
}

func TestApply_CrossDriverGrouping(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	cfg.Grouping.CrossDriverGrouping = true

	delay := []finding{{Type: domain.AlertRouteDelay, Message: "running 45 minutes behind plan", RootCause: "storm-17"}}
	require.NoError(t, engine.Apply(context.Background(), testPlan(), delay, cfg))

	other := testPlan()
	other.ID = "plan-2"
	other.DriverID = "drv-2"
	require.NoError(t, engine.Apply(context.Background(), other, delay, cfg))

	got := store.byType(domain.AlertRouteDelay)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].ParentAlertID)
	require.Equal(t, got[0].ID, *got[1].ParentAlertID)
}

func TestApply_EscalationOncePerBreach(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	plan := testPlan()
	critical := []finding{{Type: domain.AlertHOSDriveCritical, Message: "drive time critical"}}

	// critical priority has a 5 minute acknowledge SLA
	t0 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		at   time.Duration
		want int
	}{
		{0, 0},
		{6 * time.Minute, 1},
		{8 * time.Minute, 1},
		{11 * time.Minute, 2},
	} {
		engine.now = func() time.Time { return t0.Add(tc.at) }
		require.NoError(t, engine.Apply(context.Background(), plan, critical, cfg))
		got := store.byType(domain.AlertHOSDriveCritical)
		require.Len(t, got, 1)
		require.Equal(t, tc.want, got[0].EscalationLevel, "pass %d", i)
	}
}

func TestApply_AcknowledgedAlertDoesNotEscalate(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	plan := testPlan()
	critical := []finding{{Type: domain.AlertHOSDriveCritical, Message: "drive time critical"}}

	t0 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	require.NoError(t, engine.Apply(context.Background(), plan, critical, cfg))

	id := store.byType(domain.AlertHOSDriveCritical)[0].ID
	require.NoError(t, engine.Acknowledge(context.Background(), id))

	engine.now = func() time.Time { return t0.Add(30 * time.Minute) }
	require.NoError(t, engine.Apply(context.Background(), plan, critical, cfg))

	got := store.byType(domain.AlertHOSDriveCritical)
	require.Len(t, got, 1)
	require.Equal(t, domain.AlertAcknowledged, got[0].Status)
	require.Zero(t, got[0].EscalationLevel)
}

func TestApply_AutoResolveCascades(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	cfg.Grouping.CrossDriverGrouping = true

	delay := []finding{{Type: domain.AlertRouteDelay, Message: "running 40 minutes behind plan", RootCause: "storm-17"}}
	require.NoError(t, engine.Apply(context.Background(), testPlan(), delay, cfg))

	other := testPlan()
	other.ID = "plan-2"
	other.DriverID = "drv-2"
	require.NoError(t, engine.Apply(context.Background(), other, delay, cfg))

	// condition cleared on the root's plan: the linked child resolves with it
	require.NoError(t, engine.Apply(context.Background(), testPlan(), nil, cfg))

	for _, a := range store.byType(domain.AlertRouteDelay) {
		require.Equal(t, domain.AlertAutoResolved, a.Status)
		require.NotNil(t, a.ResolvedAt)
	}
}

func TestAlertTransitions(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	ctx := context.Background()
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	require.NoError(t, engine.Apply(ctx, testPlan(), []finding{{Type: domain.AlertFuelLow, Message: "fuel at 10%"}}, cfg))
	id := store.byType(domain.AlertFuelLow)[0].ID

	require.ErrorIs(t, engine.Acknowledge(ctx, 999), apperr.NotFound)
	require.ErrorIs(t, engine.Snooze(ctx, id, time.Now().Add(-time.Hour)), apperr.Invalid)

	require.NoError(t, engine.Acknowledge(ctx, id))
	require.ErrorIs(t, engine.Snooze(ctx, id, time.Now().Add(time.Hour)), apperr.Conflict)
	require.NoError(t, engine.Resolve(ctx, id))
	require.ErrorIs(t, engine.Resolve(ctx, id), apperr.Conflict)
}

func TestSnoozeExpiryReactivates(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	engine := testEngine(store)
	cfg := domain.DefaultAlertConfiguration("tenant-1")
	plan := testPlan()
	ctx := context.Background()
	low := []finding{{Type: domain.AlertFuelLow, Message: "fuel at 12%"}}

	t0 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	require.NoError(t, engine.Apply(ctx, plan, low, cfg))
	id := store.byType(domain.AlertFuelLow)[0].ID
	require.NoError(t, engine.Snooze(ctx, id, t0.Add(10*time.Minute)))

	// still snoozed: the firing is suppressed
	engine.now = func() time.Time { return t0.Add(5 * time.Minute) }
	require.NoError(t, engine.Apply(ctx, plan, low, cfg))
	require.Equal(t, domain.AlertSnoozed, store.byType(domain.AlertFuelLow)[0].Status)

	// expiry: the persisting condition reactivates the same alert
	engine.now = func() time.Time { return t0.Add(15 * time.Minute) }
	require.NoError(t, engine.Apply(ctx, plan, low, cfg))
	got := store.byType(domain.AlertFuelLow)
	require.Len(t, got, 1)
	require.Equal(t, domain.AlertActive, got[0].Status)
}

func TestTick_SkipsWhileDraining(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	loop := NewLoop(DefaultLoopConfig(),
		planSourceFn(func(context.Context) ([]domain.RoutePlan, error) {
			return []domain.RoutePlan{testPlan()}, nil
		}),
		telemetryFn(func(ctx context.Context, _ domain.RoutePlan) (Telemetry, error) {
			close(started)
			<-release
			return Telemetry{}, nil
		}),
		settingsFn(func(_ context.Context, tenantID string) (domain.AlertConfiguration, error) {
			return domain.DefaultAlertConfiguration(tenantID), nil
		}),
		testEngine(newMemAlerts()), nil, logx.Nop(), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Tick(context.Background())
	}()
	<-started

	loop.Tick(context.Background())
	require.Equal(t, int64(1), loop.SkippedTicks())

	close(release)
	<-done
	require.Equal(t, int64(1), loop.SkippedTicks())
}

func TestTick_PerPlanFailureIsolated(t *testing.T) {
	t.Parallel()

	store := newMemAlerts()
	planA := testPlan()
	planB := testPlan()
	planB.ID = "plan-2"
	planB.DriverID = "drv-2"

	loop := NewLoop(DefaultLoopConfig(),
		planSourceFn(func(context.Context) ([]domain.RoutePlan, error) {
			return []domain.RoutePlan{planA, planB}, nil
		}),
		telemetryFn(func(_ context.Context, plan domain.RoutePlan) (Telemetry, error) {
			if plan.ID == planA.ID {
				return Telemetry{}, errors.New("telemetry timeout")
			}
			return Telemetry{FuelLevelRatio: 0.05}, nil
		}),
		settingsFn(func(_ context.Context, tenantID string) (domain.AlertConfiguration, error) {
			return domain.AlertConfiguration{}, errors.New("settings down")
		}),
		testEngine(store), nil, logx.Nop(), nil)

	loop.Tick(context.Background())

	// the broken fetch for drv-1 did not stop drv-2's evaluation, and the
	// broken settings backend fell back to defaults
	got := store.byType(domain.AlertFuelLow)
	require.Len(t, got, 1)
	require.Equal(t, "drv-2", got[0].DriverID)
}

type replannerFn func(ctx context.Context, planID string, baseVersion int64, triggers []domain.Trigger) (*domain.RoutePlan, error)

func (f replannerFn) ApplyTriggers(ctx context.Context, planID string, baseVersion int64, triggers []domain.Trigger) (*domain.RoutePlan, error) {
	return f(ctx, planID, baseVersion, triggers)
}

func criticalDriveTelemetry() Telemetry {
	return Telemetry{HOS: domain.DriverState{DriverID: "drv-1", HoursDriven: 10.8}}
}

func TestTick_CriticalHOSAppliesViolationTrigger(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var applied []domain.Trigger
	var gotPlanID string
	var gotBase int64

	loop := NewLoop(DefaultLoopConfig(),
		planSourceFn(func(context.Context) ([]domain.RoutePlan, error) {
			p := testPlan()
			p.Version = 3
			return []domain.RoutePlan{p}, nil
		}),
		telemetryFn(func(context.Context, domain.RoutePlan) (Telemetry, error) {
			return criticalDriveTelemetry(), nil
		}),
		settingsFn(func(_ context.Context, tenantID string) (domain.AlertConfiguration, error) {
			return domain.DefaultAlertConfiguration(tenantID), nil
		}),
		testEngine(newMemAlerts()),
		replannerFn(func(_ context.Context, planID string, baseVersion int64, triggers []domain.Trigger) (*domain.RoutePlan, error) {
			mu.Lock()
			defer mu.Unlock()
			gotPlanID = planID
			gotBase = baseVersion
			applied = triggers
			return &domain.RoutePlan{ID: planID, Version: baseVersion + 1}, nil
		}),
		logx.Nop(), nil)

	loop.Tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "plan-1", gotPlanID)
	require.Equal(t, int64(3), gotBase)
	require.Len(t, applied, 1)
	require.Equal(t, domain.TriggerHOSViolation, applied[0].Type)
}

func TestTick_ScheduledRestSuppressesReplan(t *testing.T) {
	t.Parallel()

	plan := testPlan()
	plan.Segments = []domain.Segment{
		{Kind: domain.SegmentDock, StopID: "stop-1", DockHours: 1},
		{Kind: domain.SegmentRest, RestType: domain.RestFull, RestHours: 10},
		{Kind: domain.SegmentDock, StopID: "stop-2", DockHours: 1},
	}

	var replanned atomic.Bool

	loop := NewLoop(DefaultLoopConfig(),
		planSourceFn(func(context.Context) ([]domain.RoutePlan, error) {
			return []domain.RoutePlan{plan}, nil
		}),
		telemetryFn(func(context.Context, domain.RoutePlan) (Telemetry, error) {
			return criticalDriveTelemetry(), nil
		}),
		settingsFn(func(_ context.Context, tenantID string) (domain.AlertConfiguration, error) {
			return domain.DefaultAlertConfiguration(tenantID), nil
		}),
		testEngine(newMemAlerts()),
		replannerFn(func(context.Context, string, int64, []domain.Trigger) (*domain.RoutePlan, error) {
			replanned.Store(true)
			return nil, nil
		}),
		logx.Nop(), nil)

	loop.Tick(context.Background())
	require.False(t, replanned.Load(), "replan not expected while a rest is already scheduled")
}

func TestTick_CompletedRestNoLongerSuppressesReplan(t *testing.T) {
	t.Parallel()

	plan := testPlan()
	plan.Segments = []domain.Segment{
		{Kind: domain.SegmentDock, StopID: "stop-1", DockHours: 1},
		{Kind: domain.SegmentRest, RestType: domain.RestFull, RestHours: 10},
		{Kind: domain.SegmentDock, StopID: "stop-2", DockHours: 1},
	}

	tel := criticalDriveTelemetry()
	tel.CompletedStopIDs = []string{"stop-1", "stop-2"}

	replans := make(chan struct{}, 1)

	loop := NewLoop(DefaultLoopConfig(),
		planSourceFn(func(context.Context) ([]domain.RoutePlan, error) {
			return []domain.RoutePlan{plan}, nil
		}),
		telemetryFn(func(context.Context, domain.RoutePlan) (Telemetry, error) {
			return tel, nil
		}),
		settingsFn(func(_ context.Context, tenantID string) (domain.AlertConfiguration, error) {
			return domain.DefaultAlertConfiguration(tenantID), nil
		}),
		testEngine(newMemAlerts()),
		replannerFn(func(_ context.Context, planID string, baseVersion int64, _ []domain.Trigger) (*domain.RoutePlan, error) {
			replans <- struct{}{}
			return &domain.RoutePlan{ID: planID, Version: baseVersion + 1}, nil
		}),
		logx.Nop(), nil)

	loop.Tick(context.Background())
	require.Len(t, replans, 1)
}
