package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/repository"
)

var alertSeq int

func newAlert(t *testing.T, alertType domain.AlertType) *domain.Alert {
	t.Helper()
	alertSeq++
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Alert{
		TenantID:  "tenant-it",
		DriverID:  fmt.Sprintf("drv-it-%d-%d", time.Now().UnixNano(), alertSeq),
		PlanID:    "plan-it",
		Type:      alertType,
		Category:  alertType.DefaultCategory(),
		Priority:  domain.PriorityHigh,
		Status:    domain.AlertActive,
		Message:   "initial firing",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAlertRepo_CreateAndGet(t *testing.T) {
	repo := repository.NewAlertRepo(tcPool)
	ctx := context.Background()

	alert := newAlert(t, domain.AlertRouteDelay)
	created, err := repo.Create(ctx, alert)
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, alert.ID)

	got, err := repo.Get(ctx, alert.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, domain.AlertRouteDelay, got.Type)
	require.Equal(t, domain.AlertActive, got.Status)

	missing, err := repo.Get(ctx, 1<<40)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestAlertRepo_CreateDedupsOpenAlert(t *testing.T) {
	repo := repository.NewAlertRepo(tcPool)
	ctx := context.Background()

	first := newAlert(t, domain.AlertHOSDriveCritical)
	created, err := repo.Create(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	// a second insert for the same open (driver, type) collapses into a
	// refresh of the existing row and reports it
	second := newAlert(t, domain.AlertHOSDriveCritical)
	second.DriverID = first.DriverID
	second.Message = "still firing"
	second.UpdatedAt = second.UpdatedAt.Add(time.Minute)
	created, err = repo.Create(ctx, second)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)

	open, err := repo.OpenByDriver(ctx, first.TenantID, first.DriverID)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "still firing", open[0].Message)
}

func TestAlertRepo_RecurrenceAfterSupersedeKeepsParentLink(t *testing.T) {
	repo := repository.NewAlertRepo(tcPool)
	ctx := context.Background()

	first := newAlert(t, domain.AlertRouteDelay)
	created, err := repo.Create(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	// the prior episode closes before the recurrence is inserted, the way
	// the alert engine supersedes it past the dedup window
	now := time.Now().UTC().Truncate(time.Microsecond)
	first.Status = domain.AlertAutoResolved
	first.ResolvedAt = &now
	first.UpdatedAt = now
	require.NoError(t, repo.Update(ctx, first))

	second := newAlert(t, domain.AlertRouteDelay)
	second.DriverID = first.DriverID
	second.ParentAlertID = &first.ID
	created, err = repo.Create(ctx, second)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, second.ID)

	got, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ParentAlertID)
	require.Equal(t, first.ID, *got.ParentAlertID)
	require.Equal(t, domain.AlertActive, got.Status)

	children, err := repo.OpenChildren(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
}

func TestAlertRepo_ResolvedAlertDoesNotBlockNewOne(t *testing.T) {
	repo := repository.NewAlertRepo(tcPool)
	ctx := context.Background()

	first := newAlert(t, domain.AlertFuelLow)
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first.Status = domain.AlertResolved
	first.ResolvedAt = &now
	first.UpdatedAt = now
	require.NoError(t, repo.Update(ctx, first))

	second := newAlert(t, domain.AlertFuelLow)
	second.DriverID = first.DriverID
	created, err := repo.Create(ctx, second)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, first.ID, second.ID)
}

func TestAlertRepo_OpenByRootCauseAndChildren(t *testing.T) {
	repo := repository.NewAlertRepo(tcPool)
	ctx := context.Background()

	parent := newAlert(t, domain.AlertRouteDelay)
	parent.RootCauseKey = "storm-42"
	_, err := repo.Create(ctx, parent)
	require.NoError(t, err)

	child := newAlert(t, domain.AlertAppointmentAtRisk)
	child.DriverID = parent.DriverID
	child.RootCauseKey = "storm-42"
	child.ParentAlertID = &parent.ID
	_, err = repo.Create(ctx, child)
	require.NoError(t, err)

	related, err := repo.OpenByRootCause(ctx, parent.TenantID, "storm-42")
	require.NoError(t, err)
	require.Len(t, related, 2)

	children, err := repo.OpenChildren(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, child.ID, children[0].ID)
}

func TestAlertRepo_UpdateMissing(t *testing.T) {
	repo := repository.NewAlertRepo(tcPool)
	ctx := context.Background()

	ghost := newAlert(t, domain.AlertCostOverrun)
	ghost.ID = 1 << 40
	require.Error(t, repo.Update(ctx, ghost))
}
