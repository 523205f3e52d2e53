package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hos-route-coordinator/internal/domain"
)

// AlertRepo persists monitoring alerts. A partial unique index on
// (driver_id, type) over open statuses makes create-or-refresh atomic, so two
// workers evaluating the same condition cannot produce duplicate alerts.
type AlertRepo struct {
	db *pgxpool.Pool
}

// NewAlertRepo creates a new AlertRepo.
func NewAlertRepo(db *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{db: db}
}

const alertColumns = `
    id, tenant_id, driver_id, plan_id, vehicle_id, type, category, priority,
    status, message, parent_alert_id, root_cause_key, escalation_level,
    created_at, updated_at, acknowledged_at, snoozed_until, resolved_at`

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(
		&a.ID, &a.TenantID, &a.DriverID, &a.PlanID, &a.VehicleID, &a.Type,
		&a.Category, &a.Priority, &a.Status, &a.Message, &a.ParentAlertID,
		&a.RootCauseKey, &a.EscalationLevel, &a.CreatedAt, &a.UpdatedAt,
		&a.AcknowledgedAt, &a.SnoozedUntil, &a.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns an alert by ID, nil when it does not exist.
func (r *AlertRepo) Get(ctx context.Context, id int64) (*domain.Alert, error) {
	a, err := scanAlert(r.db.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert %d: %w", id, err)
	}
	return a, nil
}

func (r *AlertRepo) queryOpen(ctx context.Context, where string, args ...any) ([]domain.Alert, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+alertColumns+`
        FROM alerts
        WHERE status IN ('active', 'acknowledged', 'snoozed') AND `+where+`
        ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// OpenByDriver returns a driver's open alerts.
func (r *AlertRepo) OpenByDriver(ctx context.Context, tenantID, driverID string) ([]domain.Alert, error) {
	out, err := r.queryOpen(ctx, `tenant_id = $1 AND driver_id = $2`, tenantID, driverID)
	if err != nil {
		return nil, fmt.Errorf("open alerts for driver %q: %w", driverID, err)
	}
	return out, nil
}

// OpenByRootCause returns the open alerts sharing an external root cause.
func (r *AlertRepo) OpenByRootCause(ctx context.Context, tenantID, key string) ([]domain.Alert, error) {
	out, err := r.queryOpen(ctx, `tenant_id = $1 AND root_cause_key = $2`, tenantID, key)
	if err != nil {
		return nil, fmt.Errorf("open alerts for root cause %q: %w", key, err)
	}
	return out, nil
}

// OpenChildren returns the open alerts grouped under a parent.
func (r *AlertRepo) OpenChildren(ctx context.Context, parentID int64) ([]domain.Alert, error) {
	out, err := r.queryOpen(ctx, `parent_alert_id = $1`, parentID)
	if err != nil {
		return nil, fmt.Errorf("open children of alert %d: %w", parentID, err)
	}
	return out, nil
}

// Create inserts a new alert. The table keeps at most one open row per
// (driver, type): a conflicting insert collapses into a refresh of the open
// row's message, and Create reports whether a new row was actually inserted.
// On a collapse the open row's id and created_at are written back to a.
func (r *AlertRepo) Create(ctx context.Context, a *domain.Alert) (bool, error) {
	var inserted bool
	err := r.db.QueryRow(ctx, `
        INSERT INTO alerts (
            tenant_id, driver_id, plan_id, vehicle_id, type, category,
            priority, status, message, parent_alert_id, root_cause_key,
            escalation_level, created_at, updated_at, snoozed_until
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (driver_id, type) WHERE status IN ('active', 'acknowledged', 'snoozed')
        DO UPDATE SET message = EXCLUDED.message, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, (xmax = 0)
    `, a.TenantID, a.DriverID, a.PlanID, a.VehicleID, string(a.Type), string(a.Category),
		string(a.Priority), string(a.Status), a.Message, a.ParentAlertID, a.RootCauseKey,
		a.EscalationLevel, a.CreatedAt, a.UpdatedAt, a.SnoozedUntil,
	).Scan(&a.ID, &a.CreatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("create alert %s for driver %q: %w", a.Type, a.DriverID, err)
	}
	return inserted, nil
}

// Update rewrites a mutable alert row.
func (r *AlertRepo) Update(ctx context.Context, a *domain.Alert) error {
	ct, err := r.db.Exec(ctx, `
        UPDATE alerts
        SET status = $2, message = $3, priority = $4, escalation_level = $5,
            updated_at = $6, acknowledged_at = $7, snoozed_until = $8, resolved_at = $9
        WHERE id = $1
    `, a.ID, string(a.Status), a.Message, string(a.Priority), a.EscalationLevel,
		a.UpdatedAt, a.AcknowledgedAt, a.SnoozedUntil, a.ResolvedAt)
	if err != nil {
		return fmt.Errorf("update alert %d: %w", a.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("alert %d not found", a.ID)
	}
	return nil
}
