package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
)

// PlanRepo persists route plans and their immutable version history. The
// plans row carries the mutable head (status, current version); every version
// body lives in plan_versions and is never rewritten.
type PlanRepo struct {
	db *pgxpool.Pool
}

// NewPlanRepo creates a new PlanRepo.
func NewPlanRepo(db *pgxpool.Pool) *PlanRepo {
	return &PlanRepo{db: db}
}

// Create stores version 1 of a new plan.
func (r *PlanRepo) Create(ctx context.Context, plan *domain.RoutePlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan %q: %w", plan.ID, err)
	}
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO plans (id, tenant_id, driver_id, vehicle_id, status, current_version)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, plan.ID, plan.TenantID, plan.DriverID, plan.VehicleID, string(plan.Status), plan.Version)
		if err != nil {
			if IsDuplicate(err) {
				return apperr.Conflict
			}
			return fmt.Errorf("insert plan %q: %w", plan.ID, err)
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO plan_versions (plan_id, version, payload, created_at)
            VALUES ($1, $2, $3, $4)
        `, plan.ID, plan.Version, payload, plan.CreatedAt); err != nil {
			return fmt.Errorf("insert plan version %q/%d: %w", plan.ID, plan.Version, err)
		}
		return nil
	})
}

// Get returns the current version of a plan, nil when it does not exist.
func (r *PlanRepo) Get(ctx context.Context, id string) (*domain.RoutePlan, error) {
	row := r.db.QueryRow(ctx, `
        SELECT p.status, v.payload
        FROM plans p
        JOIN plan_versions v ON v.plan_id = p.id AND v.version = p.current_version
        WHERE p.id = $1
    `, id)
	return scanPlan(row, fmt.Sprintf("get plan %q", id))
}

// GetVersion returns one retained version of a plan, nil when absent.
func (r *PlanRepo) GetVersion(ctx context.Context, id string, version int64) (*domain.RoutePlan, error) {
	row := r.db.QueryRow(ctx, `
        SELECT p.status, v.payload
        FROM plan_versions v
        JOIN plans p ON p.id = v.plan_id
        WHERE v.plan_id = $1 AND v.version = $2
    `, id, version)
	return scanPlan(row, fmt.Sprintf("get plan %q version %d", id, version))
}

// ListActive returns the current versions of all ACTIVE plans.
func (r *PlanRepo) ListActive(ctx context.Context) ([]domain.RoutePlan, error) {
	rows, err := r.db.Query(ctx, `
        SELECT p.status, v.payload
        FROM plans p
        JOIN plan_versions v ON v.plan_id = p.id AND v.version = p.current_version
        WHERE p.status = $1
        ORDER BY p.id
    `, string(domain.PlanActive))
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	defer rows.Close()

	var out []domain.RoutePlan
	for rows.Next() {
		var (
			status  string
			payload []byte
		)
		if err := rows.Scan(&status, &payload); err != nil {
			return nil, err
		}
		var plan domain.RoutePlan
		if err := json.Unmarshal(payload, &plan); err != nil {
			return nil, fmt.Errorf("unmarshal plan payload: %w", err)
		}
		plan.Status = domain.PlanStatus(status)
		out = append(out, plan)
	}
	return out, rows.Err()
}

// UpdateStatus moves the plan head from one status to another. A missing plan
// is NotFound; a plan in any other status is Conflict.
func (r *PlanRepo) UpdateStatus(ctx context.Context, id string, from, to domain.PlanStatus) error {
	ct, err := r.db.Exec(ctx, `
        UPDATE plans
        SET status = $3, updated_at = now()
        WHERE id = $1 AND status = $2
    `, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update plan %q status: %w", id, err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRow(ctx, `SELECT status FROM plans WHERE id = $1`, id).Scan(&current)
	if IsNotFound(err) {
		return apperr.NotFound
	}
	if err != nil {
		return fmt.Errorf("diagnose plan %q status: %w", id, err)
	}
	return apperr.Conflict
}

// CommitVersion appends the next version under a compare-and-set on the
// current head: the plan must still be ACTIVE and at baseVersion, otherwise
// nothing is written.
func (r *PlanRepo) CommitVersion(ctx context.Context, plan *domain.RoutePlan, baseVersion int64) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan %q: %w", plan.ID, err)
	}
	return r.withTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
            UPDATE plans
            SET current_version = $3, updated_at = now()
            WHERE id = $1 AND status = $2 AND current_version = $4
        `, plan.ID, string(domain.PlanActive), plan.Version, baseVersion)
		if err != nil {
			return fmt.Errorf("advance plan %q head: %w", plan.ID, err)
		}
		if ct.RowsAffected() == 0 {
			return r.diagnoseCommit(ctx, tx, plan.ID, baseVersion)
		}
		if _, err := tx.Exec(ctx, `
            INSERT INTO plan_versions (plan_id, version, payload, created_at)
            VALUES ($1, $2, $3, $4)
        `, plan.ID, plan.Version, payload, plan.CreatedAt); err != nil {
			return fmt.Errorf("insert plan version %q/%d: %w", plan.ID, plan.Version, err)
		}
		return nil
	})
}

func (r *PlanRepo) diagnoseCommit(ctx context.Context, tx pgx.Tx, id string, baseVersion int64) error {
	var (
		status  string
		version int64
	)
	err := tx.QueryRow(ctx, `SELECT status, current_version FROM plans WHERE id = $1`, id).Scan(&status, &version)
	if IsNotFound(err) {
		return apperr.NotFound
	}
	if err != nil {
		return fmt.Errorf("diagnose plan %q commit: %w", id, err)
	}
	if domain.PlanStatus(status) != domain.PlanActive {
		return apperr.Conflict
	}
	if version != baseVersion {
		return apperr.StaleVersion
	}
	return apperr.Conflict
}

func (r *PlanRepo) withTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type planRow interface {
	Scan(dest ...any) error
}

func scanPlan(row planRow, op string) (*domain.RoutePlan, error) {
	var (
		status  string
		payload []byte
	)
	if err := row.Scan(&status, &payload); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var plan domain.RoutePlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("%s: unmarshal payload: %w", op, err)
	}
	plan.Status = domain.PlanStatus(status)
	return &plan, nil
}
