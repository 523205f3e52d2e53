package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hos-route-coordinator/internal/domain"
)

// SettingsRepo persists per-tenant alert configurations. The configuration
// body is stored as a single JSONB document; tenants without a row fall back
// to the built-in defaults at the provider layer.
type SettingsRepo struct {
	db *pgxpool.Pool
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// AlertConfiguration returns the stored configuration for a tenant, nil when
// the tenant has none.
func (r *SettingsRepo) AlertConfiguration(ctx context.Context, tenantID string) (*domain.AlertConfiguration, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `
        SELECT config FROM tenant_alert_settings WHERE tenant_id = $1
    `, tenantID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select alert settings %q: %w", tenantID, err)
	}

	var cfg domain.AlertConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal alert settings %q: %w", tenantID, err)
	}
	cfg.TenantID = tenantID
	return &cfg, nil
}

// Save upserts a tenant's configuration.
func (r *SettingsRepo) Save(ctx context.Context, cfg domain.AlertConfiguration) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal alert settings %q: %w", cfg.TenantID, err)
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO tenant_alert_settings (tenant_id, config, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id) DO UPDATE SET config = EXCLUDED.config, updated_at = EXCLUDED.updated_at
    `, cfg.TenantID, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert alert settings %q: %w", cfg.TenantID, err)
	}
	return nil
}
