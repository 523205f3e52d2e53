package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
)

// Store is the authoritative per-tenant configuration backend, typically the
// Settings collaborator's database.
type Store interface {
	AlertConfiguration(ctx context.Context, tenantID string) (*domain.AlertConfiguration, error)
}

// Provider serves alert configurations from a short-TTL redis cache in front
// of the settings store. A tenant with no stored configuration, or any backend
// failure, resolves to the built-in defaults so a tick never fails on
// configuration.
type Provider struct {
	store  Store
	client redis.Cmdable
	logger logx.Logger
	ttl    time.Duration
}

// NewProvider wires the cached provider. The redis client may be nil, which
// disables caching.
func NewProvider(store Store, client redis.Cmdable, logger logx.Logger, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Provider{store: store, client: client, logger: logger, ttl: ttl}
}

func cacheKey(tenantID string) string {
	return "alertcfg:" + tenantID
}

// AlertConfig returns the tenant configuration: cache, then store, then the
// built-in defaults.
func (p *Provider) AlertConfig(ctx context.Context, tenantID string) (domain.AlertConfiguration, error) {
	if cfg, ok := p.fromCache(ctx, tenantID); ok {
		return cfg, nil
	}

	stored, err := p.store.AlertConfiguration(ctx, tenantID)
	if err != nil {
		p.logger.Warn("settings store unavailable, using defaults",
			logx.String("tenant_id", tenantID),
			logx.Any("err", err),
		)
		return domain.DefaultAlertConfiguration(tenantID), nil
	}

	cfg := domain.DefaultAlertConfiguration(tenantID)
	if stored != nil {
		cfg = *stored
	}
	p.toCache(ctx, tenantID, cfg)
	return cfg, nil
}

// Invalidate drops a tenant's cached configuration, forcing the next tick to
// re-read the store.
func (p *Provider) Invalidate(ctx context.Context, tenantID string) error {
	if p.client == nil {
		return nil
	}
	if err := p.client.Del(ctx, cacheKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("settings cache invalidate: %w", err)
	}
	return nil
}

func (p *Provider) fromCache(ctx context.Context, tenantID string) (domain.AlertConfiguration, bool) {
	if p.client == nil {
		return domain.AlertConfiguration{}, false
	}
	raw, err := p.client.Get(ctx, cacheKey(tenantID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("settings cache read failed",
				logx.String("tenant_id", tenantID),
				logx.Any("err", err),
			)
		}
		return domain.AlertConfiguration{}, false
	}
	var cfg domain.AlertConfiguration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.AlertConfiguration{}, false
	}
	return cfg, true
}

func (p *Provider) toCache(ctx context.Context, tenantID string, cfg domain.AlertConfiguration) {
	if p.client == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := p.client.Set(ctx, cacheKey(tenantID), raw, p.ttl).Err(); err != nil {
		p.logger.Warn("settings cache write failed",
			logx.String("tenant_id", tenantID),
			logx.Any("err", err),
		)
	}
}
