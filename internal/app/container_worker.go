package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"hos-route-coordinator/internal/config"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/gateway/settings"
	"hos-route-coordinator/internal/gateway/telemetry"
	"hos-route-coordinator/internal/logx"
	"hos-route-coordinator/internal/repository"
	"hos-route-coordinator/internal/service/monitor"
	"hos-route-coordinator/internal/service/planner"
	"hos-route-coordinator/internal/transport/kafka"
)

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(r *repository.SettingsRepo) settings.Store { return r },
		func(svc *planner.Service) monitor.PlanSource { return svc },
		func(svc *planner.Service) monitor.Replanner { return svc },
		newRedisClient,
		newSettingsProvider,
		func(p *settings.Provider) monitor.SettingsSource { return p },
		newTelemetrySource,
		newMonitorLoop,
		newTriggerConsumer,
	)
}

// newRedisClient returns nil when the settings cache is not configured.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Settings.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: cfg.Settings.RedisAddr})
}

func newSettingsProvider(cfg *config.Config, store settings.Store, client *redis.Client, logger logx.Logger) *settings.Provider {
	var cmdable redis.Cmdable
	if client != nil {
		cmdable = client
	}
	return settings.NewProvider(store, cmdable, logger, cfg.Settings.CacheTTL)
}

type telemetryIn struct {
	dig.In

	Cfg     *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"telemetry_retries_total"`
}

func newTelemetrySource(in telemetryIn) (monitor.TelemetrySource, error) {
	base := telemetry.NewHTTPSource(in.Cfg.Telemetry.BaseURL, nil)
	if base == nil {
		return nil, fmt.Errorf("TELEMETRY_BASE_URL is not configured")
	}
	return telemetry.NewRetryingSource(base, in.Logger, in.Retries, telemetry.RetryConfig{
		MaxAttempts: in.Cfg.Telemetry.MaxAttempts,
		BaseDelay:   in.Cfg.Telemetry.BaseDelay,
		MaxDelay:    in.Cfg.Telemetry.MaxDelay,
	}), nil
}

type loopIn struct {
	dig.In

	Cfg       *config.Config
	Plans     monitor.PlanSource
	Telemetry monitor.TelemetrySource
	Settings  monitor.SettingsSource
	Engine    *monitor.Engine
	Replanner monitor.Replanner
	Logger    logx.Logger
	Skips     prometheus.Counter `name:"monitor_tick_skips_total"`
}

func newMonitorLoop(in loopIn) *monitor.Loop {
	cfg := monitor.LoopConfig{
		TickInterval:     in.Cfg.Monitor.TickInterval,
		WorkerPool:       in.Cfg.Monitor.WorkerPool,
		TelemetryTimeout: in.Cfg.Monitor.TelemetryTimeout,
		Rules:            domain.DefaultHOSRules(),
	}
	return monitor.NewLoop(cfg, in.Plans, in.Telemetry, in.Settings, in.Engine, in.Replanner, in.Logger, in.Skips)
}

// newTriggerConsumer returns a nil consumer when no brokers are configured;
// the worker then runs monitoring only.
func newTriggerConsumer(cfg *config.Config, logger logx.Logger, svc *planner.Service) (*kafka.Consumer, error) {
	return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, makeTriggerHandler(svc))
}
