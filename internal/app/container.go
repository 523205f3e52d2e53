package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"hos-route-coordinator/internal/config"
	"hos-route-coordinator/internal/http/handlers"
	"hos-route-coordinator/internal/http/middleware/ratelimit"
	"hos-route-coordinator/internal/http/pprofserver"
	"hos-route-coordinator/internal/http/router"
	"hos-route-coordinator/internal/logx"
	"hos-route-coordinator/internal/repository"
	"hos-route-coordinator/internal/service/monitor"
	"hos-route-coordinator/internal/service/planner"
)

const serviceTimeout = 3 * time.Second

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
	worker    bool
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// WithWorker registers the monitoring worker providers instead of the HTTP
// server ones.
func (b *ContainerBuilder) WithWorker() *ContainerBuilder {
	b.worker = true
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := container.Provide(provideMetrics); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerDomainServices(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if b.worker {
		if err := registerWorker(container); err != nil {
			return nil, fmt.Errorf("worker: %w", err)
		}
		return container, nil
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the HTTP service container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the monitoring worker container.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().WithWorker().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() *log.Logger { return log.Default() },
		NewLogger,
		config.Load,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		repository.NewPlanRepo,
		repository.NewAlertRepo,
		repository.NewSettingsRepo,
		func(r *repository.PlanRepo) planner.PlanStore { return r },
		func(r *repository.AlertRepo) monitor.AlertStore { return r },
		newPlannerService,
		newMonitorEngine,
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	routerProvider := func(
		logger logx.Logger,
		base *handlers.Handlers,
		plans *handlers.PlanHandler,
		alerts *handlers.AlertHandler,
		limiter *ratelimit.Middleware,
	) http.Handler {
		return router.New(logger, base, plans, alerts, limiter)
	}
	return provideAll(container,
		handlers.New,
		handlers.NewPlanUsecase,
		handlers.NewPlanHandler,
		handlers.NewAlertUsecase,
		handlers.NewAlertHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		routerProvider,
		serverProvider,
		providePprofServer,
	)
}

type pprofOut struct {
	dig.Out

	Server *http.Server `name:"pprof_server"`
}

func providePprofServer(cfg *config.Config) pprofOut {
	if !cfg.Pprof.Enabled {
		return pprofOut{}
	}
	return pprofOut{Server: &http.Server{
		Addr:              cfg.Pprof.Addr,
		Handler:           pprofserver.Handler(pprofserver.Config{User: cfg.Pprof.User, Pass: cfg.Pprof.Pass}),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}
