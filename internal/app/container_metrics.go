package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"hos-route-coordinator/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter `name:"rate_limit_exceeded_total"`
	TelemetryRetriesTotal  prometheus.Counter `name:"telemetry_retries_total"`
	ReplansTotal           prometheus.Counter `name:"replans_total"`
	AlertsRaisedTotal      prometheus.Counter `name:"alerts_raised_total"`
	MonitorTickSkipsTotal  prometheus.Counter `name:"monitor_tick_skips_total"`
}

// provideMetrics registers the service counters and exposes them by name.
// Re-registration returns the already registered collector so repeated
// container builds share one counter.
func provideMetrics() (metricsOut, error) {
	rateLimit, err := registerCounter("rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal())
	if err != nil {
		return metricsOut{}, err
	}
	telemetryRetries, err := registerCounter("telemetry_retries_total", metrics.NewTelemetryRetriesTotal())
	if err != nil {
		return metricsOut{}, err
	}
	replans, err := registerCounter("replans_total", metrics.NewReplansTotal())
	if err != nil {
		return metricsOut{}, err
	}
	alertsRaised, err := registerCounter("alerts_raised_total", metrics.NewAlertsRaisedTotal())
	if err != nil {
		return metricsOut{}, err
	}
	tickSkips, err := registerCounter("monitor_tick_skips_total", metrics.NewMonitorTickSkipsTotal())
	if err != nil {
		return metricsOut{}, err
	}
	return metricsOut{
		RateLimitExceededTotal: rateLimit,
		TelemetryRetriesTotal:  telemetryRetries,
		ReplansTotal:           replans,
		AlertsRaisedTotal:      alertsRaised,
		MonitorTickSkipsTotal:  tickSkips,
	}, nil
}

func registerCounter(name string, c prometheus.Counter) (prometheus.Counter, error) {
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}
