package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewTelemetryRetriesTotal returns a Prometheus counter for the number of retry attempts performed by the telemetry gateway
func NewTelemetryRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_retries_total",
		Help: "Total number of retry attempts performed by the telemetry gateway",
	})
}

// NewReplansTotal returns a Prometheus counter for the number of plan versions produced by trigger application
func NewReplansTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replans_total",
		Help: "Total number of plan versions produced by trigger application",
	})
}

// NewAlertsRaisedTotal returns a Prometheus counter for the number of alerts created by the monitoring engine
func NewAlertsRaisedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alerts_raised_total",
		Help: "Total number of alerts created by the monitoring engine",
	})
}

// NewMonitorTickSkipsTotal returns a Prometheus counter for the number of monitoring ticks skipped because the previous one was still draining
func NewMonitorTickSkipsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_tick_skips_total",
		Help: "Total number of monitoring ticks skipped while the previous tick was still running",
	})
}
