package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "test_db",
}

var defaultKafka = Kafka{
	GroupID: "route-coordinator",
	Topic:   "route-triggers",
}

var defaultMonitor = Monitor{
	TickInterval:     60 * time.Second,
	WorkerPool:       8,
	TelemetryTimeout: 5 * time.Second,
}

var defaultSettings = Settings{
	CacheTTL: 30 * time.Second,
}

var defaultTelemetry = Telemetry{
	BaseURL:     "",
	MaxAttempts: 3,
	BaseDelay:   100 * time.Millisecond,
	MaxDelay:    time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       50,
	Burst:      100,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultKafka returns the default trigger consumer settings.
func DefaultKafka() Kafka {
	return defaultKafka
}

// DefaultMonitor returns the default monitoring loop settings.
func DefaultMonitor() Monitor {
	return defaultMonitor
}

// DefaultSettings returns the default alert-settings cache settings.
func DefaultSettings() Settings {
	return defaultSettings
}

// DefaultTelemetry returns the default telemetry retry settings.
func DefaultTelemetry() Telemetry {
	return defaultTelemetry
}

// DefaultRateLimit returns the default HTTP rate limit settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}

// DefaultPprof returns the default pprof settings (disabled).
func DefaultPprof() Pprof {
	return Pprof{Addr: "127.0.0.1:6060"}
}
