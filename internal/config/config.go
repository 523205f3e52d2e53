package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores PostgreSQL connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores trigger consumer settings. Empty Brokers disables the
// consumer.
type Kafka struct {
	Brokers []string
	GroupID string
	Topic   string
}

// Monitor stores the monitoring loop settings.
type Monitor struct {
	TickInterval     time.Duration
	WorkerPool       int
	TelemetryTimeout time.Duration
}

// Settings stores the tenant alert-settings cache settings. Empty RedisAddr
// disables the cache.
type Settings struct {
	RedisAddr string
	CacheTTL  time.Duration
}

// Telemetry stores the telemetry gateway settings. Empty BaseURL disables
// the gateway.
type Telemetry struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimit stores HTTP rate limiting settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores the debug pprof server settings.
type Pprof struct {
	Enabled bool
	Addr    string
	User    string
	Pass    string
}

// Config stores all service settings.
type Config struct {
	Port      int
	DB        DB
	Kafka     Kafka
	Monitor   Monitor
	Settings  Settings
	Telemetry Telemetry
	RateLimit RateLimit
	Pprof     Pprof
}

// Load reads configuration in order: .env (if present), then environment, then flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      DefaultPort(),
		DB:        DefaultDB(),
		Kafka:     DefaultKafka(),
		Monitor:   DefaultMonitor(),
		Settings:  DefaultSettings(),
		Telemetry: DefaultTelemetry(),
		RateLimit: DefaultRateLimit(),
		Pprof:     DefaultPprof(),
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error

	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return err
	}

	envString("POSTGRES_HOST", &cfg.DB.Host)
	envString("POSTGRES_PORT", &cfg.DB.Port)
	envString("POSTGRES_USER", &cfg.DB.User)
	envString("POSTGRES_PASSWORD", &cfg.DB.Pass)
	envString("POSTGRES_DB", &cfg.DB.Name)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	envString("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	envString("KAFKA_TOPIC", &cfg.Kafka.Topic)

	if cfg.Monitor.TickInterval, err = envDuration("MONITOR_TICK_INTERVAL", cfg.Monitor.TickInterval); err != nil {
		return err
	}
	if cfg.Monitor.WorkerPool, err = envInt("MONITOR_WORKER_POOL", cfg.Monitor.WorkerPool); err != nil {
		return err
	}
	if cfg.Monitor.TelemetryTimeout, err = envDuration("MONITOR_TELEMETRY_TIMEOUT", cfg.Monitor.TelemetryTimeout); err != nil {
		return err
	}

	envString("REDIS_ADDR", &cfg.Settings.RedisAddr)
	if cfg.Settings.CacheTTL, err = envDuration("SETTINGS_CACHE_TTL", cfg.Settings.CacheTTL); err != nil {
		return err
	}

	envString("TELEMETRY_BASE_URL", &cfg.Telemetry.BaseURL)
	if cfg.Telemetry.MaxAttempts, err = envInt("TELEMETRY_MAX_ATTEMPTS", cfg.Telemetry.MaxAttempts); err != nil {
		return err
	}
	if cfg.Telemetry.BaseDelay, err = envDuration("TELEMETRY_BASE_DELAY", cfg.Telemetry.BaseDelay); err != nil {
		return err
	}
	if cfg.Telemetry.MaxDelay, err = envDuration("TELEMETRY_MAX_DELAY", cfg.Telemetry.MaxDelay); err != nil {
		return err
	}

	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return fmt.Errorf("invalid RATE_LIMIT_ENABLED: %q", v)
		}
		cfg.RateLimit.Enabled = b
	}
	if cfg.RateLimit.Burst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_RATE"); v != "" {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RATE: %q", v)
		}
		cfg.RateLimit.Rate = f
	}

	if v := os.Getenv("PPROF_ENABLED"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return fmt.Errorf("invalid PPROF_ENABLED: %q", v)
		}
		cfg.Pprof.Enabled = b
	}
	envString("PPROF_ADDR", &cfg.Pprof.Addr)
	envString("PPROF_USER", &cfg.Pprof.User)
	envString("PPROF_PASS", &cfg.Pprof.Pass)

	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if _, err := strconv.Atoi(c.DB.Port); err != nil {
		return fmt.Errorf("invalid postgres port: %q", c.DB.Port)
	}
	if c.Monitor.TickInterval <= 0 {
		return fmt.Errorf("invalid monitor tick interval: %v", c.Monitor.TickInterval)
	}
	if c.Monitor.WorkerPool <= 0 {
		return fmt.Errorf("invalid monitor worker pool: %d", c.Monitor.WorkerPool)
	}
	if c.Telemetry.MaxAttempts <= 0 {
		return fmt.Errorf("invalid telemetry max attempts: %d", c.Telemetry.MaxAttempts)
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return n, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
