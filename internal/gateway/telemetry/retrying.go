package telemetry

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
	"hos-route-coordinator/internal/service/monitor"
)

type counter interface {
	Inc()
}

// RetryConfig tunes the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig retries twice with exponential backoff from 100ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
}

// RetryingSource decorates a telemetry source with bounded exponential-backoff
// retries on transient transport failures. Non-retryable errors pass through
// on the first attempt.
type RetryingSource struct {
	next    monitor.TelemetrySource
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingSource wraps next; returns nil when next is nil.
func NewRetryingSource(next monitor.TelemetrySource, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingSource {
	if next == nil {
		return nil
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RetryingSource{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Fetch retrieves one observation, retrying transient failures.
func (s *RetryingSource) Fetch(ctx context.Context, plan domain.RoutePlan) (monitor.Telemetry, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		tel, err := s.next.Fetch(ctx, plan)
		if err == nil {
			return tel, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == s.cfg.MaxAttempts || !isRetryable(err) {
			break
		}
		delay := backoff(s.cfg.BaseDelay, s.cfg.MaxDelay, attempt)
		if s.retries != nil {
			s.retries.Inc()
		}
		s.logger.Warn("telemetry fetch retry",
			logx.String("plan_id", plan.ID),
			logx.String("driver_id", plan.DriverID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Any("err", err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return monitor.Telemetry{}, lastErr
}

func isRetryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.ResourceExhausted,
		codes.Unavailable,
		codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
