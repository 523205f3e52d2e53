package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/service/monitor"
)

// telemetryDTO is the Fleet collaborator's wire form of one observation.
type telemetryDTO struct {
	DriverID            string    `json:"driver_id"`
	Lat                 float64   `json:"lat"`
	Lon                 float64   `json:"lon"`
	SpeedMPH            float64   `json:"speed_mph"`
	MinutesSinceMove    float64   `json:"minutes_since_move"`
	HoursDriven         float64   `json:"hours_driven"`
	OnDutyHours         float64   `json:"on_duty_hours"`
	HoursSinceBreak     float64   `json:"hours_since_break"`
	CycleHoursUsed      *float64  `json:"cycle_hours_used,omitempty"`
	ETADeviationMinutes float64   `json:"eta_deviation_minutes"`
	FuelLevelRatio      float64   `json:"fuel_level_ratio"`
	AtStopID            string    `json:"at_stop_id,omitempty"`
	DockMinutesElapsed  float64   `json:"dock_minutes_elapsed"`
	CompletedStopIDs    []string  `json:"completed_stop_ids,omitempty"`
	CostToDateRatio     float64   `json:"cost_to_date_ratio"`
	RootCauseKey        string    `json:"root_cause_key,omitempty"`
	ObservedAt          time.Time `json:"observed_at"`
}

// HTTPSource fetches observations from the Fleet telemetry REST endpoint.
// HTTP failures are surfaced as gRPC status codes so the retry decorator can
// classify them uniformly.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a telemetry source for the given base URL; returns
// nil when the URL is empty (telemetry unconfigured).
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if baseURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, client: client}
}

// Fetch returns the driver's latest observation for the given plan.
func (s *HTTPSource) Fetch(ctx context.Context, plan domain.RoutePlan) (monitor.Telemetry, error) {
	endpoint := fmt.Sprintf("%s/drivers/%s/telemetry?plan_id=%s",
		s.baseURL, url.PathEscape(plan.DriverID), url.QueryEscape(plan.ID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return monitor.Telemetry{}, fmt.Errorf("telemetry request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return monitor.Telemetry{}, status.Error(codes.DeadlineExceeded, "telemetry fetch timed out")
		}
		return monitor.Telemetry{}, status.Errorf(codes.Unavailable, "telemetry fetch: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return monitor.Telemetry{}, statusError(resp.StatusCode)
	}

	var dto telemetryDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return monitor.Telemetry{}, fmt.Errorf("decode telemetry for driver %q: %w", plan.DriverID, err)
	}
	return toTelemetry(dto), nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return status.Error(codes.ResourceExhausted, "telemetry rate limited")
	case code == http.StatusNotFound:
		return status.Error(codes.NotFound, "no telemetry for driver")
	case code >= 500:
		return status.Errorf(codes.Unavailable, "telemetry backend status %d", code)
	default:
		return status.Errorf(codes.Unknown, "telemetry backend status %d", code)
	}
}

func toTelemetry(dto telemetryDTO) monitor.Telemetry {
	return monitor.Telemetry{
		DriverID:         dto.DriverID,
		Lat:              dto.Lat,
		Lon:              dto.Lon,
		SpeedMPH:         dto.SpeedMPH,
		MinutesSinceMove: dto.MinutesSinceMove,
		HOS: domain.DriverState{
			DriverID:        dto.DriverID,
			HoursDriven:     dto.HoursDriven,
			OnDutyHours:     dto.OnDutyHours,
			HoursSinceBreak: dto.HoursSinceBreak,
			CycleHoursUsed:  dto.CycleHoursUsed,
		},
		ETADeviationMinutes: dto.ETADeviationMinutes,
		FuelLevelRatio:      dto.FuelLevelRatio,
		AtStopID:            dto.AtStopID,
		DockMinutesElapsed:  dto.DockMinutesElapsed,
		CompletedStopIDs:    dto.CompletedStopIDs,
		CostToDateRatio:     dto.CostToDateRatio,
		RootCauseKey:        dto.RootCauseKey,
		ObservedAt:          dto.ObservedAt,
	}
}
