package app

import (
	"context"
	"errors"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/service/planner"
	"hos-route-coordinator/internal/transport/kafka"
)

// makeTriggerHandler adapts the planner to the Kafka trigger stream. Errors
// that redelivery can never fix (bad payloads, unknown plans, stale base
// versions) are marked permanent so the consumer drops the event instead of
// blocking the partition.
func makeTriggerHandler(svc *planner.Service) kafka.HandleFunc {
	return func(ctx context.Context, ev kafka.TriggerEvent) error {
		_, err := svc.ApplyTriggers(ctx, ev.PlanID, ev.BaseVersion, ev.Triggers)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, apperr.Invalid),
			errors.Is(err, apperr.NotFound),
			errors.Is(err, apperr.StaleVersion),
			errors.Is(err, apperr.Conflict):
			return kafka.Permanent(err)
		default:
			return err
		}
	}
}
