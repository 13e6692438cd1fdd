package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

// SystemActor drives scheduled maintenance such as periodic balancing.
var SystemActor = domain.Actor{ID: "system:balancer", Role: domain.RoleAdmin}

func requireActor(actor domain.Actor) error {
	if strings.TrimSpace(actor.ID) == "" || !actor.Role.Valid() {
		return apperrors.NewUnauthorized("actor id and role required")
	}
	return nil
}

// emit publishes after commit. A failed emission is logged and counted;
// the change it reports is already durable.
func emit(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		metrics.RecordEmitFailure(string(event.Type))
		logger.Warn("event emission failed",
			zap.String("event_type", string(event.Type)),
			zap.String("complaint_id", event.ComplaintID),
			zap.Error(err))
	}
}

func eventNames(evs []domain.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = string(e)
	}
	return out
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return apperrors.ToDomainError(err).Code
}
