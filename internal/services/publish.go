package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/student-portal-service/internal/events"
)

// eventEmitter publishes domain events. A failed publish is logged and never
// reaches the caller.
type eventEmitter struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func newEventEmitter(publisher events.EventPublisher, logger *slog.Logger) eventEmitter {
	return eventEmitter{publisher: publisher, logger: logger}
}

func (e eventEmitter) emit(ctx context.Context, eventType events.EventType, data interface{}, actor *Actor) {
	if e.publisher == nil {
		return
	}
	event := events.NewDomainEvent(eventType, data)
	if actor != nil && !actor.ID.IsZero() {
		event.WithMetadata("actor_id", actor.IDString())
	}
	if requestID := RequestIDFrom(ctx); requestID != "" {
		event.WithMetadata("request_id", requestID)
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish domain event",
			"event_type", eventType,
			"event_id", event.ID,
			"error", err)
	}
}
