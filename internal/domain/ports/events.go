package ports

import (
	"context"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/events"
)

// EventHandler is a function that handles an event
type EventHandler func(ctx context.Context, payload interface{}) error

// EventPublisher provides in-process event publishing capabilities.
type EventPublisher interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType events.EventType, handler EventHandler) func()

	// Publish dispatches an event to all registered handlers.
	Publish(ctx context.Context, eventType events.EventType, payload interface{}) error

	// PublishAsync dispatches an event without waiting for handlers.
	PublishAsync(eventType events.EventType, payload interface{})
}
