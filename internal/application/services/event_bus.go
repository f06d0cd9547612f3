package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/events"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
)

// EventType is an alias to the domain type
type EventType = events.EventType

// RequestEventPayload is the payload carried by request lifecycle events
type RequestEventPayload struct {
	Request   *models.Request     `json:"request"`
	Action    string              `json:"action,omitempty"`
	FromStep  *string             `json:"from_step,omitempty"`
	ToStep    *string             `json:"to_step,omitempty"`
	NextRole  string              `json:"next_role,omitempty"`
	Actor     *models.UserSession `json:"actor,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// EventHandler is a function that handles an event.
type EventHandler = ports.EventHandler

// EventBus manages the in-process publish-subscribe event system.
type EventBus struct {
	handlers map[EventType][]EventHandler
	mu       sync.RWMutex
}

// Ensure EventBus implements ports.EventPublisher at compile time
var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a new EventBus instance
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
// Returns an unsubscribe function
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)

	// Clear the slot instead of splicing the slice: earlier unsubscribes
	// must not shift the indexes captured by later ones.
	idx := len(eb.handlers[eventType]) - 1
	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()

		handlers := eb.handlers[eventType]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}
}

// Publish publishes an event to all registered handlers in sequence
func (eb *EventBus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.handlers[eventType]))
	for _, handler := range eb.handlers[eventType] {
		if handler != nil {
			handlers = append(handlers, handler)
		}
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, payload); err != nil {
			return fmt.Errorf("event handler error for %s: %w", eventType, err)
		}
	}

	return nil
}

// PublishAsync publishes an event asynchronously. Lifecycle events are
// decoupled from the request transaction, so a background context is used.
func (eb *EventBus) PublishAsync(eventType EventType, payload interface{}) {
	go func() {
		if err := eb.Publish(context.Background(), eventType, payload); err != nil {
			log.Printf("⚠️ EventBus async publish error: %v", err)
		}
	}()
}

// Clear removes all handlers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers = make(map[EventType][]EventHandler)
}
