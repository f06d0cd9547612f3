package services

import (
	"context"
	"fmt"
	"log"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/events"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/ports"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

// NotificationDispatcher turns request lifecycle events into fire-and-forget
// notifications: the next step's role is told a request awaits them, the
// requester is told the outcome. Escalation notifications are NOT handled
// here; the sweep delivers those directly so they stay exactly-once.
type NotificationDispatcher struct {
	notifier ports.Notifier
}

// NewNotificationDispatcher creates a dispatcher and subscribes it to the bus
func NewNotificationDispatcher(bus ports.EventPublisher, notifier ports.Notifier) *NotificationDispatcher {
	d := &NotificationDispatcher{notifier: notifier}
	bus.Subscribe(events.RequestSubmitted, d.handleLifecycleEvent)
	bus.Subscribe(events.RequestTransitioned, d.handleLifecycleEvent)
	return d
}

func (d *NotificationDispatcher) handleLifecycleEvent(ctx context.Context, payload interface{}) error {
	p, ok := payload.(RequestEventPayload)
	if !ok || p.Request == nil {
		return nil
	}

	// A pending step: tell the role that owns it
	if p.NextRole != "" && p.Request.CurrentStepID != nil {
		msg := fmt.Sprintf("Request %s is awaiting your action at step '%s'", p.Request.ID, *p.Request.CurrentStepID)
		if err := d.notifier.Notify(ctx, p.NextRole, msg); err != nil {
			log.Printf("⚠️ Notification to role '%s' failed: %v", p.NextRole, err)
		}
	}

	// Terminal outcome: tell the requester
	switch p.Request.Status {
	case constants.RequestStatusCompleted, constants.RequestStatusRejected:
		msg := fmt.Sprintf("Your request %s was %s", p.Request.ID, p.Request.Status)
		if err := d.notifier.Notify(ctx, p.Request.RequesterID, msg); err != nil {
			log.Printf("⚠️ Notification to requester '%s' failed: %v", p.Request.RequesterID, err)
		}
	}

	// Delivery failures are logged, never propagated: lifecycle
	// notifications are best-effort by contract
	return nil
}
