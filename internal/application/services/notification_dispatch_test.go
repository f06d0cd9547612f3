package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/events"
	"github.com/alhafibarefoot/HelpDesk-sub002/internal/domain/models"
	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

func TestEventBus_PublishReachesSubscribers(t *testing.T) {
	bus := NewEventBus()

	var got []string
	bus.Subscribe(events.RequestSubmitted, func(_ context.Context, payload interface{}) error {
		p := payload.(RequestEventPayload)
		got = append(got, p.Request.ID)
		return nil
	})

	err := bus.Publish(context.Background(), events.RequestSubmitted, RequestEventPayload{
		Request: &models.Request{ID: "r1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, got)

	// Other event types do not reach this handler
	err = bus.Publish(context.Background(), events.RequestSLABreached, RequestEventPayload{
		Request: &models.Request{ID: "r2"},
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNotificationDispatcher_NotifiesNextRoleAndRequester(t *testing.T) {
	bus := NewEventBus()
	notifier := newFakeNotifier()
	NewNotificationDispatcher(bus, notifier)

	step := "review"
	err := bus.Publish(context.Background(), events.RequestSubmitted, RequestEventPayload{
		Request:   &models.Request{ID: "r1", Status: constants.RequestStatusNew, CurrentStepID: &step},
		NextRole:  "manager",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, notifier.sentCount())
	assert.Contains(t, notifier.sent[0], "manager: ")

	err = bus.Publish(context.Background(), events.RequestTransitioned, RequestEventPayload{
		Request: &models.Request{ID: "r1", RequesterID: "u-emp", Status: constants.RequestStatusCompleted},
	})
	require.NoError(t, err)
	require.Equal(t, 2, notifier.sentCount())
	assert.Contains(t, notifier.sent[1], "u-emp: ")
}

func TestNotificationDispatcher_DeliveryFailureIsSwallowed(t *testing.T) {
	bus := NewEventBus()
	notifier := newFakeNotifier()
	notifier.failFor["manager"] = assert.AnError
	NewNotificationDispatcher(bus, notifier)

	step := "review"
	err := bus.Publish(context.Background(), events.RequestSubmitted, RequestEventPayload{
		Request:  &models.Request{ID: "r1", Status: constants.RequestStatusNew, CurrentStepID: &step},
		NextRole: "manager",
	})
	assert.NoError(t, err, "lifecycle notification failures must not propagate")
}
