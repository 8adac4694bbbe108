package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/channels/gochannel"
	"github.com/paydeck/paydeck/pkg/eventbus"
	"github.com/paydeck/paydeck/pkg/events"
	"github.com/paydeck/paydeck/pkg/models"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	publisher, subscriber, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(publisher, subscriber)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestPublishAndSubscribeRoundtrip(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ExecutionCompleted, 1)

	err := bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event interface{}) error {
		completed, ok := event.(*events.ExecutionCompleted)
		require.True(t, ok)

		received <- completed

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	published := events.ExecutionCompleted{
		BaseEvent:       events.NewBaseEvent(events.ExecutionCompletedEvent, "exec-1", models.WorkflowTypePayrollApproval),
		TransactionHash: "0xabc",
		TotalPaidCents:  250_000,
		EmployeeCount:   2,
	}

	require.NoError(t, bus.Publish(ctx, "exec-1", published))

	select {
	case completed := <-received:
		assert.Equal(t, "exec-1", completed.ExecutionID)
		assert.Equal(t, models.WorkflowTypePayrollApproval, completed.WorkflowType)
		assert.Equal(t, "0xabc", completed.TransactionHash)
		assert.Equal(t, int64(250_000), completed.TotalPaidCents)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestSubscribeIgnoresUnhandledEventTypes(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.ExecutionRejected, 1)

	err := bus.Handle(events.ExecutionRejectedEvent, func(_ context.Context, event interface{}) error {
		received <- event.(*events.ExecutionRejected)

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for paused events; it is acknowledged and dropped.
	paused := events.ExecutionPaused{
		BaseEvent:       events.NewBaseEvent(events.ExecutionPausedEvent, "exec-1", models.WorkflowTypePayrollApproval),
		ReviewRequestID: "review-1",
	}
	require.NoError(t, bus.Publish(ctx, "exec-1", paused))

	rejected := events.ExecutionRejected{
		BaseEvent: events.NewBaseEvent(events.ExecutionRejectedEvent, "exec-2", models.WorkflowTypePayrollApproval),
		Reason:    "invalid wallet address",
	}
	require.NoError(t, bus.Publish(ctx, "exec-2", rejected))

	select {
	case event := <-received:
		assert.Equal(t, "exec-2", event.ExecutionID)
		assert.Equal(t, "invalid wallet address", event.Reason)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestGenerateIDIsUnique(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
