package workflow

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paydeck/paydeck/pkg/decision"
	"github.com/paydeck/paydeck/pkg/eventbus"
	"github.com/paydeck/paydeck/pkg/events"
	"github.com/paydeck/paydeck/pkg/mocks"
	"github.com/paydeck/paydeck/pkg/models"
	"github.com/paydeck/paydeck/pkg/provenance"
)

func newMockedOrchestrator(t *testing.T, repo *mocks.MockExecutionRepository, bus *mocks.MockEventBus, thresholdCents int64) *Orchestrator {
	t.Helper()

	orchestrator, err := NewOrchestrator(
		repo,
		decision.NewEngine(),
		&fakeSettler{},
		provenance.NewRecorder(provenance.DefaultVersions()),
		bus,
		fakeNotifier{},
		decision.Config{ApprovalThresholdCents: thresholdCents},
		slog.Default(),
	)
	require.NoError(t, err)

	return orchestrator
}

func TestRunSuspendPersistFailureSurfaces(t *testing.T) {
	repo := &mocks.MockExecutionRepository{}
	bus := &mocks.MockEventBus{}
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("store unavailable"))

	orchestrator := newMockedOrchestrator(t, repo, bus, 100_000)

	_, err := orchestrator.Run(context.Background(), payrollInput(200_000, walletA))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")

	repo.AssertExpectations(t)
	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunPublishesCompletionOnBus(t *testing.T) {
	repo := &mocks.MockExecutionRepository{}
	bus := &mocks.MockEventBus{}
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	orchestrator := newMockedOrchestrator(t, repo, bus, 10_000_000)

	execution, err := orchestrator.Run(context.Background(), payrollInput(100_000, walletA))
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusCompleted, execution.Status)

	repo.AssertCalled(t, "Save", mock.Anything, execution)
	bus.AssertCalled(t, "Publish", mock.Anything, execution.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.ExecutionCompletedEvent
	}))
}
