package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacops/stepflow/pkg/models"
	"github.com/hvacops/stepflow/pkg/notify"
	"github.com/hvacops/stepflow/pkg/persistence/file"
)

func newSweepFixture(t *testing.T, staleAfter time.Duration) (*Notifier, *file.Persistence, *notify.MemoryDeduper) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	deduper := notify.NewMemoryDeduper()

	notifier := NewNotifier(slog.Default(), persistence, nil, deduper, Config{
		ReminderSchedule: "@hourly",
		StaleAfter:       staleAfter,
	})

	return notifier, persistence, deduper
}

func saveActiveExecution(t *testing.T, persistence *file.Persistence, id string, stepStartedAt time.Time) {
	t.Helper()

	execution := &models.WorkflowExecution{
		ID:             id,
		ServiceOrderID: "order-" + id,
		CurrentStepID:  "repair",
		Status:         models.ExecutionStatusActive,
		StartedAt:      stepStartedAt,
		StepHistory: []models.StepHistoryEntry{
			{StepID: "repair", StartedAt: stepStartedAt},
		},
	}
	require.NoError(t, persistence.ExecutionRepository().Save(context.Background(), execution))
}

func TestSweepStaleSteps_MarksStaleExecutions(t *testing.T) {
	notifier, persistence, deduper := newSweepFixture(t, 48*time.Hour)
	ctx := context.Background()

	saveActiveExecution(t, persistence, "exec-stale", time.Now().UTC().Add(-72*time.Hour))
	saveActiveExecution(t, persistence, "exec-fresh", time.Now().UTC().Add(-time.Hour))

	require.NoError(t, notifier.SweepStaleSteps(ctx))

	// The stale execution's reminder key is consumed, the fresh one's is not.
	seen, err := deduper.MarkOnce(ctx, "stale:exec-stale:repair", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)

	fresh, err := deduper.MarkOnce(ctx, "stale:exec-fresh:repair", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestSweepStaleSteps_RemindsOncePerWindow(t *testing.T) {
	notifier, persistence, deduper := newSweepFixture(t, 48*time.Hour)
	ctx := context.Background()

	saveActiveExecution(t, persistence, "exec-stale", time.Now().UTC().Add(-72*time.Hour))

	require.NoError(t, notifier.SweepStaleSteps(ctx))
	require.NoError(t, notifier.SweepStaleSteps(ctx))

	seen, err := deduper.MarkOnce(ctx, "stale:exec-stale:repair", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestSweepStaleSteps_SkipsCompletedCurrentStep(t *testing.T) {
	notifier, persistence, deduper := newSweepFixture(t, time.Hour)
	ctx := context.Background()

	started := time.Now().UTC().Add(-72 * time.Hour)
	completed := started.Add(time.Hour)

	// Current step already has a completion record; nothing to remind about.
	execution := &models.WorkflowExecution{
		ID:             "exec-odd",
		ServiceOrderID: "order-1",
		CurrentStepID:  "repair",
		Status:         models.ExecutionStatusActive,
		StartedAt:      started,
		StepHistory: []models.StepHistoryEntry{
			{StepID: "repair", StartedAt: started, CompletedAt: &completed},
		},
	}
	require.NoError(t, persistence.ExecutionRepository().Save(ctx, execution))

	require.NoError(t, notifier.SweepStaleSteps(ctx))

	unseen, err := deduper.MarkOnce(ctx, "stale:exec-odd:repair", time.Hour)
	require.NoError(t, err)
	assert.True(t, unseen)
}

func TestRun_InvalidSchedule(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())

	notifier := NewNotifier(slog.Default(), persistence, nil, notify.NewMemoryDeduper(), Config{
		ReminderSchedule: "not a schedule",
		StaleAfter:       time.Hour,
	})

	_, err := notifier.scheduler(context.Background())
	require.Error(t, err)
}
