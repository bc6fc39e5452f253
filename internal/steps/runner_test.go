package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-coach/internal/db"
)

type memStepStore struct {
	steps map[string]*db.BatchStep
}

func newMemStepStore() *memStepStore {
	return &memStepStore{steps: make(map[string]*db.BatchStep)}
}

func (s *memStepStore) GetBatchStep(ctx context.Context, runID uuid.UUID, step string) (*db.BatchStep, error) {
	record, ok := s.steps[step]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (s *memStepStore) CreateBatchStep(ctx context.Context, runID uuid.UUID, step string) (*db.BatchStep, error) {
	now := time.Now()
	record := &db.BatchStep{
		ID:        uuid.New(),
		RunID:     runID,
		Step:      step,
		Status:    db.StepStatusInProgress,
		StartedAt: &now,
		CreatedAt: now,
	}
	s.steps[step] = record
	return record, nil
}

func (s *memStepStore) UpdateBatchStepStatus(ctx context.Context, runID uuid.UUID, step, status string, errorMsg *string) error {
	record, ok := s.steps[step]
	if !ok {
		return errors.New("step not found")
	}
	record.Status = status
	record.ErrorMessage = errorMsg
	return nil
}

func TestDBRunner_RunStepRecordsCompletion(t *testing.T) {
	store := newMemStepStore()
	runner := NewDBRunner(store, uuid.New())

	calls := 0
	err := runner.RunStep(context.Background(), "generate-insight:Tech", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, db.StepStatusCompleted, store.steps["generate-insight:Tech"].Status)
}

func TestDBRunner_CompletedStepSkippedOnResume(t *testing.T) {
	store := newMemStepStore()
	runID := uuid.New()

	runner := NewDBRunner(store, runID)
	require.NoError(t, runner.RunStep(context.Background(), "upsert:Tech", func(ctx context.Context) error {
		return nil
	}))

	// Simulate a resumed run with the same run ID.
	resumed := NewDBRunner(store, runID)
	calls := 0
	require.NoError(t, resumed.RunStep(context.Background(), "upsert:Tech", func(ctx context.Context) error {
		calls++
		return nil
	}))
	assert.Zero(t, calls)
}

func TestDBRunner_FailedStepRerunsOnResume(t *testing.T) {
	store := newMemStepStore()
	runID := uuid.New()

	runner := NewDBRunner(store, runID)
	err := runner.RunStep(context.Background(), "generate:Finance", func(ctx context.Context) error {
		return errors.New("provider down")
	})
	require.Error(t, err)
	assert.Equal(t, db.StepStatusFailed, store.steps["generate:Finance"].Status)
	require.NotNil(t, store.steps["generate:Finance"].ErrorMessage)

	resumed := NewDBRunner(store, runID)
	calls := 0
	require.NoError(t, resumed.RunStep(context.Background(), "generate:Finance", func(ctx context.Context) error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
}

func TestDBRunner_FailureReturnsOriginalError(t *testing.T) {
	store := newMemStepStore()
	runner := NewDBRunner(store, uuid.New())

	sentinel := errors.New("boom")
	err := runner.RunStep(context.Background(), "step", func(ctx context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestDBRunner_SleepRecordedAsStep(t *testing.T) {
	store := newMemStepStore()
	runID := uuid.New()

	runner := NewDBRunner(store, runID)
	slept := time.Duration(0)
	runner.sleep = func(ctx context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	require.NoError(t, runner.Sleep(context.Background(), "delay:1", 5*time.Second))
	assert.Equal(t, 5*time.Second, slept)
	assert.Equal(t, db.StepStatusCompleted, store.steps["delay:1"].Status)

	// Resume does not sleep again.
	resumed := NewDBRunner(store, runID)
	resumed.sleep = func(ctx context.Context, d time.Duration) error {
		t.Fatal("completed sleep must not repeat")
		return nil
	}
	require.NoError(t, resumed.Sleep(context.Background(), "delay:1", 5*time.Second))
}

func TestInlineRunner_PassesThrough(t *testing.T) {
	calls := 0
	err := InlineRunner{}.RunStep(context.Background(), "anything", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
