package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-coach/internal/db"
)

type fakeBatchStore struct {
	industries []string
	steps      map[string]*db.BatchStep
	runs       map[uuid.UUID]*db.BatchRun
	incomplete *db.BatchRun
}

func newFakeBatchStore(industries ...string) *fakeBatchStore {
	return &fakeBatchStore{
		industries: industries,
		steps:      make(map[string]*db.BatchStep),
		runs:       make(map[uuid.UUID]*db.BatchRun),
	}
}

func (s *fakeBatchStore) ListInsightIndustries(ctx context.Context) ([]string, error) {
	return s.industries, nil
}

func (s *fakeBatchStore) CreateBatchRun(ctx context.Context, trigger string) (uuid.UUID, error) {
	id := uuid.New()
	s.runs[id] = &db.BatchRun{ID: id, Trigger: trigger, Status: db.RunStatusRunning}
	return id, nil
}

func (s *fakeBatchStore) CompleteBatchRun(ctx context.Context, runID uuid.UUID, status string) error {
	run, ok := s.runs[runID]
	if !ok {
		return errors.New("run not found")
	}
	run.Status = status
	return nil
}

func (s *fakeBatchStore) GetLatestIncompleteBatchRun(ctx context.Context) (*db.BatchRun, error) {
	return s.incomplete, nil
}

func (s *fakeBatchStore) GetBatchStep(ctx context.Context, runID uuid.UUID, step string) (*db.BatchStep, error) {
	return s.steps[step], nil
}

func (s *fakeBatchStore) CreateBatchStep(ctx context.Context, runID uuid.UUID, step string) (*db.BatchStep, error) {
	record := &db.BatchStep{RunID: runID, Step: step, Status: db.StepStatusInProgress}
	s.steps[step] = record
	return record, nil
}

func (s *fakeBatchStore) UpdateBatchStepStatus(ctx context.Context, runID uuid.UUID, step, status string, errorMsg *string) error {
	record, ok := s.steps[step]
	if !ok {
		return errors.New("step not found")
	}
	record.Status = status
	record.ErrorMessage = errorMsg
	return nil
}

type fakeRefresher struct {
	failing map[string]error
	calls   []string
}

func (f *fakeRefresher) Refresh(ctx context.Context, industry string) (*db.IndustryInsight, error) {
	f.calls = append(f.calls, industry)
	if err, ok := f.failing[industry]; ok {
		return nil, err
	}
	return &db.IndustryInsight{Industry: industry}, nil
}

func testLogger() log.Logger {
	return log.Logger{Level: log.PanicLevel}
}

func TestRun_OneFailureDoesNotStopTheRest(t *testing.T) {
	store := newFakeBatchStore("Technology", "Finance", "Consulting")
	gen := &fakeRefresher{failing: map[string]error{"Finance": errors.New("model offline")}}
	refresher := NewRefresher(store, gen, 0, testLogger())

	report, err := refresher.Run(context.Background(), TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"Technology", "Finance", "Consulting"}, gen.calls)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Finance", report.Failures[0].Industry)
	assert.Contains(t, report.Failures[0].ErrorMessage, "model offline")
}

func TestRun_BlankIndustriesSkipped(t *testing.T) {
	store := newFakeBatchStore("Technology", "", "  ")
	gen := &fakeRefresher{}
	refresher := NewRefresher(store, gen, 0, testLogger())

	report, err := refresher.Run(context.Background(), TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, []string{"Technology"}, gen.calls)
}

func TestRun_ResumeSkipsCompletedIndustries(t *testing.T) {
	store := newFakeBatchStore("Technology", "Finance")
	runID := uuid.New()
	store.runs[runID] = &db.BatchRun{ID: runID, Status: db.RunStatusRunning}
	store.incomplete = store.runs[runID]
	store.steps["refresh-insight:Technology"] = &db.BatchStep{
		RunID: runID, Step: "refresh-insight:Technology", Status: db.StepStatusCompleted,
	}
	gen := &fakeRefresher{}
	refresher := NewRefresher(store, gen, 0, testLogger())

	report, err := refresher.Run(context.Background(), TriggerScheduled)
	require.NoError(t, err)

	// The completed industry is not regenerated but still counts toward the run.
	assert.Equal(t, []string{"Finance"}, gen.calls)
	assert.Equal(t, 2, report.Successful)
	assert.Equal(t, db.RunStatusCompleted, store.runs[runID].Status)
	// No new run was created alongside the resumed one.
	assert.Len(t, store.runs, 1)
}

func TestRun_AllFailuresMarksRunFailed(t *testing.T) {
	store := newFakeBatchStore("Technology")
	gen := &fakeRefresher{failing: map[string]error{"Technology": errors.New("down")}}
	refresher := NewRefresher(store, gen, 0, testLogger())

	report, err := refresher.Run(context.Background(), TriggerScheduled)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	for _, run := range store.runs {
		assert.Equal(t, db.RunStatusFailed, run.Status)
	}
}

func TestRun_CancellationLeavesRunIncomplete(t *testing.T) {
	store := newFakeBatchStore("Technology", "Finance")
	ctx, cancel := context.WithCancel(context.Background())
	gen := &cancellingRefresher{cancel: cancel}
	refresher := NewRefresher(store, gen, 0, testLogger())

	_, err := refresher.Run(ctx, TriggerScheduled)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	for _, run := range store.runs {
		assert.Equal(t, db.RunStatusRunning, run.Status)
	}
}

// cancellingRefresher cancels the run after its first successful refresh.
type cancellingRefresher struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingRefresher) Refresh(ctx context.Context, industry string) (*db.IndustryInsight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.calls++
	c.cancel()
	return &db.IndustryInsight{Industry: industry}, nil
}

func TestRefreshOne_RecordsNoDurableSteps(t *testing.T) {
	store := newFakeBatchStore()
	gen := &fakeRefresher{}
	refresher := NewRefresher(store, gen, 0, testLogger())

	report, err := refresher.RefreshOne(context.Background(), "Healthcare")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, []string{"Healthcare"}, gen.calls)
	assert.Empty(t, store.steps)
	assert.Empty(t, store.runs)
}
