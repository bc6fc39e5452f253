// Package steps decomposes batch work into durably recorded units so a
// mid-run crash can resume without repeating completed work. Each unit is
// at-least-once: a step recorded as completed is skipped on re-run, a step
// that crashed mid-flight runs again, so step bodies must be idempotent.
package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-coach/internal/db"
)

// Runner executes labeled units of work and durable delays.
type Runner interface {
	// RunStep executes fn under the given label unless an earlier run already
	// completed it. A failed fn marks the step failed and returns fn's error.
	RunStep(ctx context.Context, label string, fn func(ctx context.Context) error) error
	// Sleep suspends for d under the given label; a completed sleep is not
	// repeated on resume.
	Sleep(ctx context.Context, label string, d time.Duration) error
}

// StepStore is the persistence surface the DB runner needs.
type StepStore interface {
	GetBatchStep(ctx context.Context, runID uuid.UUID, step string) (*db.BatchStep, error)
	CreateBatchStep(ctx context.Context, runID uuid.UUID, step string) (*db.BatchStep, error)
	UpdateBatchStepStatus(ctx context.Context, runID uuid.UUID, step, status string, errorMsg *string) error
}

// DBRunner records step state in Postgres, scoped to one batch run.
type DBRunner struct {
	store StepStore
	runID uuid.UUID

	// sleep is swappable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDBRunner creates a runner recording steps against the given batch run.
func NewDBRunner(store StepStore, runID uuid.UUID) *DBRunner {
	return &DBRunner{store: store, runID: runID, sleep: sleepContext}
}

// RunStep executes fn once per run. Steps already marked completed are
// skipped, which is what makes a resumed run pick up where it left off.
func (r *DBRunner) RunStep(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	existing, err := r.store.GetBatchStep(ctx, r.runID, label)
	if err != nil {
		return fmt.Errorf("failed to check step %s: %w", label, err)
	}
	if existing != nil && existing.Status == db.StepStatusCompleted {
		return nil
	}

	if _, err := r.store.CreateBatchStep(ctx, r.runID, label); err != nil {
		return fmt.Errorf("failed to start step %s: %w", label, err)
	}

	if err := fn(ctx); err != nil {
		msg := err.Error()
		if updateErr := r.store.UpdateBatchStepStatus(ctx, r.runID, label, db.StepStatusFailed, &msg); updateErr != nil {
			return fmt.Errorf("step %s failed (%v) and status update also failed: %w", label, err, updateErr)
		}
		return err
	}

	if err := r.store.UpdateBatchStepStatus(ctx, r.runID, label, db.StepStatusCompleted, nil); err != nil {
		return fmt.Errorf("failed to complete step %s: %w", label, err)
	}
	return nil
}

// Sleep suspends for d, recorded as its own step so an already-served delay is
// not repeated when a run resumes.
func (r *DBRunner) Sleep(ctx context.Context, label string, d time.Duration) error {
	return r.RunStep(ctx, label, func(ctx context.Context) error {
		return r.sleep(ctx, d)
	})
}

// InlineRunner executes steps directly with no durability. Used by the manual
// single-industry trigger and in tests.
type InlineRunner struct{}

// RunStep executes fn immediately.
func (InlineRunner) RunStep(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Sleep blocks for d or until ctx is done.
func (InlineRunner) Sleep(ctx context.Context, label string, d time.Duration) error {
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
