package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Batch Run Methods
// -----------------------------------------------------------------------------

// CreateBatchRun creates a new batch run record and returns its ID
func (db *DB) CreateBatchRun(ctx context.Context, trigger string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO batch_runs (trigger, status)
		 VALUES ($1, 'running')
		 RETURNING id`,
		trigger,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create batch run: %w", err)
	}
	return id, nil
}

// CompleteBatchRun marks a batch run as completed or failed
func (db *DB) CompleteBatchRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE batch_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete batch run: %w", err)
	}
	return nil
}

// GetLatestIncompleteBatchRun returns the most recent still-running batch run,
// or nil when none exists. Used to resume after a mid-run crash.
func (db *DB) GetLatestIncompleteBatchRun(ctx context.Context) (*BatchRun, error) {
	var run BatchRun
	err := db.pool.QueryRow(ctx,
		`SELECT id, trigger, status, created_at, completed_at
		 FROM batch_runs WHERE status = 'running'
		 ORDER BY created_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.Trigger, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incomplete batch run: %w", err)
	}
	return &run, nil
}

// -----------------------------------------------------------------------------
// Batch Step Methods
// -----------------------------------------------------------------------------

// GetBatchStep retrieves a step by run and label. Returns nil, nil when absent.
func (db *DB) GetBatchStep(ctx context.Context, runID uuid.UUID, step string) (*BatchStep, error) {
	var record BatchStep
	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, step, status, started_at, completed_at, duration_ms, error_message, created_at
		 FROM batch_steps WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&record.ID, &record.RunID, &record.Step, &record.Status,
		&record.StartedAt, &record.CompletedAt, &record.DurationMs, &record.ErrorMessage, &record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch step: %w", err)
	}
	return &record, nil
}

// CreateBatchStep records a step starting. Re-creating an existing step resets
// it to in_progress (a crashed attempt is re-run, completed ones are not).
func (db *DB) CreateBatchStep(ctx context.Context, runID uuid.UUID, step string) (*BatchStep, error) {
	var record BatchStep
	err := db.pool.QueryRow(ctx,
		`INSERT INTO batch_steps (run_id, step, status, started_at)
		 VALUES ($1, $2, 'in_progress', NOW())
		 ON CONFLICT (run_id, step) DO UPDATE SET status = 'in_progress', started_at = NOW()
		 RETURNING id, run_id, step, status, started_at, completed_at, duration_ms, error_message, created_at`,
		runID, step,
	).Scan(&record.ID, &record.RunID, &record.Step, &record.Status,
		&record.StartedAt, &record.CompletedAt, &record.DurationMs, &record.ErrorMessage, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch step: %w", err)
	}
	return &record, nil
}

// UpdateBatchStepStatus marks a step completed or failed
func (db *DB) UpdateBatchStepStatus(ctx context.Context, runID uuid.UUID, step, status string, errorMsg *string) error {
	now := time.Now()

	current, err := db.GetBatchStep(ctx, runID, step)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("batch step not found: %s", step)
	}

	var durationMs *int
	if current.StartedAt != nil {
		dur := int(now.Sub(*current.StartedAt).Milliseconds())
		durationMs = &dur
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE batch_steps
		 SET status = $1, completed_at = $2, duration_ms = $3, error_message = $4
		 WHERE run_id = $5 AND step = $6`,
		status, now, durationMs, errorMsg, runID, step,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch step status: %w", err)
	}
	return nil
}
