// Package batch refreshes every cached industry report on a schedule.
// Each industry is a durable step, so a crashed run resumes where it
// stopped instead of regenerating reports it already paid for.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/steps"
)

const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Store is the persistence surface a refresh run needs: durable step
// bookkeeping plus the industry roster.
type Store interface {
	steps.StepStore
	CreateBatchRun(ctx context.Context, trigger string) (uuid.UUID, error)
	CompleteBatchRun(ctx context.Context, runID uuid.UUID, status string) error
	GetLatestIncompleteBatchRun(ctx context.Context) (*db.BatchRun, error)
	ListInsightIndustries(ctx context.Context) ([]string, error)
}

// InsightRefresher regenerates and persists a single industry report.
type InsightRefresher interface {
	Refresh(ctx context.Context, industry string) (*db.IndustryInsight, error)
}

// Failure records one industry that could not be refreshed.
type Failure struct {
	Industry     string    `json:"industry"`
	ErrorMessage string    `json:"errorMessage"`
	Timestamp    time.Time `json:"timestamp"`
}

// RunReport summarizes a refresh run. Failed industries never abort the
// run; they are collected here and the remaining industries proceed.
type RunReport struct {
	Total       int       `json:"total"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Failures    []Failure `json:"failures,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

type Refresher struct {
	store    Store
	insights InsightRefresher
	logger   log.Logger
	delay    time.Duration
}

// NewRefresher builds a Refresher. delay is the pause between
// consecutive industries, recorded as its own durable step so a resumed
// run does not wait twice.
func NewRefresher(store Store, insights InsightRefresher, delay time.Duration, logger log.Logger) *Refresher {
	return &Refresher{store: store, insights: insights, logger: logger, delay: delay}
}

// Run executes a full refresh pass over every known industry. If an
// earlier run was left incomplete, its steps are reused and industries
// it already finished are not regenerated.
func (r *Refresher) Run(ctx context.Context, trigger string) (*RunReport, error) {
	runID, err := r.resumeOrCreateRun(ctx, trigger)
	if err != nil {
		return nil, err
	}

	industries, err := r.store.ListInsightIndustries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing industries: %w", err)
	}

	runner := steps.NewDBRunner(r.store, runID)
	report, err := r.execute(ctx, runner, industries)
	if err != nil {
		// Leave the run incomplete so the next invocation resumes it.
		return report, err
	}

	status := db.RunStatusCompleted
	if report.Total > 0 && report.Successful == 0 && report.Failed > 0 {
		status = db.RunStatusFailed
	}
	if err := r.store.CompleteBatchRun(ctx, runID, status); err != nil {
		return report, fmt.Errorf("completing batch run: %w", err)
	}

	r.logger.Info().
		Str("run_id", runID.String()).
		Int("total", report.Total).
		Int("successful", report.Successful).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("batch refresh finished")
	return report, nil
}

// RefreshOne regenerates a single industry on demand. Manual refreshes
// are not durable; there is nothing to resume.
func (r *Refresher) RefreshOne(ctx context.Context, industry string) (*RunReport, error) {
	return r.execute(ctx, steps.InlineRunner{}, []string{industry})
}

func (r *Refresher) resumeOrCreateRun(ctx context.Context, trigger string) (uuid.UUID, error) {
	run, err := r.store.GetLatestIncompleteBatchRun(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("checking for incomplete run: %w", err)
	}
	if run != nil {
		r.logger.Info().Str("run_id", run.ID.String()).Msg("resuming incomplete batch run")
		return run.ID, nil
	}
	runID, err := r.store.CreateBatchRun(ctx, trigger)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating batch run: %w", err)
	}
	return runID, nil
}

func (r *Refresher) execute(ctx context.Context, runner steps.Runner, industries []string) (*RunReport, error) {
	report := &RunReport{StartedAt: time.Now()}
	for i, industry := range industries {
		if strings.TrimSpace(industry) == "" {
			report.Skipped++
			continue
		}
		report.Total++

		err := runner.RunStep(ctx, "refresh-insight:"+industry, func(ctx context.Context) error {
			_, err := r.insights.Refresh(ctx, industry)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				report.CompletedAt = time.Now()
				return report, ctx.Err()
			}
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				Industry:     industry,
				ErrorMessage: err.Error(),
				Timestamp:    time.Now(),
			})
			r.logger.Warn().Str("industry", industry).Err(err).Msg("industry refresh failed, continuing")
		} else {
			report.Successful++
		}

		if i < len(industries)-1 && r.delay > 0 {
			if err := runner.Sleep(ctx, "pause-after:"+industry, r.delay); err != nil {
				report.CompletedAt = time.Now()
				return report, err
			}
		}
	}
	report.CompletedAt = time.Now()
	return report, nil
}
