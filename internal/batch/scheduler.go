package batch

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the batch refresh on a cron expression. Overlapping
// runs are harmless; a second invocation would resume the first run's
// steps and find them completed.
type Scheduler struct {
	cron      *cron.Cron
	refresher *Refresher
	logger    log.Logger
}

func NewScheduler(refresher *Refresher, spec string, logger log.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		logger:    logger,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	report, err := s.refresher.Run(context.Background(), TriggerScheduled)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled batch refresh aborted")
		return
	}
	s.logger.Info().
		Int("successful", report.Successful).
		Int("failed", report.Failed).
		Msg("scheduled batch refresh completed")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("batch scheduler started")
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("batch scheduler stopped")
}
