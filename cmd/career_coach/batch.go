package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-coach/internal/batch"
)

var batchFollowCron bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Refresh every cached industry report",
	Long: `Run one pass of the insight batch refresh and exit. An incomplete
earlier run is resumed instead of started over. With --cron the process
stays up and runs on the configured schedule instead.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchFollowCron, "cron", false, "Keep running on the configured cron schedule")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if batchFollowCron {
		scheduler, err := batch.NewScheduler(a.refresher, a.cfg.BatchCron, a.logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		<-ctx.Done()
		scheduler.Stop()
		return nil
	}

	report, err := a.refresher.Run(ctx, batch.TriggerManual)
	if err != nil {
		return fmt.Errorf("batch refresh did not finish: %w", err)
	}

	fmt.Printf("Refreshed %d industries: %d successful, %d failed, %d skipped\n",
		report.Total, report.Successful, report.Failed, report.Skipped)
	for _, failure := range report.Failures {
		fmt.Printf("  %s: %s\n", failure.Industry, failure.ErrorMessage)
	}
	return nil
}
