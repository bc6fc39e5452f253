package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var refreshIndustryCmd = &cobra.Command{
	Use:   "refresh-industry <industry>",
	Short: "Regenerate the market report for one industry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefreshIndustry,
}

func init() {
	rootCmd.AddCommand(refreshIndustryCmd)
}

func runRefreshIndustry(_ *cobra.Command, args []string) error {
	industry := strings.TrimSpace(args[0])
	if industry == "" {
		return fmt.Errorf("industry must not be blank")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.refresher.RefreshOne(ctx, industry)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("refresh failed: %s", report.Failures[0].ErrorMessage)
	}

	fmt.Printf("Refreshed market report for %s\n", industry)
	return nil
}
