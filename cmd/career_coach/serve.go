package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-coach/internal/batch"
	"github.com/jonathan/career-coach/internal/server"
)

var (
	servePort      string
	serveScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing the content generation endpoints, with the scheduled insight refresh running in-process.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveScheduler, "scheduler", true, "Run the scheduled batch insight refresh in-process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort != "" {
		port = servePort
	}

	srv, err := server.New(port, server.Deps{
		Store:     a.database,
		Auth:      a.database,
		Generator: a.generator,
		Insights:  a.insights,
		Batch:     a.refresher,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var scheduler *batch.Scheduler
	if serveScheduler {
		scheduler, err = batch.NewScheduler(a.refresher, a.cfg.BatchCron, a.logger)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		if scheduler != nil {
			scheduler.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
