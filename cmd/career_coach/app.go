package main

import (
	"context"
	"fmt"
	"os"

	"github.com/phuslu/log"

	"github.com/jonathan/career-coach/internal/batch"
	"github.com/jonathan/career-coach/internal/config"
	"github.com/jonathan/career-coach/internal/db"
	"github.com/jonathan/career-coach/internal/generate"
	"github.com/jonathan/career-coach/internal/insights"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/quota"
	"github.com/jonathan/career-coach/internal/retry"
)

// app bundles the wired service components shared by the serve and
// batch commands.
type app struct {
	cfg       *config.Config
	logger    log.Logger
	database  *db.DB
	client    llm.Client
	generator *generate.Service
	insights  *insights.Manager
	refresher *batch.Refresher
}

func newLogger() log.Logger {
	logger := log.Logger{
		Level:      log.InfoLevel,
		TimeFormat: "15:04:05",
	}
	if log.IsTerminal(os.Stderr.Fd()) {
		logger.Writer = &log.ConsoleWriter{ColorOutput: true}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		logger.Level = log.ParseLevel(v)
	}
	return logger
}

// newApp connects to the database and model provider and wires the
// full service graph.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	logger := newLogger()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), cfg.GeminiAPIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	executor := retry.NewExecutor(cfg.RetryBaseDelay, logger)
	checker := quota.NewChecker(database)
	generator := generate.NewService(database, client, executor, checker, cfg.MaxRetries, logger)

	insightGen := insights.NewGenerator(client, executor, cfg.MaxRetries)
	manager := insights.NewManager(database, insightGen, logger)
	refresher := batch.NewRefresher(database, manager, cfg.BatchDelay, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		database:  database,
		client:    client,
		generator: generator,
		insights:  manager,
		refresher: refresher,
	}, nil
}

func (a *app) Close() {
	if err := a.client.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close LLM client")
	}
	a.database.Close()
}
