package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/schemascrape/internal/batch"
	"github.com/jonathan/schemascrape/internal/config"
	"github.com/jonathan/schemascrape/internal/db"
	"github.com/jonathan/schemascrape/internal/extract"
	"github.com/jonathan/schemascrape/internal/fetch"
	"github.com/jonathan/schemascrape/internal/job"
	"github.com/jonathan/schemascrape/internal/llm"
	"github.com/jonathan/schemascrape/internal/observability"
	"github.com/jonathan/schemascrape/internal/sanitize"
	"github.com/jonathan/schemascrape/internal/telemetry"
	"go.uber.org/zap"
)

// stack bundles the wired pipeline components shared by the CLI commands.
type stack struct {
	cfg        *config.Config
	logger     *zap.Logger
	database   *db.DB
	client     llm.Client
	broker     *telemetry.Broker
	manager    *job.Manager
	dispatcher *batch.Dispatcher
}

// loadConfig merges the optional config file with environment variables.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildStack connects to external services and wires the pipeline.
func buildStack(ctx context.Context, cfg *config.Config, progress func(batch.Snapshot)) (*stack, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.DevLog)
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	llmCfg := llm.DefaultConfig()
	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	tier := llm.TierStandard
	if cfg.ModelTier != "" {
		tier = llm.ModelTier(cfg.ModelTier)
	}
	extractor := extract.NewExtractor(client, tier, llmCfg.Model(tier), logger)

	fetchOpts := &fetch.Options{Timeout: cfg.FetchTimeout()}
	var browser fetch.Fetcher
	if cfg.UseBrowser {
		browser = fetch.NewBrowserFetcher(&fetch.Options{Timeout: cfg.FetchTimeout()})
	}

	broker := telemetry.NewBroker(database, logger)
	manager := job.NewManager(job.Config{
		Store:     database,
		Broker:    broker,
		Fetcher:   fetch.NewHTTPFetcher(fetchOpts),
		Browser:   browser,
		Extractor: extractor,
		Sanitize:  &sanitize.Options{MaxChars: cfg.SanitizeMaxChars},
		Logger:    logger,
	})

	dispatcher := batch.NewDispatcher(manager, manager, batch.Options{
		Workers:    cfg.Workers(),
		Pacing:     cfg.BatchPacing(),
		OnProgress: progress,
	}, logger)

	return &stack{
		cfg:        cfg,
		logger:     logger,
		database:   database,
		client:     client,
		broker:     broker,
		manager:    manager,
		dispatcher: dispatcher,
	}, nil
}

// close releases external connections in reverse wiring order.
func (s *stack) close() {
	s.broker.Close()
	s.client.Close()
	s.database.Close()
	_ = s.logger.Sync()
}

// parseSchemaArg reads a target schema from an inline JSON object or a
// file path.
func parseSchemaArg(arg string) (extract.Schema, error) {
	if arg == "" {
		return nil, fmt.Errorf("--schema is required")
	}

	data := []byte(arg)
	if arg[0] != '{' {
		fileData, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", arg, err)
		}
		data = fileData
	}

	var schema extract.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}
