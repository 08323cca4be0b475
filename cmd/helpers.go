package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/pulsehealth/pulse/internal/agent"
	"github.com/pulsehealth/pulse/internal/config"
	"github.com/pulsehealth/pulse/internal/db"
	"github.com/pulsehealth/pulse/internal/foods"
	"github.com/pulsehealth/pulse/internal/llm"
	"github.com/pulsehealth/pulse/internal/meals"
	"github.com/pulsehealth/pulse/internal/nutrition"
)

// app bundles the wired components every command builds on.
type app struct {
	cfg       *config.Config
	db        *db.DB
	logger    *zap.Logger
	meals     *meals.Store
	foods     *foods.Store
	summaries *nutrition.SummaryStore
	processor *meals.Processor
}

// buildApp loads configuration and wires the full component stack.
// The caller owns the returned app and must call close.
func buildApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	provider, err := llm.NewProvider(string(cfg.Backend), cfg.Model, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	mealStore := meals.NewStore(database)
	foodStore := foods.NewStore(database)
	summaryStore := nutrition.NewSummaryStore(database)
	ag := agent.New(provider, logger)
	processor := meals.NewProcessor(ag, foodStore, mealStore, summaryStore, logger, cfg.MaxConcurrency)
	processor.SetMacroTolerance(cfg.MacroTolerancePercent)
	processor.SetAutoEnrich(cfg.AutoEnrich)

	return &app{
		cfg:       cfg,
		db:        database,
		logger:    logger,
		meals:     mealStore,
		foods:     foodStore,
		summaries: summaryStore,
		processor: processor,
	}, nil
}

func (a *app) close() {
	a.logger.Sync()
	a.db.Close()
}
