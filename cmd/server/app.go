package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlit/finlit-api/internal/config"
	"github.com/finlit/finlit-api/internal/domain/dedup"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/platform/gemini"
	"github.com/finlit/finlit-api/internal/platform/postgres"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/service/auth"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/finlit/finlit-api/internal/task"
)

// application holds the shared dependencies of the server so they can be
// closed in order on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService        auth.JWTService
	gameplayService   service.GameplayService
	simulationService service.SimulationService
	importService     service.ImportService
	generationService service.GenerationService

	taskRunner *task.TaskRunner
}

// newApplication wires stores, services and the task runner. The runner
// is started last so recovered jobs find every service in place.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	tx := store.NewTransactor(db)
	simulations := postgres.NewPostgresSimulationStore(db, logger)
	questions := postgres.NewPostgresQuestionStore(db, logger)
	progress := postgres.NewPostgresProgressStore(db, logger)
	tasks := postgres.NewPostgresTaskStore(db, logger)

	filter := dedup.NewFilter()
	filter.MinLength = cfg.Content.DuplicateMinLength
	filter.Scope = dedup.Scope(cfg.Content.DuplicateScope)

	gate, err := service.NewProgressGate(tx, progress, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress gate: %w", err)
	}
	if app.gameplayService, err = service.NewGameplayService(simulations, questions, gate, logger); err != nil {
		return nil, fmt.Errorf("failed to create gameplay service: %w", err)
	}
	if app.simulationService, err = service.NewSimulationService(tx, simulations, logger); err != nil {
		return nil, fmt.Errorf("failed to create simulation service: %w", err)
	}
	if app.importService, err = service.NewImportService(tx, simulations, questions, filter, logger); err != nil {
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	app.taskRunner = task.NewTaskRunner(tasks, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)

	// A nil generator disables generation; the interface must stay nil,
	// not hold a nil *GeminiGenerator.
	var generator generation.Generator
	if cfg.LLM.Enabled() {
		g, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		generator = g
		logger.Info("LLM generator initialized", slog.String("model", cfg.LLM.ModelName))
	} else {
		logger.Warn("no Gemini API key configured, content generation is disabled")
	}

	app.generationService, err = service.NewGenerationService(generator, app.importService, app.taskRunner, tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}
	app.taskRunner.RegisterFactory(task.TaskTypeContentGeneration,
		task.NewGenerationTaskFactory(app.generationService, logger))

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// cleanup stops background work before closing the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("Application shutdown completed")
}
