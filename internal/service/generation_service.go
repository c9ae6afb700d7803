package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/finlit/finlit-api/internal/task"
	"github.com/google/uuid"
)

// Job is the state of a background generation job.
type Job struct {
	ID        uuid.UUID             `json:"id"`
	Status    task.TaskStatus       `json:"status"`
	Request   generation.JobRequest `json:"request"`
	Error     string                `json:"error,omitempty"`
	Report    *generation.JobReport `json:"report,omitempty"`
	Summary   string                `json:"summary,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// TaskSubmitter queues tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, t task.Task) error
}

// GenerationService runs AI content generation jobs. Each batch of
// generated candidates goes through the regular import with generation
// bounds applied.
type GenerationService interface {
	// Enqueue validates the request and queues a job.
	Enqueue(ctx context.Context, req generation.JobRequest) (*Job, error)

	// GetJob returns the state of a queued or finished job.
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// RunGeneration executes a job synchronously. A failing batch is
	// recorded in the report and the next batch still runs.
	RunGeneration(ctx context.Context, req generation.JobRequest) (*generation.JobReport, error)
}

type generationServiceImpl struct {
	generator generation.Generator
	importer  ImportService
	submitter TaskSubmitter
	tasks     task.TaskStore
	bounds    *GenerationBounds
	logger    *slog.Logger
}

var _ task.GenerationRunner = (*generationServiceImpl)(nil)

// NewGenerationService creates a new GenerationService. A nil generator
// disables generation; submitter and tasks may be nil for synchronous use.
func NewGenerationService(
	generator generation.Generator,
	importer ImportService,
	submitter TaskSubmitter,
	tasks task.TaskStore,
	logger *slog.Logger,
) (GenerationService, error) {
	if importer == nil {
		return nil, domain.NewValidationError("importer", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &generationServiceImpl{
		generator: generator,
		importer:  importer,
		submitter: submitter,
		tasks:     tasks,
		bounds:    DefaultGenerationBounds(),
		logger:    logger.With(slog.String("component", "generation_service")),
	}, nil
}

// Enqueue implements GenerationService.Enqueue
func (s *generationServiceImpl) Enqueue(ctx context.Context, req generation.JobRequest) (*Job, error) {
	if s.generator == nil || s.submitter == nil {
		return nil, ErrGenerationDisabled
	}

	t, err := task.NewGenerationTask(req, s, s.logger)
	if err != nil {
		if errors.Is(err, generation.ErrInvalidRequest) {
			return nil, domain.NewValidationError("request", err.Error(), err)
		}
		return nil, err
	}
	if err := s.submitter.Submit(ctx, t); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("generation job queued",
		slog.String("task_id", t.ID().String()),
		slog.String("content_type", string(t.Request().ContentType)),
		slog.Int("batches", t.Request().Batches))

	now := time.Now().UTC()
	return &Job{
		ID:        t.ID(),
		Status:    t.Status(),
		Request:   t.Request(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetJob implements GenerationService.GetJob
func (s *generationServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	if s.tasks == nil {
		return nil, ErrGenerationDisabled
	}
	rec, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Type != task.TaskTypeContentGeneration {
		return nil, store.ErrTaskNotFound
	}

	job := &Job{
		ID:        rec.ID,
		Status:    rec.Status,
		Error:     rec.ErrorMessage,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if err := json.Unmarshal(rec.Payload, &job.Request); err != nil {
		return nil, NewServiceError("generation", "get_job", "stored job request is corrupt", err)
	}
	if len(rec.Result) > 0 {
		var report generation.JobReport
		if err := json.Unmarshal(rec.Result, &report); err != nil {
			return nil, NewServiceError("generation", "get_job", "stored job report is corrupt", err)
		}
		job.Report = &report
		job.Summary = report.Summary()
	}
	return job, nil
}

// RunGeneration implements GenerationService.RunGeneration
func (s *generationServiceImpl) RunGeneration(
	ctx context.Context,
	req generation.JobRequest,
) (*generation.JobReport, error) {
	if s.generator == nil {
		return nil, ErrGenerationDisabled
	}
	if err := req.Normalize(); err != nil {
		return nil, domain.NewValidationError("request", err.Error(), err)
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("content_type", string(req.ContentType)),
		slog.Bool("dry_run", req.DryRun))

	report := &generation.JobReport{Request: req}
	for b := 1; b <= req.Batches; b++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result := s.runBatch(ctx, log, b, req)
		if result.Error != "" {
			log.Warn("generation batch failed",
				slog.Int("batch", b),
				slog.String("error", result.Error))
		}
		report.Add(result)
	}

	log.Info(report.Summary(),
		slog.Int("generated", report.Generated),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed_batches", report.FailedBatches))
	return report, nil
}

func (s *generationServiceImpl) runBatch(
	ctx context.Context,
	log *slog.Logger,
	batch int,
	req generation.JobRequest,
) generation.BatchResult {
	breq := req.BatchRequest()
	result := generation.BatchResult{Batch: batch, Category: breq.Category, Difficulty: breq.Difficulty}
	log = log.With(slog.Int("batch", batch), slog.String("category", string(breq.Category)))
	log.Info("generating batch", slog.Int("batch_size", breq.BatchSize))

	reply, err := s.generator.Generate(ctx, breq)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	payload, err := generation.ExtractJSON(reply)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		result.Error = fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err).Error()
		return result
	}

	result.Received = len(items)
	if len(items) > breq.BatchSize {
		result.Truncated = len(items) - breq.BatchSize
		log.Warn("model returned more candidates than requested, truncating",
			slog.Int("received", len(items)),
			slog.Int("batch_size", breq.BatchSize))
		items = items[:breq.BatchSize]
	}

	raw, err := json.Marshal(items)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	imported, err := s.importer.Import(ctx, req.ContentType, raw, ImportOptions{
		DryRun:     req.DryRun,
		Bounds:     s.bounds,
		Category:   breq.Category,
		Difficulty: breq.Difficulty,
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Import = imported
	return result
}
