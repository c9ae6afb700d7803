package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/google/uuid"
)

// TaskTypeContentGeneration is the type of AI content generation jobs.
const TaskTypeContentGeneration = "content_generation"

// GenerationRunner executes a generation job. It is implemented by the
// service layer.
type GenerationRunner interface {
	RunGeneration(ctx context.Context, req generation.JobRequest) (*generation.JobReport, error)
}

// GenerationTask runs one content generation job in the background.
// The job report is stored as the task result.
type GenerationTask struct {
	id        uuid.UUID
	request   generation.JobRequest
	status    TaskStatus
	createdAt time.Time
	runner    GenerationRunner
	logger    *slog.Logger

	mu     sync.Mutex
	report *generation.JobReport
}

// NewGenerationTask creates a pending generation task for req.
func NewGenerationTask(req generation.JobRequest, runner GenerationRunner, logger *slog.Logger) (*GenerationTask, error) {
	if runner == nil {
		return nil, fmt.Errorf("generation runner cannot be nil")
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationTask{
		id:        uuid.New(),
		request:   req,
		status:    TaskStatusPending,
		createdAt: time.Now().UTC(),
		runner:    runner,
		logger:    logger.With(slog.String("task_type", TaskTypeContentGeneration)),
	}, nil
}

// NewGenerationTaskFactory returns the Factory that rebuilds generation
// tasks from their persisted payload.
func NewGenerationTaskFactory(runner GenerationRunner, logger *slog.Logger) Factory {
	return func(rec *Record) (Task, error) {
		var req generation.JobRequest
		if err := json.Unmarshal(rec.Payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode generation payload: %w", err)
		}
		t, err := NewGenerationTask(req, runner, logger)
		if err != nil {
			return nil, err
		}
		t.id = rec.ID
		t.status = rec.Status
		t.createdAt = rec.CreatedAt
		return t, nil
	}
}

func (t *GenerationTask) ID() uuid.UUID { return t.id }

func (t *GenerationTask) Type() string { return TaskTypeContentGeneration }

// Payload returns the JSON encoded job request.
func (t *GenerationTask) Payload() []byte {
	payload, err := json.Marshal(t.request)
	if err != nil {
		t.logger.Error("failed to encode generation payload",
			slog.String("task_id", t.id.String()),
			slog.String("error", err.Error()))
		return nil
	}
	return payload
}

func (t *GenerationTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Request returns the normalized job request.
func (t *GenerationTask) Request() generation.JobRequest { return t.request }

// Execute runs the job. A job in which every batch failed is reported as
// a failure; partial success completes the task.
func (t *GenerationTask) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, t.logger)

	t.setStatus(TaskStatusProcessing)

	report, err := t.runner.RunGeneration(ctx, t.request)

	t.mu.Lock()
	t.report = report
	t.mu.Unlock()

	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("generation job failed: %w", err)
	}
	if report != nil && len(report.Batches) > 0 && report.FailedBatches == len(report.Batches) {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("%w: all %d batches failed", generation.ErrGenerationFailed, report.FailedBatches)
	}

	t.setStatus(TaskStatusCompleted)
	if report != nil {
		log.Info(report.Summary(),
			slog.Int("generated", report.Generated),
			slog.Int("succeeded", report.Succeeded),
			slog.Int("failed_batches", report.FailedBatches))
	}
	return nil
}

// Result implements Resulter with the JSON job report, if any.
func (t *GenerationTask) Result() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.report == nil {
		return nil, nil
	}
	return json.Marshal(t.report)
}

func (t *GenerationTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}
