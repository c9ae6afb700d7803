package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// memoryTaskStore is an in-memory TaskStore for tests.
type memoryTaskStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record

	SaveFn func(ctx context.Context, task Task) error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{records: make(map[uuid.UUID]*Record)}
}

var _ TaskStore = (*memoryTaskStore)(nil)

func (s *memoryTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.SaveFn != nil {
		if err := s.SaveFn(ctx, task); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.records[task.ID()] = &Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   task.Payload(),
		Status:    task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (s *memoryTaskStore) put(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}

func (s *memoryTaskStore) UpdateTaskStatus(_ context.Context, id uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	rec.Status = status
	rec.ErrorMessage = errorMsg
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryTaskStore) SaveTaskResult(_ context.Context, id uuid.UUID, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	rec.Result = result
	return nil
}

func (s *memoryTaskStore) GetTask(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryTaskStore) GetPendingTasks(context.Context) ([]*Record, error) {
	return s.byStatus(TaskStatusPending, 0), nil
}

func (s *memoryTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]*Record, error) {
	return s.byStatus(TaskStatusProcessing, olderThan), nil
}

func (s *memoryTaskStore) byStatus(status TaskStatus, olderThan time.Duration) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Record
	for _, rec := range s.records {
		if rec.Status != status {
			continue
		}
		if olderThan > 0 && time.Since(rec.UpdatedAt) < olderThan {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

func (s *memoryTaskStore) WithTx(*sql.Tx) TaskStore { return s }

func (s *memoryTaskStore) status(id uuid.UUID) TaskStatus {
	rec, err := s.GetTask(context.Background(), id)
	if err != nil {
		return ""
	}
	return rec.Status
}

// funcTask is a Task whose Execute is supplied by the test.
type funcTask struct {
	id        uuid.UUID
	payload   []byte
	executeFn func(ctx context.Context) error
	result    []byte
}

func newFuncTask(fn func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), payload: []byte(`{}`), executeFn: fn}
}

func (t *funcTask) ID() uuid.UUID      { return t.id }
func (t *funcTask) Type() string       { return "func" }
func (t *funcTask) Payload() []byte    { return t.payload }
func (t *funcTask) Status() TaskStatus { return TaskStatusPending }

func (t *funcTask) Execute(ctx context.Context) error {
	if t.executeFn == nil {
		return nil
	}
	return t.executeFn(ctx)
}

func (t *funcTask) Result() ([]byte, error) {
	if t.result == nil {
		return nil, errors.New("no result")
	}
	return t.result, nil
}
