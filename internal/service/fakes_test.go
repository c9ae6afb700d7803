package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// fakeTransactor runs fn without a transaction. Stores under test ignore
// the nil *sql.Tx.
type fakeTransactor struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

func cloneSimulation(s *domain.Simulation) *domain.Simulation {
	c := *s
	c.Expenses = make([]*domain.Expense, 0, len(s.Expenses))
	for _, e := range s.Expenses {
		ec := *e
		c.Expenses = append(c.Expenses, &ec)
	}
	return &c
}

// memSimulationStore is an in-memory store.SimulationStore.
type memSimulationStore struct {
	mu        sync.Mutex
	sims      map[uuid.UUID]*domain.Simulation
	order     []uuid.UUID
	createErr error
	writes    int
}

var _ store.SimulationStore = (*memSimulationStore)(nil)

func newMemSimulationStore(sims ...*domain.Simulation) *memSimulationStore {
	s := &memSimulationStore{sims: make(map[uuid.UUID]*domain.Simulation)}
	for _, sim := range sims {
		s.sims[sim.ID] = cloneSimulation(sim)
		s.order = append(s.order, sim.ID)
	}
	return s
}

func (s *memSimulationStore) get(id uuid.UUID) *domain.Simulation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sim, ok := s.sims[id]; ok {
		return cloneSimulation(sim)
	}
	return nil
}

func (s *memSimulationStore) Create(_ context.Context, sim *domain.Simulation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.writes++
	s.sims[sim.ID] = cloneSimulation(sim)
	s.order = append(s.order, sim.ID)
	return nil
}

func (s *memSimulationStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Simulation, error) {
	if sim := s.get(id); sim != nil {
		return sim, nil
	}
	return nil, store.ErrSimulationNotFound
}

func (s *memSimulationStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	return s.GetByID(ctx, id)
}

func (s *memSimulationStore) List(_ context.Context, filter store.SimulationFilter) ([]*domain.Simulation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Simulation
	for _, id := range s.order {
		sim, ok := s.sims[id]
		if !ok {
			continue
		}
		if filter.Category != "" && sim.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && sim.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, cloneSimulation(sim))
	}
	return out, nil
}

func (s *memSimulationStore) ListPrompts(_ context.Context) ([]store.TextRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.TextRecord
	for _, id := range s.order {
		if sim, ok := s.sims[id]; ok {
			out = append(out, store.TextRecord{ID: sim.ID, Text: sim.Prompt, Category: sim.Category})
		}
	}
	return out, nil
}

func (s *memSimulationStore) Update(_ context.Context, sim *domain.Simulation, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sims[sim.ID]
	if !ok {
		return store.ErrSimulationNotFound
	}
	if stored.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	s.writes++
	sim.Version = expectedVersion + 1
	stored.Prompt = sim.Prompt
	stored.MonthlyIncome = sim.MonthlyIncome
	stored.Difficulty = sim.Difficulty
	stored.Category = sim.Category
	stored.Version = sim.Version
	stored.UpdatedAt = sim.UpdatedAt
	return nil
}

func (s *memSimulationStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sims[id]; !ok {
		return store.ErrSimulationNotFound
	}
	s.writes++
	delete(s.sims, id)
	return nil
}

func (s *memSimulationStore) CreateExpense(_ context.Context, e *domain.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[e.SimulationID]
	if !ok {
		return store.ErrSimulationNotFound
	}
	s.writes++
	ec := *e
	sim.Expenses = append(sim.Expenses, &ec)
	return nil
}

func (s *memSimulationStore) UpdateExpense(_ context.Context, e *domain.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[e.SimulationID]
	if !ok {
		return store.ErrExpenseNotFound
	}
	for i, existing := range sim.Expenses {
		if existing.ID == e.ID {
			s.writes++
			ec := *e
			sim.Expenses[i] = &ec
			return nil
		}
	}
	return store.ErrExpenseNotFound
}

func (s *memSimulationStore) DeleteExpense(_ context.Context, simulationID, expenseID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[simulationID]
	if !ok {
		return store.ErrExpenseNotFound
	}
	for i, existing := range sim.Expenses {
		if existing.ID == expenseID {
			s.writes++
			sim.Expenses = append(sim.Expenses[:i:i], sim.Expenses[i+1:]...)
			return nil
		}
	}
	return store.ErrExpenseNotFound
}

func (s *memSimulationStore) RandomForUser(
	_ context.Context,
	_ uuid.UUID,
	category domain.Category,
	difficulty domain.Difficulty,
) (*domain.Simulation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		sim, ok := s.sims[id]
		if !ok || sim.Category != category {
			continue
		}
		if difficulty != "" && sim.Difficulty != difficulty {
			continue
		}
		return cloneSimulation(sim), nil
	}
	return nil, store.ErrSimulationNotFound
}

func (s *memSimulationStore) WithTx(*sql.Tx) store.SimulationStore { return s }

// memQuestionStore is an in-memory store.QuestionStore.
type memQuestionStore struct {
	mu        sync.Mutex
	questions []*domain.Question
	createErr error
}

var _ store.QuestionStore = (*memQuestionStore)(nil)

func (s *memQuestionStore) Create(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	qc := *q
	s.questions = append(s.questions, &qc)
	return nil
}

func (s *memQuestionStore) GetByID(_ context.Context, qt domain.QuestionType, id uuid.UUID) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.ID == id && q.Type == qt {
			qc := *q
			return &qc, nil
		}
	}
	return nil, store.ErrQuestionNotFound
}

func (s *memQuestionStore) ListTexts(_ context.Context, qt domain.QuestionType) ([]store.TextRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.TextRecord
	for _, q := range s.questions {
		if q.Type == qt {
			out = append(out, store.TextRecord{ID: q.ID, Text: q.DuplicateText(), Category: q.Category})
		}
	}
	return out, nil
}

func (s *memQuestionStore) RandomForUser(
	_ context.Context,
	_ uuid.UUID,
	qt domain.QuestionType,
	category domain.Category,
	difficulty domain.Difficulty,
) (*domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.Type != qt || q.Category != category {
			continue
		}
		if difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		qc := *q
		return &qc, nil
	}
	return nil, store.ErrQuestionNotFound
}

func (s *memQuestionStore) Delete(_ context.Context, qt domain.QuestionType, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.questions {
		if q.ID == id && q.Type == qt {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			return nil
		}
	}
	return store.ErrQuestionNotFound
}

func (s *memQuestionStore) WithTx(*sql.Tx) store.QuestionStore { return s }

type progressKey struct {
	user, question uuid.UUID
	qt             domain.QuestionType
}

// memProgressStore is an in-memory store.ProgressStore.
type memProgressStore struct {
	mu        sync.Mutex
	completed map[progressKey]bool
	xp        map[uuid.UUID]domain.XPBalance
	addErr    error
}

var _ store.ProgressStore = (*memProgressStore)(nil)

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{
		completed: make(map[progressKey]bool),
		xp:        make(map[uuid.UUID]domain.XPBalance),
	}
}

func (s *memProgressStore) CreateIfAbsent(_ context.Context, p *domain.QuestionProgress) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := progressKey{p.UserID, p.QuestionID, p.QuestionType}
	if s.completed[k] {
		return false, nil
	}
	s.completed[k] = true
	return true, nil
}

func (s *memProgressStore) AddXP(_ context.Context, userID uuid.UUID, category domain.Category, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return 0, s.addErr
	}
	if s.xp[userID] == nil {
		s.xp[userID] = domain.XPBalance{}
	}
	s.xp[userID][category] += amount
	return s.xp[userID][category], nil
}

func (s *memProgressStore) GetXP(_ context.Context, userID uuid.UUID) (domain.XPBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := domain.XPBalance{}
	for c, xp := range s.xp[userID] {
		out[c] = xp
	}
	return out, nil
}

func (s *memProgressStore) WithTx(*sql.Tx) store.ProgressStore { return s }
