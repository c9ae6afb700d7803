package mocks

import (
	"context"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockGameplayService is a testify mock of service.GameplayService.
type MockGameplayService struct {
	mock.Mock
}

var _ service.GameplayService = (*MockGameplayService)(nil)

func (m *MockGameplayService) NextSimulation(
	ctx context.Context,
	userID uuid.UUID,
	category domain.Category,
	difficulty domain.Difficulty,
) (*service.PlayableSimulation, error) {
	args := m.Called(ctx, userID, category, difficulty)
	sim, _ := args.Get(0).(*service.PlayableSimulation)
	return sim, args.Error(1)
}

func (m *MockGameplayService) SubmitBudget(
	ctx context.Context,
	userID, simulationID uuid.UUID,
	selected []uuid.UUID,
) (*service.BudgetResult, error) {
	args := m.Called(ctx, userID, simulationID, selected)
	res, _ := args.Get(0).(*service.BudgetResult)
	return res, args.Error(1)
}

func (m *MockGameplayService) NextQuestion(
	ctx context.Context,
	userID uuid.UUID,
	qt domain.QuestionType,
	category domain.Category,
	difficulty domain.Difficulty,
) (*service.PlayableQuestion, error) {
	args := m.Called(ctx, userID, qt, category, difficulty)
	q, _ := args.Get(0).(*service.PlayableQuestion)
	return q, args.Error(1)
}

func (m *MockGameplayService) AnswerQuestion(
	ctx context.Context,
	userID uuid.UUID,
	qt domain.QuestionType,
	questionID uuid.UUID,
	answer service.Answer,
) (*service.AnswerResult, error) {
	args := m.Called(ctx, userID, qt, questionID, answer)
	res, _ := args.Get(0).(*service.AnswerResult)
	return res, args.Error(1)
}

func (m *MockGameplayService) XP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error) {
	args := m.Called(ctx, userID)
	xp, _ := args.Get(0).(domain.XPBalance)
	return xp, args.Error(1)
}

// MockSimulationService is a testify mock of service.SimulationService.
type MockSimulationService struct {
	mock.Mock
}

var _ service.SimulationService = (*MockSimulationService)(nil)

func (m *MockSimulationService) simulation(args mock.Arguments) (*domain.Simulation, error) {
	sim, _ := args.Get(0).(*domain.Simulation)
	return sim, args.Error(1)
}

func (m *MockSimulationService) Create(ctx context.Context, draft service.SimulationDraft) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, draft))
}

func (m *MockSimulationService) Get(ctx context.Context, id uuid.UUID) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, id))
}

func (m *MockSimulationService) List(ctx context.Context, filter store.SimulationFilter) ([]*domain.Simulation, error) {
	args := m.Called(ctx, filter)
	sims, _ := args.Get(0).([]*domain.Simulation)
	return sims, args.Error(1)
}

func (m *MockSimulationService) UpdateIncome(
	ctx context.Context,
	id uuid.UUID,
	income string,
	expectedVersion *int,
) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, id, income, expectedVersion))
}

func (m *MockSimulationService) AddExpense(
	ctx context.Context,
	simulationID uuid.UUID,
	draft service.ExpenseDraft,
	expectedVersion *int,
) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, simulationID, draft, expectedVersion))
}

func (m *MockSimulationService) UpdateExpense(
	ctx context.Context,
	simulationID, expenseID uuid.UUID,
	draft service.ExpenseDraft,
	expectedVersion *int,
) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, simulationID, expenseID, draft, expectedVersion))
}

func (m *MockSimulationService) DeleteExpense(
	ctx context.Context,
	simulationID, expenseID uuid.UUID,
	expectedVersion *int,
) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, simulationID, expenseID, expectedVersion))
}

func (m *MockSimulationService) SubmitFormset(
	ctx context.Context,
	id *uuid.UUID,
	sub service.FormsetSubmission,
) (*domain.Simulation, error) {
	return m.simulation(m.Called(ctx, id, sub))
}

func (m *MockSimulationService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockImportService is a testify mock of service.ImportService.
type MockImportService struct {
	mock.Mock
}

var _ service.ImportService = (*MockImportService)(nil)

func report(args mock.Arguments) (*domain.ImportReport, error) {
	r, _ := args.Get(0).(*domain.ImportReport)
	return r, args.Error(1)
}

func (m *MockImportService) Import(
	ctx context.Context,
	qt domain.QuestionType,
	raw []byte,
	opts service.ImportOptions,
) (*domain.ImportReport, error) {
	return report(m.Called(ctx, qt, raw, opts))
}

func (m *MockImportService) ImportSimulations(
	ctx context.Context,
	raw []byte,
	opts service.ImportOptions,
) (*domain.ImportReport, error) {
	return report(m.Called(ctx, raw, opts))
}

func (m *MockImportService) ImportQuestions(
	ctx context.Context,
	qt domain.QuestionType,
	raw []byte,
	opts service.ImportOptions,
) (*domain.ImportReport, error) {
	return report(m.Called(ctx, qt, raw, opts))
}

// MockGenerationService is a testify mock of service.GenerationService.
type MockGenerationService struct {
	mock.Mock
}

var _ service.GenerationService = (*MockGenerationService)(nil)

func (m *MockGenerationService) Enqueue(ctx context.Context, req generation.JobRequest) (*service.Job, error) {
	args := m.Called(ctx, req)
	job, _ := args.Get(0).(*service.Job)
	return job, args.Error(1)
}

func (m *MockGenerationService) GetJob(ctx context.Context, id uuid.UUID) (*service.Job, error) {
	args := m.Called(ctx, id)
	job, _ := args.Get(0).(*service.Job)
	return job, args.Error(1)
}

func (m *MockGenerationService) RunGeneration(
	ctx context.Context,
	req generation.JobRequest,
) (*generation.JobReport, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*generation.JobReport)
	return r, args.Error(1)
}
