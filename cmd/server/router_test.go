package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/mocks"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/service/auth"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type routerFixture struct {
	handler     http.Handler
	gameplay    *mocks.MockGameplayService
	simulations *mocks.MockSimulationService
	learner     uuid.UUID
	staff       uuid.UUID
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		gameplay:    &mocks.MockGameplayService{},
		simulations: &mocks.MockSimulationService{},
		learner:     uuid.New(),
		staff:       uuid.New(),
	}
	jwt := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case "learner":
				return &auth.Claims{UserID: f.learner}, nil
			case "staff":
				return &auth.Claims{UserID: f.staff, Staff: true}, nil
			case "expired":
				return nil, auth.ErrExpiredToken
			default:
				return nil, auth.ErrInvalidToken
			}
		},
	}
	f.handler = newRouter(routeDeps{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		jwt:         jwt,
		gameplay:    f.gameplay,
		simulations: f.simulations,
		imports:     &mocks.MockImportService{},
		generation:  &mocks.MockGenerationService{},
	})
	t.Cleanup(func() {
		f.gameplay.AssertExpectations(t)
		f.simulations.AssertExpectations(t)
	})
	return f
}

func (f *routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/me/xp", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/me/xp", "garbage").Code)

	rec := f.do(http.MethodGet, "/api/me/xp", "expired")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token expired")

	f.gameplay.On("XP", mock.Anything, f.learner).Return(domain.XPBalance{}, nil).Once()
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/me/xp", "learner").Code)
}

func TestRouter_AdminRequiresStaff(t *testing.T) {
	f := newRouterFixture(t)
	id := uuid.New()

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/admin/simulations/"+id.String(), "learner").Code)

	f.simulations.On("Get", mock.Anything, id).Return(nil, store.ErrSimulationNotFound).Once()
	rec := f.do(http.MethodGet, "/api/admin/simulations/"+id.String(), "staff")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestRouter_PlayRoutes(t *testing.T) {
	f := newRouterFixture(t)
	sim := &service.PlayableSimulation{ID: uuid.New(), Category: domain.CategorySavings}
	f.gameplay.On("NextSimulation", mock.Anything, f.learner, domain.CategorySavings, domain.Difficulty("")).
		Return(sim, nil).Once()

	rec := f.do(http.MethodGet, "/api/play/simulations/savings", "learner")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), sim.ID.String())
}
