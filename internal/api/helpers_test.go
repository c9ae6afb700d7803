package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/mocks"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router      chi.Router
	gameplay    *mocks.MockGameplayService
	simulations *mocks.MockSimulationService
	imports     *mocks.MockImportService
	generation  *mocks.MockGenerationService
	userID      uuid.UUID
}

// newTestServer mounts every handler on a router that authenticates each
// request as userID unless anonymous is set.
func newTestServer(t *testing.T, anonymous bool) *testServer {
	t.Helper()
	s := &testServer{
		gameplay:    &mocks.MockGameplayService{},
		simulations: &mocks.MockSimulationService{},
		imports:     &mocks.MockImportService{},
		generation:  &mocks.MockGenerationService{},
		userID:      uuid.New(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	play := NewPlayHandler(s.gameplay, log)
	sims := NewSimulationHandler(s.simulations, log)
	content := NewContentHandler(s.imports, s.generation, log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !anonymous {
				req = req.WithContext(shared.WithUser(req.Context(), s.userID, true))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/play/simulations/{category}", play.NextSimulation)
	r.Post("/play/simulations/{id}/submit", play.SubmitBudget)
	r.Get("/play/questions/{type}/{category}", play.NextQuestion)
	r.Post("/play/questions/{type}/{id}/answer", play.AnswerQuestion)
	r.Get("/me/xp", play.XP)
	r.Get("/admin/simulations", sims.List)
	r.Post("/admin/simulations", sims.Create)
	r.Get("/admin/simulations/{id}", sims.Get)
	r.Put("/admin/simulations/{id}", sims.SubmitFormset)
	r.Delete("/admin/simulations/{id}", sims.Delete)
	r.Patch("/admin/simulations/{id}/income", sims.UpdateIncome)
	r.Post("/admin/simulations/{id}/expenses", sims.AddExpense)
	r.Put("/admin/simulations/{id}/expenses/{expenseID}", sims.UpdateExpense)
	r.Delete("/admin/simulations/{id}/expenses/{expenseID}", sims.DeleteExpense)
	r.Post("/admin/imports/simulations", content.ImportSimulations)
	r.Post("/admin/imports/questions/{type}", content.ImportQuestions)
	r.Post("/admin/generation-jobs", content.CreateGenerationJob)
	r.Get("/admin/generation-jobs/{id}", content.GetGenerationJob)
	s.router = r

	t.Cleanup(func() {
		s.gameplay.AssertExpectations(t)
		s.simulations.AssertExpectations(t)
		s.imports.AssertExpectations(t)
		s.generation.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
