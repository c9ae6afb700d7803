package main

import (
	"log/slog"
	"net/http"

	"github.com/finlit/finlit-api/internal/api"
	apiMiddleware "github.com/finlit/finlit-api/internal/api/middleware"
	"github.com/finlit/finlit-api/internal/service"
	"github.com/finlit/finlit-api/internal/service/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// routeDeps are the services the router mounts.
type routeDeps struct {
	logger      *slog.Logger
	jwt         auth.JWTService
	gameplay    service.GameplayService
	simulations service.SimulationService
	imports     service.ImportService
	generation  service.GenerationService
}

func (app *application) setupRouter() http.Handler {
	return newRouter(routeDeps{
		logger:      app.logger,
		jwt:         app.jwtService,
		gameplay:    app.gameplayService,
		simulations: app.simulationService,
		imports:     app.importService,
		generation:  app.generationService,
	})
}

// newRouter registers the learner routes behind authentication and the
// content administration routes behind the staff check.
func newRouter(deps routeDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(deps.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.jwt)
	play := api.NewPlayHandler(deps.gameplay, deps.logger)
	simulations := api.NewSimulationHandler(deps.simulations, deps.logger)
	content := api.NewContentHandler(deps.imports, deps.generation, deps.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/play", func(r chi.Router) {
			r.Get("/simulations/{category}", play.NextSimulation)
			r.Post("/simulations/{id}/submit", play.SubmitBudget)
			r.Get("/questions/{type}/{category}", play.NextQuestion)
			r.Post("/questions/{type}/{id}/answer", play.AnswerQuestion)
		})
		r.Get("/me/xp", play.XP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(apiMiddleware.RequireStaff)

			r.Get("/simulations", simulations.List)
			r.Post("/simulations", simulations.Create)
			r.Route("/simulations/{id}", func(r chi.Router) {
				r.Get("/", simulations.Get)
				r.Put("/", simulations.SubmitFormset)
				r.Delete("/", simulations.Delete)
				r.Patch("/income", simulations.UpdateIncome)
				r.Post("/expenses", simulations.AddExpense)
				r.Put("/expenses/{expenseID}", simulations.UpdateExpense)
				r.Delete("/expenses/{expenseID}", simulations.DeleteExpense)
			})

			r.Post("/imports/simulations", content.ImportSimulations)
			r.Post("/imports/questions/{type}", content.ImportQuestions)
			r.Post("/generation-jobs", content.CreateGenerationJob)
			r.Get("/generation-jobs/{id}", content.GetGenerationJob)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			deps.logger.Error("Failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
