package api

import (
	"log/slog"
	"net/http"

	"github.com/finlit/finlit-api/internal/api/shared"
	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/generation"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/service"
)

// ContentHandler handles staff imports and AI generation jobs.
type ContentHandler struct {
	imports    service.ImportService
	generation service.GenerationService
	logger     *slog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(
	imports service.ImportService,
	generation service.GenerationService,
	logger *slog.Logger,
) *ContentHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ContentHandler")
	}
	return &ContentHandler{
		imports:    imports,
		generation: generation,
		logger:     logger.With(slog.String("component", "content_handler")),
	}
}

// ImportSimulations handles POST /admin/imports/simulations.
func (h *ContentHandler) ImportSimulations(w http.ResponseWriter, r *http.Request) {
	h.importBatch(w, r, domain.QuestionTypeBudgetSimulation)
}

// ImportQuestions handles POST /admin/imports/questions/{type}.
func (h *ContentHandler) ImportQuestions(w http.ResponseWriter, r *http.Request) {
	qt, err := getPathQuestionType(r, "type")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.importBatch(w, r, qt)
}

// importBatch runs an import of the raw JSON array in the body. The
// response is 200 even when candidates were rejected; the report says
// which.
func (h *ContentHandler) importBatch(w http.ResponseWriter, r *http.Request, qt domain.QuestionType) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	dryRun, err := getQueryBool(r, "dry_run")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	raw, err := shared.ReadBody(w, r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	report, err := h.imports.Import(r.Context(), qt, raw, service.ImportOptions{DryRun: dryRun})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import content")
		return
	}
	log.Info("content imported",
		slog.String("content_type", string(qt)),
		slog.Bool("dry_run", dryRun),
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded))
	shared.RespondWithJSON(w, r, http.StatusOK, ImportResponse{Summary: report.Summary(), ImportReport: report})
}

// CreateGenerationJob handles POST /admin/generation-jobs. The job runs
// in the background; its state is polled with GetGenerationJob.
func (h *ContentHandler) CreateGenerationJob(w http.ResponseWriter, r *http.Request) {
	var req GenerationJobRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	jobReq, err := req.jobRequest()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, err := h.generation.Enqueue(r.Context(), jobReq)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to queue generation job")
		return
	}
	w.Header().Set("Location", "/api/admin/generation-jobs/"+job.ID.String())
	shared.RespondWithJSON(w, r, http.StatusAccepted, job)
}

// GetGenerationJob handles GET /admin/generation-jobs/{id}.
func (h *ContentHandler) GetGenerationJob(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	job, err := h.generation.GetJob(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get generation job")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

// jobRequest converts codes or slugs into a generation request. The
// struct tags have already checked that they parse.
func (req GenerationJobRequest) jobRequest() (generation.JobRequest, error) {
	out := generation.JobRequest{
		BatchSize: req.BatchSize,
		Batches:   req.Batches,
		DryRun:    req.DryRun,
	}
	var errs domain.ValidationErrors
	var err error
	if out.ContentType, err = domain.ParseQuestionType(req.ContentType); err != nil {
		errs.Add("content_type", "must be one of MC, FIB, MAD, FC, BS", domain.ErrInvalidQuestionType)
	}
	if req.Category != "" {
		if out.Category, err = domain.ParseCategory(req.Category); err != nil {
			errs.Add("category", "must be one of BUD, INV, SAV, BAL, CRD, TAX", domain.ErrInvalidCategory)
		}
	}
	if req.Difficulty != "" {
		if out.Difficulty, err = domain.ParseDifficulty(req.Difficulty); err != nil {
			errs.Add("difficulty", "must be one of B, I, A", domain.ErrInvalidDifficulty)
		}
	}
	return out, errs.Err()
}
