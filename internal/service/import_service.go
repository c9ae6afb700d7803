package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/domain/budget"
	"github.com/finlit/finlit-api/internal/domain/dedup"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/platform/validate"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/go-playground/validator/v10"
)

// ImportOptions tune a batch import.
type ImportOptions struct {
	// DryRun validates every candidate without writing.
	DryRun bool
	// Bounds, when set, applies generation plausibility limits.
	Bounds *GenerationBounds
	// Category and Difficulty fill candidates that omit them.
	Category   domain.Category
	Difficulty domain.Difficulty
}

// ImportService imports batches of candidate content. Each candidate is
// accepted or rejected on its own; a rejected candidate never blocks the
// rest of the batch.
type ImportService interface {
	// Import dispatches on the content type.
	Import(ctx context.Context, qt domain.QuestionType, raw []byte, opts ImportOptions) (*domain.ImportReport, error)

	ImportSimulations(ctx context.Context, raw []byte, opts ImportOptions) (*domain.ImportReport, error)

	ImportQuestions(
		ctx context.Context,
		qt domain.QuestionType,
		raw []byte,
		opts ImportOptions,
	) (*domain.ImportReport, error)
}

type importServiceImpl struct {
	tx          store.Transactor
	simulations store.SimulationStore
	questions   store.QuestionStore
	filter      *dedup.Filter
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewImportService creates a new ImportService. A nil filter uses the
// default duplicate threshold and global scope.
func NewImportService(
	tx store.Transactor,
	simulations store.SimulationStore,
	questions store.QuestionStore,
	filter *dedup.Filter,
	logger *slog.Logger,
) (ImportService, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if simulations == nil {
		return nil, domain.NewValidationError("simulations", "cannot be nil", domain.ErrValidation)
	}
	if questions == nil {
		return nil, domain.NewValidationError("questions", "cannot be nil", domain.ErrValidation)
	}
	if filter == nil {
		filter = dedup.NewFilter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &importServiceImpl{
		tx:          tx,
		simulations: simulations,
		questions:   questions,
		filter:      filter,
		validator:   validate.New(),
		logger:      logger.With(slog.String("component", "import_service")),
	}, nil
}

// Import implements ImportService.Import
func (s *importServiceImpl) Import(
	ctx context.Context,
	qt domain.QuestionType,
	raw []byte,
	opts ImportOptions,
) (*domain.ImportReport, error) {
	if qt == domain.QuestionTypeBudgetSimulation {
		return s.ImportSimulations(ctx, raw, opts)
	}
	return s.ImportQuestions(ctx, qt, raw, opts)
}

// candidate is one decoded and checked item ready to be stored.
type candidate struct {
	entry dedup.Entry
	// check runs the checks that need the whole built record.
	check func() error
	save  func(ctx context.Context, tx *sql.Tx) error
}

// ImportSimulations implements ImportService.ImportSimulations
func (s *importServiceImpl) ImportSimulations(
	ctx context.Context,
	raw []byte,
	opts ImportOptions,
) (*domain.ImportReport, error) {
	items, err := decodeBatch(raw)
	if err != nil {
		return nil, err
	}
	records, err := s.simulations.ListPrompts(ctx)
	if err != nil {
		return nil, NewServiceError("import", "simulations", "failed to load existing prompts", err)
	}

	prepare := func(raw json.RawMessage) (*candidate, domain.ValidationErrors) {
		var item SimulationItem
		if errs := decodeItem(raw, &item); errs != nil {
			return nil, errs
		}
		item.setDefaults(opts)
		if errs := s.check(&item, opts.Bounds, item.checkBounds); errs != nil {
			return nil, errs
		}
		sim, err := item.build()
		if err != nil {
			return nil, toValidationErrors(err)
		}
		return &candidate{
			entry: dedup.Entry{ID: sim.ID, Text: sim.Prompt, Category: sim.Category},
			check: func() error {
				return budget.ValidateSimulation(sim, sim.Expenses)
			},
			save: func(ctx context.Context, tx *sql.Tx) error {
				return s.simulations.WithTx(tx).Create(ctx, sim)
			},
		}, nil
	}

	return s.run(ctx, domain.QuestionTypeBudgetSimulation, items, records, opts, prepare)
}

// ImportQuestions implements ImportService.ImportQuestions
func (s *importServiceImpl) ImportQuestions(
	ctx context.Context,
	qt domain.QuestionType,
	raw []byte,
	opts ImportOptions,
) (*domain.ImportReport, error) {
	if _, ok := newQuestionItem(qt); !ok {
		return nil, domain.NewValidationError("type",
			fmt.Sprintf("%q is not an importable question type", qt), domain.ErrInvalidQuestionType)
	}
	items, err := decodeBatch(raw)
	if err != nil {
		return nil, err
	}
	records, err := s.questions.ListTexts(ctx, qt)
	if err != nil {
		return nil, NewServiceError("import", "questions", "failed to load existing questions", err)
	}

	prepare := func(raw json.RawMessage) (*candidate, domain.ValidationErrors) {
		item, _ := newQuestionItem(qt)
		if errs := decodeItem(raw, item); errs != nil {
			return nil, errs
		}
		item.setDefaults(opts)
		if errs := s.check(item, opts.Bounds, item.checkBounds); errs != nil {
			return nil, errs
		}
		q, err := item.build()
		if err != nil {
			return nil, toValidationErrors(err)
		}
		return &candidate{
			entry: dedup.Entry{ID: q.ID, Text: q.DuplicateText(), Category: q.Category},
			save: func(ctx context.Context, tx *sql.Tx) error {
				return s.questions.WithTx(tx).Create(ctx, q)
			},
		}, nil
	}

	return s.run(ctx, qt, items, records, opts, prepare)
}

// run pushes every item through prepare, the duplicate filter and save,
// recording one result per item.
func (s *importServiceImpl) run(
	ctx context.Context,
	qt domain.QuestionType,
	items []json.RawMessage,
	records []store.TextRecord,
	opts ImportOptions,
	prepare func(json.RawMessage) (*candidate, domain.ValidationErrors),
) (*domain.ImportReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("content_type", string(qt)),
		slog.Bool("dry_run", opts.DryRun))

	entries := make([]dedup.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, dedup.Entry{ID: r.ID, Text: r.Text, Category: r.Category})
	}
	corpus := s.filter.NewCorpus(entries)

	report := &domain.ImportReport{ContentType: qt, DryRun: opts.DryRun, Total: len(items)}
	for i, raw := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result := s.importOne(ctx, i+1, raw, corpus, opts, prepare)
		if !result.Succeeded() {
			log.Warn("import item rejected",
				slog.Int("index", result.Index),
				slog.String("status", string(result.Status)),
				slog.String("reason", result.Message))
		}
		report.Add(result)
	}

	log.Info("import finished",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded))
	return report, nil
}

func (s *importServiceImpl) importOne(
	ctx context.Context,
	index int,
	raw json.RawMessage,
	corpus *dedup.Corpus,
	opts ImportOptions,
	prepare func(json.RawMessage) (*candidate, domain.ValidationErrors),
) domain.ItemResult {
	result := domain.ItemResult{Index: index}

	c, errs := prepare(raw)
	if errs != nil {
		result.Status = domain.ItemInvalid
		result.Errors = errs.Fields()
		result.Message = errs.Error()
		return result
	}
	result.Text = c.entry.Text

	if match, dup := corpus.Find(c.entry); dup {
		id := match.ID
		result.Status = domain.ItemDuplicate
		result.DuplicateOf = &id
		result.Message = fmt.Sprintf("duplicates existing content %s", match.ID)
		return result
	}

	var err error
	if c.check != nil {
		err = c.check()
	}
	if err == nil && !opts.DryRun {
		err = s.tx.RunInTransaction(ctx, c.save)
	}

	var violation *budget.ViolationError
	switch {
	case errors.As(err, &violation):
		result.Status = domain.ItemInvalid
		result.Errors = map[string][]string{"expenses": {violation.Error()}}
		result.Message = violation.Error()
		return result
	case errors.Is(err, store.ErrDuplicate):
		result.Status = domain.ItemDuplicate
		result.Message = "duplicates existing content"
		return result
	case err != nil:
		result.Status = domain.ItemFailed
		result.Message = err.Error()
		return result
	}

	id := c.entry.ID
	result.ID = &id
	result.Status = domain.ItemCreated
	if opts.DryRun {
		result.Status = domain.ItemValid
	}
	corpus.Add(c.entry)
	return result
}

// check runs struct validation and, when bounds are set, the bounds check.
func (s *importServiceImpl) check(
	item any,
	bounds *GenerationBounds,
	checkBounds func(*GenerationBounds) domain.ValidationErrors,
) domain.ValidationErrors {
	if err := s.validator.Struct(item); err != nil {
		return validate.FieldErrors(err)
	}
	if bounds != nil {
		if errs := checkBounds(bounds); len(errs) > 0 {
			return errs
		}
	}
	return nil
}

// decodeBatch splits a JSON array into its items.
func decodeBatch(raw []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if items == nil {
		return nil, ErrInvalidBatch
	}
	return items, nil
}

func decodeItem(raw json.RawMessage, into any) domain.ValidationErrors {
	if err := json.Unmarshal(raw, into); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.ValidationErrors{domain.NewValidationError(typeErr.Field,
				fmt.Sprintf("must be a %s", typeErr.Type), domain.ErrValidation)}
		}
		return domain.ValidationErrors{domain.NewValidationError("item", err.Error(), domain.ErrValidation)}
	}
	return nil
}

func toValidationErrors(err error) domain.ValidationErrors {
	if errs, ok := domain.AsValidationErrors(err); ok {
		return errs
	}
	return domain.ValidationErrors{domain.NewValidationError("item", err.Error(), domain.ErrValidation)}
}
