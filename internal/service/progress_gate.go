package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/finlit/finlit-api/internal/platform/logger"
	"github.com/finlit/finlit-api/internal/store"
	"github.com/google/uuid"
)

// Award is the outcome of a successful answer passing through the gate.
type Award struct {
	// Created is true only the first time the user completed the question.
	Created bool `json:"created"`
	// XP granted by this completion; zero when already completed.
	XP int `json:"xp"`
	// CategoryTotal is the user's XP in the category after the award.
	// Only set when XP was granted.
	CategoryTotal int `json:"category_total,omitempty"`
}

// ProgressGate grants experience for the first completion of a question.
type ProgressGate interface {
	// Complete records the completion when absent and grants the
	// difficulty's XP in the same transaction. Repeated and concurrent
	// completions grant nothing and do not fail.
	Complete(
		ctx context.Context,
		userID, questionID uuid.UUID,
		qt domain.QuestionType,
		category domain.Category,
		difficulty domain.Difficulty,
	) (Award, error)

	// XP returns the user's experience per category.
	XP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error)
}

type progressGateImpl struct {
	tx       store.Transactor
	progress store.ProgressStore
	logger   *slog.Logger
}

// NewProgressGate creates a new ProgressGate.
func NewProgressGate(tx store.Transactor, progress store.ProgressStore, logger *slog.Logger) (ProgressGate, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if progress == nil {
		return nil, domain.NewValidationError("progress", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &progressGateImpl{
		tx:       tx,
		progress: progress,
		logger:   logger.With(slog.String("component", "progress_gate")),
	}, nil
}

// Complete implements ProgressGate.Complete
func (g *progressGateImpl) Complete(
	ctx context.Context,
	userID, questionID uuid.UUID,
	qt domain.QuestionType,
	category domain.Category,
	difficulty domain.Difficulty,
) (Award, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	p, err := domain.NewQuestionProgress(userID, questionID, qt, category)
	if err != nil {
		return Award{}, err
	}

	var award Award
	err = g.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		progress := g.progress.WithTx(tx)
		created, err := progress.CreateIfAbsent(ctx, p)
		if err != nil || !created {
			return err
		}
		total, err := progress.AddXP(ctx, userID, category, difficulty.XP())
		if err != nil {
			return err
		}
		award = Award{Created: true, XP: difficulty.XP(), CategoryTotal: total}
		return nil
	})
	if err != nil {
		return Award{}, NewServiceError("progress", "complete", "failed to record completion", err)
	}

	if award.Created {
		log.Info("first completion recorded",
			slog.String("user_id", userID.String()),
			slog.String("question_id", questionID.String()),
			slog.String("question_type", string(qt)),
			slog.Int("xp", award.XP))
	} else {
		log.Debug("question already completed",
			slog.String("user_id", userID.String()),
			slog.String("question_id", questionID.String()))
	}
	return award, nil
}

// XP implements ProgressGate.XP
func (g *progressGateImpl) XP(ctx context.Context, userID uuid.UUID) (domain.XPBalance, error) {
	balance, err := g.progress.GetXP(ctx, userID)
	if err != nil {
		return nil, NewServiceError("progress", "xp", "failed to load experience", err)
	}
	return balance, nil
}
