package dialectic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type StageFeedbackRepo interface {
	Create(dbc dbctx.Context, feedback []*types.StageFeedback) ([]*types.StageFeedback, error)
	GetByID(dbc dbctx.Context, feedbackID uuid.UUID) (*types.StageFeedback, error)
	GetBySessionStageIteration(dbc dbctx.Context, sessionID uuid.UUID, stageSlug string, iteration int) ([]*types.StageFeedback, error)
	FullDeleteByIDs(dbc dbctx.Context, feedbackIDs []uuid.UUID) error
}

type stageFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) StageFeedbackRepo {
	repoLog := baseLog.With("repo", "StageFeedbackRepo")
	return &stageFeedbackRepo{db: db, log: repoLog}
}

func (r *stageFeedbackRepo) Create(dbc dbctx.Context, feedback []*types.StageFeedback) ([]*types.StageFeedback, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(feedback) == 0 {
		return []*types.StageFeedback{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *stageFeedbackRepo) GetByID(dbc dbctx.Context, feedbackID uuid.UUID) (*types.StageFeedback, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.StageFeedback
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", feedbackID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *stageFeedbackRepo) GetBySessionStageIteration(dbc dbctx.Context, sessionID uuid.UUID, stageSlug string, iteration int) ([]*types.StageFeedback, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StageFeedback
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ? AND stage_slug = ? AND iteration_number = ?", sessionID, stageSlug, iteration).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stageFeedbackRepo) FullDeleteByIDs(dbc dbctx.Context, feedbackIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(feedbackIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", feedbackIDs).
		Delete(&types.StageFeedback{}).Error; err != nil {
		return err
	}
	return nil
}
