package dialectic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type StageRepo interface {
	Create(dbc dbctx.Context, stages []*types.Stage) ([]*types.Stage, error)
	GetByID(dbc dbctx.Context, stageID uuid.UUID) (*types.Stage, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Stage, error)
	List(dbc dbctx.Context) ([]*types.Stage, error)
}

type stageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	repoLog := baseLog.With("repo", "StageRepo")
	return &stageRepo{db: db, log: repoLog}
}

func (r *stageRepo) Create(dbc dbctx.Context, stages []*types.Stage) ([]*types.Stage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(stages) == 0 {
		return []*types.Stage{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&stages).Error; err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *stageRepo) GetByID(dbc dbctx.Context, stageID uuid.UUID) (*types.Stage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Stage
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", stageID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *stageRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Stage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Stage
	if err := transaction.WithContext(dbc.Ctx).
		Where("slug = ?", slug).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *stageRepo) List(dbc dbctx.Context) ([]*types.Stage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Stage
	if err := transaction.WithContext(dbc.Ctx).
		Order("slug ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
