package dialectic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type ContributionRepo interface {
	Create(dbc dbctx.Context, contributions []*types.Contribution) ([]*types.Contribution, error)
	GetByID(dbc dbctx.Context, contributionID uuid.UUID) (*types.Contribution, error)
	GetByIDs(dbc dbctx.Context, contributionIDs []uuid.UUID) ([]*types.Contribution, error)
	GetBySessionID(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Contribution, error)
	GetContinuations(dbc dbctx.Context, targetContributionID uuid.UUID) ([]*types.Contribution, error)
	GetLatestByStage(dbc dbctx.Context, sessionID uuid.UUID, stageSlug string, iteration int) ([]*types.Contribution, error)
	SetIsLatestEdit(dbc dbctx.Context, contributionID uuid.UUID, isLatest bool) error
	UpdateFileMetadata(dbc dbctx.Context, contributionID uuid.UUID, sizeBytes int64, mimeType string) error
	FullDeleteByIDs(dbc dbctx.Context, contributionIDs []uuid.UUID) error
}

type contributionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContributionRepo(db *gorm.DB, baseLog *logger.Logger) ContributionRepo {
	repoLog := baseLog.With("repo", "ContributionRepo")
	return &contributionRepo{db: db, log: repoLog}
}

func (r *contributionRepo) Create(dbc dbctx.Context, contributions []*types.Contribution) ([]*types.Contribution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(contributions) == 0 {
		return []*types.Contribution{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&contributions).Error; err != nil {
		return nil, err
	}
	return contributions, nil
}

func (r *contributionRepo) GetByID(dbc dbctx.Context, contributionID uuid.UUID) (*types.Contribution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Contribution
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", contributionID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *contributionRepo) GetByIDs(dbc dbctx.Context, contributionIDs []uuid.UUID) ([]*types.Contribution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Contribution
	if len(contributionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", contributionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contributionRepo) GetBySessionID(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.Contribution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Contribution
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contributionRepo) GetContinuations(dbc dbctx.Context, targetContributionID uuid.UUID) ([]*types.Contribution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Contribution
	if err := transaction.WithContext(dbc.Ctx).
		Where("target_contribution_id = ?", targetContributionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contributionRepo) GetLatestByStage(dbc dbctx.Context, sessionID uuid.UUID, stageSlug string, iteration int) ([]*types.Contribution, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Contribution
	if err := transaction.WithContext(dbc.Ctx).
		Where("session_id = ? AND stage = ? AND iteration_number = ? AND is_latest_edit = ?",
			sessionID, stageSlug, iteration, true).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *contributionRepo) SetIsLatestEdit(dbc dbctx.Context, contributionID uuid.UUID, isLatest bool) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Contribution{}).
		Where("id = ?", contributionID).
		Update("is_latest_edit", isLatest).Error; err != nil {
		return err
	}
	return nil
}

func (r *contributionRepo) UpdateFileMetadata(dbc dbctx.Context, contributionID uuid.UUID, sizeBytes int64, mimeType string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Contribution{}).
		Where("id = ?", contributionID).
		Updates(map[string]any{
			"size_bytes": sizeBytes,
			"mime_type":  mimeType,
		}).Error; err != nil {
		return err
	}
	return nil
}

func (r *contributionRepo) FullDeleteByIDs(dbc dbctx.Context, contributionIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(contributionIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", contributionIDs).
		Delete(&types.Contribution{}).Error; err != nil {
		return err
	}
	return nil
}
