package dialectic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error)
	GetByID(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error)
	GetByProjectIDs(dbc dbctx.Context, projectIDs []uuid.UUID) ([]*types.Session, error)
	UpdateStatus(dbc dbctx.Context, sessionID uuid.UUID, status string) error
	UpdateCurrentStage(dbc dbctx.Context, sessionID uuid.UUID, stageID uuid.UUID) error
	SoftDeleteByIDs(dbc dbctx.Context, sessionIDs []uuid.UUID) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Create(dbc dbctx.Context, sessions []*types.Session) ([]*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(sessions) == 0 {
		return []*types.Session{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, sessionID uuid.UUID) (*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Session
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", sessionID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *sessionRepo) GetByProjectIDs(dbc dbctx.Context, projectIDs []uuid.UUID) ([]*types.Session, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Session
	if len(projectIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) UpdateStatus(dbc dbctx.Context, sessionID uuid.UUID, status string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Session{}).
		Where("id = ?", sessionID).
		Update("status", status).Error; err != nil {
		return err
	}
	return nil
}

func (r *sessionRepo) UpdateCurrentStage(dbc dbctx.Context, sessionID uuid.UUID, stageID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Session{}).
		Where("id = ?", sessionID).
		Update("current_stage_id", stageID).Error; err != nil {
		return err
	}
	return nil
}

func (r *sessionRepo) SoftDeleteByIDs(dbc dbctx.Context, sessionIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(sessionIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", sessionIDs).
		Delete(&types.Session{}).Error; err != nil {
		return err
	}
	return nil
}
