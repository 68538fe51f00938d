package dialectic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type ProjectResourceRepo interface {
	Create(dbc dbctx.Context, resources []*types.ProjectResource) ([]*types.ProjectResource, error)
	GetByID(dbc dbctx.Context, resourceID uuid.UUID) (*types.ProjectResource, error)
	GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProjectResource, error)
	GetByProjectIDAndType(dbc dbctx.Context, projectID uuid.UUID, resourceType string) ([]*types.ProjectResource, error)
	FullDeleteByIDs(dbc dbctx.Context, resourceIDs []uuid.UUID) error
}

type projectResourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectResourceRepo(db *gorm.DB, baseLog *logger.Logger) ProjectResourceRepo {
	repoLog := baseLog.With("repo", "ProjectResourceRepo")
	return &projectResourceRepo{db: db, log: repoLog}
}

func (r *projectResourceRepo) Create(dbc dbctx.Context, resources []*types.ProjectResource) ([]*types.ProjectResource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(resources) == 0 {
		return []*types.ProjectResource{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *projectResourceRepo) GetByID(dbc dbctx.Context, resourceID uuid.UUID) (*types.ProjectResource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ProjectResource
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", resourceID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *projectResourceRepo) GetByProjectID(dbc dbctx.Context, projectID uuid.UUID) ([]*types.ProjectResource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProjectResource
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectResourceRepo) GetByProjectIDAndType(dbc dbctx.Context, projectID uuid.UUID, resourceType string) ([]*types.ProjectResource, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ProjectResource
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND resource_description ->> 'type' = ?", projectID, resourceType).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectResourceRepo) FullDeleteByIDs(dbc dbctx.Context, resourceIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(resourceIDs) == 0 {
		return nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", resourceIDs).
		Delete(&types.ProjectResource{}).Error; err != nil {
		return err
	}
	return nil
}
