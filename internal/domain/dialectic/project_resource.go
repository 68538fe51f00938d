package dialectic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProjectResource is a non-contribution file tied to a project: the initial
// user prompt, general resources, exports, seed prompts, and rendered
// documents promoted out of a stage.
type ProjectResource struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	FileName      string `gorm:"column:file_name;not null" json:"file_name"`
	StorageBucket string `gorm:"column:storage_bucket;not null" json:"storage_bucket"`
	StoragePath   string `gorm:"column:storage_path;not null" json:"storage_path"`
	MimeType      string `gorm:"column:mime_type;not null" json:"mime_type"`
	SizeBytes     int64  `gorm:"column:size_bytes" json:"size_bytes"`

	// ResourceDescription carries at minimum {"type": "<file type>"} plus any
	// session/stage scoping the producer recorded.
	ResourceDescription  datatypes.JSON `gorm:"column:resource_description;type:jsonb" json:"resource_description"`
	SourceContributionID *uuid.UUID     `gorm:"column:source_contribution_id;type:uuid;index" json:"source_contribution_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProjectResource) TableName() string { return "dialectic_project_resource" }
