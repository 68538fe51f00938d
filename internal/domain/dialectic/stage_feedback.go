package dialectic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StageFeedback is user feedback collected at the end of a stage iteration,
// consumed by input gathering for the following iteration.
type StageFeedback struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Session   *Session  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	StageSlug       string `gorm:"column:stage_slug;not null;index" json:"stage_slug"`
	IterationNumber int    `gorm:"column:iteration_number;not null" json:"iteration_number"`
	FeedbackType    string `gorm:"column:feedback_type;not null" json:"feedback_type"`

	FileName      string `gorm:"column:file_name;not null" json:"file_name"`
	StorageBucket string `gorm:"column:storage_bucket;not null" json:"storage_bucket"`
	StoragePath   string `gorm:"column:storage_path;not null" json:"storage_path"`
	MimeType      string `gorm:"column:mime_type;not null" json:"mime_type"`
	SizeBytes     int64  `gorm:"column:size_bytes" json:"size_bytes"`

	ResourceDescription datatypes.JSON `gorm:"column:resource_description;type:jsonb" json:"resource_description"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StageFeedback) TableName() string { return "dialectic_feedback" }
