package dialectic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	SessionDescription string         `gorm:"column:session_description" json:"session_description"`
	Status             string         `gorm:"column:status;not null;default:'pending_thesis'" json:"status"`
	IterationCount     int            `gorm:"column:iteration_count;not null;default:1" json:"iteration_count"`
	CurrentStageID     *uuid.UUID     `gorm:"column:current_stage_id;type:uuid" json:"current_stage_id,omitempty"`
	SelectedModelIDs   datatypes.JSON `gorm:"column:selected_model_ids;type:jsonb" json:"selected_model_ids"`
	AssociatedChatID   *uuid.UUID     `gorm:"column:associated_chat_id;type:uuid" json:"associated_chat_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Session) TableName() string { return "dialectic_session" }
