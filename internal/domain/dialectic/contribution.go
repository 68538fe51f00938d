package dialectic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Contribution is one model output registered during a session. Continuation
// chunks point at their root via TargetContributionID; the root row carries
// the assembled document once continuations are stitched together.
type Contribution struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Session   *Session  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Stage           string `gorm:"column:stage;not null;index" json:"stage"`
	IterationNumber int    `gorm:"column:iteration_number;not null" json:"iteration_number"`
	ModelID         *uuid.UUID `gorm:"column:model_id;type:uuid" json:"model_id,omitempty"`
	ModelName       string `gorm:"column:model_name" json:"model_name"`
	AttemptCount    int    `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`

	ContributionType string `gorm:"column:contribution_type" json:"contribution_type"`

	StorageBucket          string  `gorm:"column:storage_bucket;not null" json:"storage_bucket"`
	StoragePath            string  `gorm:"column:storage_path;not null" json:"storage_path"`
	FileName               string  `gorm:"column:file_name;not null" json:"file_name"`
	MimeType               string  `gorm:"column:mime_type;not null" json:"mime_type"`
	SizeBytes              int64   `gorm:"column:size_bytes" json:"size_bytes"`
	RawResponseStoragePath *string `gorm:"column:raw_response_storage_path" json:"raw_response_storage_path,omitempty"`

	TargetContributionID        *uuid.UUID `gorm:"column:target_contribution_id;type:uuid;index" json:"target_contribution_id,omitempty"`
	OriginalModelContributionID *uuid.UUID `gorm:"column:original_model_contribution_id;type:uuid" json:"original_model_contribution_id,omitempty"`
	EditVersion                 int        `gorm:"column:edit_version;not null;default:1" json:"edit_version"`
	IsLatestEdit                bool       `gorm:"column:is_latest_edit;not null;default:true" json:"is_latest_edit"`

	DocumentRelationships datatypes.JSON `gorm:"column:document_relationships;type:jsonb" json:"document_relationships"`
	Citations             datatypes.JSON `gorm:"column:citations;type:jsonb" json:"citations"`

	SeedPromptURL    *string `gorm:"column:seed_prompt_url" json:"seed_prompt_url,omitempty"`
	TokensUsedInput  *int    `gorm:"column:tokens_used_input" json:"tokens_used_input,omitempty"`
	TokensUsedOutput *int    `gorm:"column:tokens_used_output" json:"tokens_used_output,omitempty"`
	ProcessingTimeMs *int    `gorm:"column:processing_time_ms" json:"processing_time_ms,omitempty"`
	ErrorDetails     *string `gorm:"column:error_details" json:"error_details,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Contribution) TableName() string { return "dialectic_contribution" }
