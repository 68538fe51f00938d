package dialectic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Stage is one step of the thesis/antithesis/synthesis/parenthesis/paralysis
// process. InputArtifactRules drives input gathering for prompt assembly.
type Stage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	DisplayName string    `gorm:"column:display_name;not null" json:"display_name"`
	Description string    `gorm:"column:description" json:"description"`

	DefaultSystemPromptID *uuid.UUID     `gorm:"column:default_system_prompt_id;type:uuid" json:"default_system_prompt_id,omitempty"`
	InputArtifactRules    datatypes.JSON `gorm:"column:input_artifact_rules;type:jsonb" json:"input_artifact_rules"`
	ExpectedOutputArtifacts datatypes.JSON `gorm:"column:expected_output_artifacts;type:jsonb" json:"expected_output_artifacts"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Stage) TableName() string { return "dialectic_stage" }
