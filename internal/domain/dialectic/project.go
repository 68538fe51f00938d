package dialectic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	ProjectName        string     `gorm:"column:project_name;not null" json:"project_name"`
	InitialUserPrompt  string     `gorm:"column:initial_user_prompt" json:"initial_user_prompt"`
	SelectedDomainID   *uuid.UUID `gorm:"column:selected_domain_id;type:uuid" json:"selected_domain_id,omitempty"`
	RepoURL            string     `gorm:"column:repo_url" json:"repo_url,omitempty"`
	Status             string     `gorm:"column:status;not null;default:'active'" json:"status"`
	ProcessTemplateID  *uuid.UUID `gorm:"column:process_template_id;type:uuid" json:"process_template_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "dialectic_project" }
