package app

import (
	"gorm.io/gorm"

	repos "github.com/yungbote/dialectic-backend/internal/data/repos/dialectic"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

type Repos struct {
	Project         repos.ProjectRepo
	Session         repos.SessionRepo
	Stage           repos.StageRepo
	Contribution    repos.ContributionRepo
	ProjectResource repos.ProjectResourceRepo
	StageFeedback   repos.StageFeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Project:         repos.NewProjectRepo(db, log),
		Session:         repos.NewSessionRepo(db, log),
		Stage:           repos.NewStageRepo(db, log),
		Contribution:    repos.NewContributionRepo(db, log),
		ProjectResource: repos.NewProjectResourceRepo(db, log),
		StageFeedback:   repos.NewStageFeedbackRepo(db, log),
	}
}
