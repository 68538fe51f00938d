package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/dialectic-backend/internal/domain/dialectic"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&dialectic.Project{},
		&dialectic.Session{},
		&dialectic.Stage{},
		&dialectic.Contribution{},
		&dialectic.ProjectResource{},
		&dialectic.StageFeedback{},
	)
}

func Migrate(svc *PostgresService) error {
	if err := AutoMigrateAll(svc.DB()); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}
	return nil
}
