package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:                uuid.New(),
		UserID:            userID,
		ProjectName:       name,
		InitialUserPrompt: "prompt",
		Status:            "active",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:               uuid.New(),
		ProjectID:        projectID,
		Status:           "pending_thesis",
		IterationCount:   1,
		SelectedModelIDs: datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedStage(tb testing.TB, ctx context.Context, tx *gorm.DB, slug, displayName string, rules []byte) *types.Stage {
	tb.Helper()
	if rules == nil {
		rules = []byte(`{"sources": []}`)
	}
	st := &types.Stage{
		ID:                 uuid.New(),
		Slug:               slug,
		DisplayName:        displayName,
		InputArtifactRules: datatypes.JSON(rules),
	}
	if err := tx.WithContext(ctx).Create(st).Error; err != nil {
		tb.Fatalf("seed stage: %v", err)
	}
	return st
}

func SeedContribution(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, stage string, iteration int) *types.Contribution {
	tb.Helper()
	c := &types.Contribution{
		ID:              uuid.New(),
		SessionID:       sessionID,
		UserID:          userID,
		Stage:           stage,
		IterationNumber: iteration,
		ModelName:       "claude-3-opus",
		AttemptCount:    0,
		StorageBucket:   "dialectic-test",
		StoragePath:     "path/documents",
		FileName:        "file.md",
		MimeType:        "text/markdown",
		IsLatestEdit:    true,
		EditVersion:     1,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contribution: %v", err)
	}
	return c
}

func SeedProjectResource(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, fileName, resourceType string) *types.ProjectResource {
	tb.Helper()
	pr := &types.ProjectResource{
		ID:                  uuid.New(),
		ProjectID:           projectID,
		UserID:              userID,
		FileName:            fileName,
		StorageBucket:       "dialectic-test",
		StoragePath:         projectID.String(),
		MimeType:            "text/markdown",
		ResourceDescription: datatypes.JSON([]byte(`{"type": "` + resourceType + `"}`)),
	}
	if err := tx.WithContext(ctx).Create(pr).Error; err != nil {
		tb.Fatalf("seed project resource: %v", err)
	}
	return pr
}

func SeedStageFeedback(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID, projectID, userID uuid.UUID, stageSlug string, iteration int) *types.StageFeedback {
	tb.Helper()
	f := &types.StageFeedback{
		ID:              uuid.New(),
		SessionID:       sessionID,
		ProjectID:       projectID,
		UserID:          userID,
		StageSlug:       stageSlug,
		IterationNumber: iteration,
		FeedbackType:    "StageReviewSummary_v1",
		FileName:        "user_feedback_" + stageSlug + ".md",
		StorageBucket:   "dialectic-test",
		StoragePath:     "path",
		MimeType:        "text/markdown",
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed stage feedback: %v", err)
	}
	return f
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
