package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	repos "github.com/yungbote/dialectic-backend/internal/data/repos/dialectic"
	"github.com/yungbote/dialectic-backend/internal/dialectic/pathing"
	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/observability"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/pkg/pointers"
	"github.com/yungbote/dialectic-backend/internal/platform/gcp"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

// maxUploadAttempts bounds the filename collision retry loop for model
// contributions. Each retry constructs a fresh path with the next
// attemptCount, so no attempt ever overwrites a prior one.
const maxUploadAttempts = 5

type FileManagerService interface {
	UploadAndRegister(dbc dbctx.Context, up UploadContext) (*RegisteredRecord, error)
	SignedURL(dbc dbctx.Context, kind RecordKind, id uuid.UUID, expiresIn time.Duration) (string, error)
	AssembleAndSaveFinalDocument(dbc dbctx.Context, rootContributionID uuid.UUID) (string, error)
}

type fileManagerService struct {
	bucket        gcp.BucketService
	bucketName    string
	contributions repos.ContributionRepo
	resources     repos.ProjectResourceRepo
	feedback      repos.StageFeedbackRepo
	log           *logger.Logger
}

func NewFileManagerService(
	bucket gcp.BucketService,
	bucketName string,
	contributions repos.ContributionRepo,
	resources repos.ProjectResourceRepo,
	feedback repos.StageFeedbackRepo,
	baseLog *logger.Logger,
) FileManagerService {
	serviceLog := baseLog.With("service", "FileManagerService")
	return &fileManagerService{
		bucket:        bucket,
		bucketName:    bucketName,
		contributions: contributions,
		resources:     resources,
		feedback:      feedback,
		log:           serviceLog,
	}
}

func (s *fileManagerService) UploadAndRegister(dbc dbctx.Context, up UploadContext) (*RegisteredRecord, error) {
	start := time.Now()
	rec, err := s.uploadAndRegister(dbc, up)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveUpload(string(up.PathContext.FileType), status, time.Since(start))
	}
	return rec, err
}

func (s *fileManagerService) uploadAndRegister(dbc dbctx.Context, up UploadContext) (*RegisteredRecord, error) {
	pc := up.PathContext
	meta := up.ContributionMetadata

	if meta != nil && meta.IsContinuation {
		pc.IsContinuation = true
		pc.TurnIndex = meta.TurnIndex
	}

	var (
		constructed pathing.ConstructedPath
		attempt     int
	)

	if meta != nil {
		uploaded := false
		for attempt = 0; attempt < maxUploadAttempts; attempt++ {
			attemptPC := pc
			attemptPC.AttemptCount = pointers.Int(attempt)
			cp, err := pathing.ConstructStoragePath(attemptPC)
			if err != nil {
				return nil, err
			}
			err = s.bucket.Upload(dbc.Ctx, cp.FullPath(), bytes.NewReader(up.FileContent), false)
			if err == nil {
				constructed = cp
				uploaded = true
				break
			}
			if errors.Is(err, gcp.ErrObjectExists) {
				s.log.Warn("upload collision, retrying with next attempt",
					"path", cp.FullPath(), "attempt", attempt)
				if metrics := observability.Current(); metrics != nil {
					metrics.IncUploadCollision()
				}
				continue
			}
			return nil, fmt.Errorf("main content upload failed: %w", err)
		}
		if !uploaded {
			return nil, fmt.Errorf("failed to upload file after %d attempts due to filename collisions", maxUploadAttempts)
		}
	} else {
		cp, err := pathing.ConstructStoragePath(pc)
		if err != nil {
			return nil, err
		}
		if err := s.bucket.Upload(dbc.Ctx, cp.FullPath(), bytes.NewReader(up.FileContent), true); err != nil {
			return nil, fmt.Errorf("main content upload failed: %w", err)
		}
		constructed = cp
	}

	// Raw response sibling is best-effort: a failure nulls the recorded path
	// and the registration proceeds without it.
	var rawResponsePath *string
	if meta != nil && len(meta.RawJSONResponse) > 0 {
		rawPC := pc
		rawPC.FileType = pathing.FileTypeModelContributionRawJson
		rawPC.AttemptCount = pointers.Int(attempt)
		if cp, err := pathing.ConstructStoragePath(rawPC); err != nil {
			s.log.Warn("raw response path construction failed", "file", constructed.FileName, "error", err)
		} else if err := s.bucket.Upload(dbc.Ctx, cp.FullPath(), bytes.NewReader(meta.RawJSONResponse), true); err != nil {
			s.log.Warn("raw response upload failed", "file", constructed.FileName, "error", err)
		} else {
			full := cp.FullPath()
			rawResponsePath = &full
		}
	}

	if meta != nil && meta.IsContinuation && meta.TargetContributionID == nil {
		s.rollbackUploads(dbc.Ctx, constructed, rawResponsePath)
		return nil, errors.New("missing target_contribution_id for continuation")
	}

	switch {
	case meta != nil:
		return s.registerContribution(dbc, up, pc, constructed, rawResponsePath)
	case up.FeedbackType != "" || pc.FileType == pathing.FileTypeUserFeedback:
		return s.registerFeedback(dbc, up, pc, constructed)
	default:
		return s.registerResource(dbc, up, pc, constructed)
	}
}

func (s *fileManagerService) registerContribution(
	dbc dbctx.Context,
	up UploadContext,
	pc pathing.PathContext,
	constructed pathing.ConstructedPath,
	rawResponsePath *string,
) (*RegisteredRecord, error) {
	meta := up.ContributionMetadata

	editVersion := meta.EditVersion
	if editVersion == 0 {
		editVersion = 1
	}
	isLatest := true
	if meta.IsLatestEdit != nil {
		isLatest = *meta.IsLatestEdit
	}

	row := &types.Contribution{
		ID:              uuid.New(),
		SessionID:       meta.SessionID,
		UserID:          up.UserID,
		Stage:           pc.StageSlug,
		IterationNumber: meta.IterationNumber,
		ModelID:         meta.ModelID,
		ModelName:       meta.ModelName,

		ContributionType: meta.ContributionType,

		StorageBucket:          s.bucketName,
		StoragePath:            constructed.StoragePath,
		FileName:               constructed.FileName,
		MimeType:               up.MimeType,
		SizeBytes:              up.SizeBytes,
		RawResponseStoragePath: rawResponsePath,

		TargetContributionID:        meta.TargetContributionID,
		OriginalModelContributionID: meta.OriginalModelContributionID,
		EditVersion:                 editVersion,
		IsLatestEdit:                isLatest,

		DocumentRelationships: meta.DocumentRelationships,
		Citations:             meta.Citations,

		SeedPromptURL:    meta.SeedPromptURL,
		TokensUsedInput:  meta.TokensUsedInput,
		TokensUsedOutput: meta.TokensUsedOutput,
		ProcessingTimeMs: meta.ProcessingTimeMs,
		ErrorDetails:     meta.ErrorDetails,
	}
	if pc.AttemptCount != nil {
		row.AttemptCount = *pc.AttemptCount
	}

	if _, err := s.contributions.Create(dbc, []*types.Contribution{row}); err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, rawResponsePath)
		return nil, fmt.Errorf("database registration failed after successful upload: %w", err)
	}

	// Continuations supersede their parent. The flip is best-effort: the new
	// row is already authoritative.
	if meta.TargetContributionID != nil {
		if err := s.contributions.SetIsLatestEdit(dbc, *meta.TargetContributionID, false); err != nil {
			s.log.Warn("failed to mark parent contribution as superseded",
				"parent_contribution_id", meta.TargetContributionID.String(), "error", err)
		}
	}

	return &RegisteredRecord{Contribution: row}, nil
}

func (s *fileManagerService) registerFeedback(
	dbc dbctx.Context,
	up UploadContext,
	pc pathing.PathContext,
	constructed pathing.ConstructedPath,
) (*RegisteredRecord, error) {
	if up.FeedbackType == "" {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, errors.New("feedback type is required for user_feedback registration")
	}

	projectID, err := uuid.Parse(pc.ProjectID)
	if err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, fmt.Errorf("invalid project id %q: %w", pc.ProjectID, err)
	}
	sessionID, err := uuid.Parse(pc.SessionID)
	if err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, fmt.Errorf("invalid session id %q: %w", pc.SessionID, err)
	}
	if pc.StageSlug == "" || pc.Iteration == nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, errors.New("missing required fields for feedback record")
	}

	row := &types.StageFeedback{
		ID:              uuid.New(),
		SessionID:       sessionID,
		ProjectID:       projectID,
		UserID:          up.UserID,
		StageSlug:       pc.StageSlug,
		IterationNumber: *pc.Iteration,
		FeedbackType:    up.FeedbackType,

		FileName:      constructed.FileName,
		StorageBucket: s.bucketName,
		StoragePath:   constructed.StoragePath,
		MimeType:      up.MimeType,
		SizeBytes:     up.SizeBytes,

		ResourceDescription: up.ResourceDescription,
	}

	if _, err := s.feedback.Create(dbc, []*types.StageFeedback{row}); err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, fmt.Errorf("database registration failed after successful upload: %w", err)
	}
	return &RegisteredRecord{Feedback: row}, nil
}

func (s *fileManagerService) registerResource(
	dbc dbctx.Context,
	up UploadContext,
	pc pathing.PathContext,
	constructed pathing.ConstructedPath,
) (*RegisteredRecord, error) {
	projectID, err := uuid.Parse(pc.ProjectID)
	if err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, fmt.Errorf("invalid project id %q: %w", pc.ProjectID, err)
	}

	description := map[string]any{"type": string(pc.FileType)}
	if up.Description != "" {
		description["originalDescription"] = up.Description
	}
	if pc.SessionID != "" {
		description["session_id"] = pc.SessionID
	}
	if pc.StageSlug != "" {
		description["stage_slug"] = pc.StageSlug
	}
	if pc.Iteration != nil {
		description["iteration"] = *pc.Iteration
	}
	if pc.DocumentKey != "" {
		description["document_key"] = pc.DocumentKey
	}
	descriptionJSON, err := json.Marshal(description)
	if err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, fmt.Errorf("marshal resource description: %w", err)
	}

	row := &types.ProjectResource{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    up.UserID,

		FileName:      constructed.FileName,
		StorageBucket: s.bucketName,
		StoragePath:   constructed.StoragePath,
		MimeType:      up.MimeType,
		SizeBytes:     up.SizeBytes,

		ResourceDescription:  datatypes.JSON(descriptionJSON),
		SourceContributionID: up.SourceContributionID,
	}

	if _, err := s.resources.Create(dbc, []*types.ProjectResource{row}); err != nil {
		s.rollbackUploads(dbc.Ctx, constructed, nil)
		return nil, fmt.Errorf("database registration failed after successful upload: %w", err)
	}
	return &RegisteredRecord{Resource: row}, nil
}

// rollbackUploads removes exactly the objects this call uploaded, never the
// whole directory. Each target is verified against a directory listing first
// so a listing failure is loud instead of deleting blind.
func (s *fileManagerService) rollbackUploads(ctx context.Context, main pathing.ConstructedPath, rawResponsePath *string) {
	targets := []string{main.FullPath()}
	if rawResponsePath != nil {
		targets = append(targets, *rawResponsePath)
	}

	outcome := "ok"
	for _, key := range targets {
		dir := path.Dir(key)
		keys, err := s.bucket.ListKeys(ctx, dir+"/")
		if err != nil {
			s.log.Error("rollback listing failed, manual cleanup may be required",
				"dir", dir, "error", err)
			outcome = "partial"
			continue
		}
		found := false
		for _, k := range keys {
			if k == key {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if err := s.bucket.Delete(ctx, key); err != nil {
			s.log.Error("rollback delete failed", "key", key, "error", err)
			outcome = "partial"
		}
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncUploadRollback(outcome)
	}
}

func (s *fileManagerService) SignedURL(dbc dbctx.Context, kind RecordKind, id uuid.UUID, expiresIn time.Duration) (string, error) {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}

	var storagePath, fileName string
	switch kind {
	case RecordKindContribution:
		row, err := s.contributions.GetByID(dbc, id)
		if err != nil {
			return "", fmt.Errorf("file record not found: %w", err)
		}
		storagePath, fileName = row.StoragePath, row.FileName
	case RecordKindResource:
		row, err := s.resources.GetByID(dbc, id)
		if err != nil {
			return "", fmt.Errorf("file record not found: %w", err)
		}
		storagePath, fileName = row.StoragePath, row.FileName
	case RecordKindFeedback:
		row, err := s.feedback.GetByID(dbc, id)
		if err != nil {
			return "", fmt.Errorf("file record not found: %w", err)
		}
		storagePath, fileName = row.StoragePath, row.FileName
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncSignedURL(string(kind))
	}
	return s.bucket.SignedURL(storagePath+"/"+fileName, expiresIn)
}

// AssembleAndSaveFinalDocument stitches a continuation chain back into one
// document at the root chunk's own path. Chunk order is the chain order, so
// downloads stay sequential.
func (s *fileManagerService) AssembleAndSaveFinalDocument(dbc dbctx.Context, rootContributionID uuid.UUID) (string, error) {
	start := time.Now()
	finalPath, chunks, err := s.assembleFinalDocument(dbc, rootContributionID)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveAssembly(status, chunks, time.Since(start))
	}
	return finalPath, err
}

func (s *fileManagerService) assembleFinalDocument(dbc dbctx.Context, rootContributionID uuid.UUID) (string, int, error) {
	root, err := s.contributions.GetByID(dbc, rootContributionID)
	if err != nil {
		return "", 0, fmt.Errorf("could not find root contribution with ID: %s", rootContributionID)
	}

	all, err := s.contributions.GetBySessionID(dbc, root.SessionID)
	if err != nil {
		return "", 0, fmt.Errorf("fetch session contributions: %w", err)
	}

	childByTarget := make(map[uuid.UUID]*types.Contribution, len(all))
	for _, c := range all {
		if c.TargetContributionID == nil {
			continue
		}
		// GetBySessionID orders by created_at, keep the earliest child.
		if _, ok := childByTarget[*c.TargetContributionID]; !ok {
			childByTarget[*c.TargetContributionID] = c
		}
	}

	visited := make(map[uuid.UUID]bool)
	var chain []*types.Contribution
	for current := root; current != nil; current = childByTarget[current.ID] {
		if visited[current.ID] {
			return "", 0, fmt.Errorf("continuation chain cycle detected at contribution %s", current.ID)
		}
		visited[current.ID] = true
		chain = append(chain, current)
	}

	var assembled bytes.Buffer
	for _, chunk := range chain {
		fullPath := chunk.StoragePath + "/" + chunk.FileName
		rc, err := s.bucket.Download(dbc.Ctx, fullPath)
		if err != nil {
			return "", 0, fmt.Errorf("failed to download chunk %s from %s: %w", chunk.ID, fullPath, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", 0, fmt.Errorf("failed to read chunk %s from %s: %w", chunk.ID, fullPath, err)
		}
		assembled.Write(content)
	}

	finalPath := root.StoragePath + "/" + root.FileName
	finalSize := int64(assembled.Len())
	if err := s.bucket.Upload(dbc.Ctx, finalPath, &assembled, true); err != nil {
		return "", 0, fmt.Errorf("failed to upload final document to %s: %w", finalPath, err)
	}

	// Flag updates are best-effort: the file is already correctly written.
	for _, chunk := range chain {
		if err := s.contributions.SetIsLatestEdit(dbc, chunk.ID, false); err != nil {
			s.log.Warn("failed to clear latest-edit flag on chunk",
				"contribution_id", chunk.ID.String(), "error", err)
		}
	}
	if err := s.contributions.SetIsLatestEdit(dbc, root.ID, true); err != nil {
		s.log.Warn("failed to set latest-edit flag on root",
			"contribution_id", root.ID.String(), "error", err)
	}
	if err := s.contributions.UpdateFileMetadata(dbc, root.ID, finalSize, root.MimeType); err != nil {
		s.log.Warn("failed to update assembled file metadata",
			"contribution_id", root.ID.String(), "error", err)
	}

	return finalPath, len(chain), nil
}
