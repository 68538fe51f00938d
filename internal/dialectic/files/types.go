package files

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/dialectic/pathing"
)

// ContributionMetadata carries the model-call bookkeeping that lands on the
// contribution row alongside the uploaded content.
type ContributionMetadata struct {
	SessionID       uuid.UUID
	IterationNumber int

	ModelID   *uuid.UUID
	ModelName string

	ContributionType string

	// RawJSONResponse, when set, is uploaded as a sibling raw-response object.
	// That upload is best-effort.
	RawJSONResponse []byte

	TokensUsedInput  *int
	TokensUsedOutput *int
	ProcessingTimeMs *int
	Citations        datatypes.JSON

	DocumentRelationships datatypes.JSON

	IsContinuation       bool
	TurnIndex            *int
	TargetContributionID *uuid.UUID

	// EditVersion defaults to 1 and IsLatestEdit to true when unset.
	EditVersion                 int
	IsLatestEdit                *bool
	OriginalModelContributionID *uuid.UUID

	SeedPromptURL *string
	ErrorDetails  *string
}

// UploadContext is the full input to UploadAndRegister. Exactly one register
// target applies: ContributionMetadata selects the contributions table,
// FeedbackType selects the feedback table, everything else lands in project
// resources.
type UploadContext struct {
	PathContext pathing.PathContext

	FileContent []byte
	MimeType    string
	SizeBytes   int64
	UserID      uuid.UUID

	// Project resource fields.
	Description          string
	SourceContributionID *uuid.UUID

	// Feedback fields.
	FeedbackType        string
	ResourceDescription datatypes.JSON

	ContributionMetadata *ContributionMetadata
}

// RegisteredRecord is the row created by UploadAndRegister. Exactly one field
// is non-nil, matching the register target the context selected.
type RegisteredRecord struct {
	Contribution *types.Contribution
	Resource     *types.ProjectResource
	Feedback     *types.StageFeedback
}

// RecordKind names the table a registered file row lives in.
type RecordKind string

const (
	RecordKindContribution RecordKind = "contribution"
	RecordKindResource     RecordKind = "resource"
	RecordKindFeedback     RecordKind = "feedback"
)
