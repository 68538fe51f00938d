package pathing

// FileType identifies what kind of artifact a storage path points at. The
// values double as the canonical on-disk vocabulary, so they are snake_case.
type FileType string

const (
	// Project level
	FileTypeProjectReadme       FileType = "project_readme"
	FileTypeProjectSettingsFile FileType = "project_settings_file"
	FileTypeInitialUserPrompt   FileType = "initial_user_prompt"
	FileTypeGeneralResource     FileType = "general_resource"
	FileTypeProjectExportZip    FileType = "project_export_zip"
	FileTypePendingFile         FileType = "pending_file"
	FileTypeCurrentFile         FileType = "current_file"
	FileTypeCompleteFile        FileType = "complete_file"

	// Stage level
	FileTypeSeedPrompt   FileType = "seed_prompt"
	FileTypeUserFeedback FileType = "user_feedback"

	// Model contributions
	FileTypeModelContributionMain    FileType = "model_contribution_main"
	FileTypeModelContributionRawJson FileType = "model_contribution_raw_json"
	FileTypeContributionDocument     FileType = "contribution_document"

	// Contribution types that are addressable as file types directly
	FileTypeThesis                FileType = "thesis"
	FileTypeAntithesis            FileType = "antithesis"
	FileTypeSynthesis             FileType = "synthesis"
	FileTypeParenthesis           FileType = "parenthesis"
	FileTypeParalysis             FileType = "paralysis"
	FileTypePairwiseSynthesisChunk FileType = "pairwise_synthesis_chunk"
	FileTypeReducedSynthesis      FileType = "reduced_synthesis"
	FileTypeFinalSynthesis        FileType = "final_synthesis"
	FileTypeRagContextSummary     FileType = "rag_context_summary"

	// Document-centric intermediate artifacts
	FileTypePlannerPrompt          FileType = "planner_prompt"
	FileTypeTurnPrompt             FileType = "turn_prompt"
	FileTypeHeaderContext          FileType = "header_context"
	FileTypeSynthesisHeaderContext FileType = "synthesis_header_context"
	FileTypeAssembledDocumentJson  FileType = "assembled_document_json"
	FileTypeRenderedDocument       FileType = "rendered_document"

	// Document keys addressable as file types. These name the documents each
	// stage produces and render to markdown under documents/, except the
	// synthesis intermediates which are JSON under _work and the comparison
	// vector which is JSON under documents/.
	FileTypeBusinessCase                    FileType = "business_case"
	FileTypeFeatureSpec                     FileType = "feature_spec"
	FileTypeTechnicalApproach               FileType = "technical_approach"
	FileTypeSuccessMetrics                  FileType = "success_metrics"
	FileTypeBusinessCaseCritique            FileType = "business_case_critique"
	FileTypeTechnicalFeasibilityAssessment  FileType = "technical_feasibility_assessment"
	FileTypeRiskRegister                    FileType = "risk_register"
	FileTypeNonFunctionalRequirements       FileType = "non_functional_requirements"
	FileTypeDependencyMap                   FileType = "dependency_map"
	FileTypeComparisonVector                FileType = "comparison_vector"
	FileTypeSynthesisPairwiseBusinessCase   FileType = "synthesis_pairwise_business_case"
	FileTypeSynthesisPairwiseFeatureSpec    FileType = "synthesis_pairwise_feature_spec"
	FileTypeSynthesisPairwiseTechApproach   FileType = "synthesis_pairwise_technical_approach"
	FileTypeSynthesisPairwiseSuccessMetrics FileType = "synthesis_pairwise_success_metrics"
	FileTypeSynthesisDocumentBusinessCase   FileType = "synthesis_document_business_case"
	FileTypeSynthesisDocumentFeatureSpec    FileType = "synthesis_document_feature_spec"
	FileTypeSynthesisDocumentTechApproach   FileType = "synthesis_document_technical_approach"
	FileTypeSynthesisDocumentSuccessMetrics FileType = "synthesis_document_success_metrics"
	FileTypeProductRequirements             FileType = "product_requirements"
	FileTypeSystemArchitecture              FileType = "system_architecture"
	FileTypeTechStack                       FileType = "tech_stack"
	FileTypeTechnicalRequirements           FileType = "technical_requirements"
	FileTypeMasterPlan                      FileType = "master_plan"
	FileTypeMilestoneSchema                 FileType = "milestone_schema"
	FileTypeUpdatedMasterPlan               FileType = "updated_master_plan"
	FileTypeActionableChecklist             FileType = "actionable_checklist"
	FileTypeAdvisorRecommendations          FileType = "advisor_recommendations"
	FileTypeHeaderContextPairwise           FileType = "header_context_pairwise"
)

var contributionTypes = map[string]struct{}{
	"thesis":                  {},
	"antithesis":              {},
	"synthesis":               {},
	"parenthesis":             {},
	"paralysis":               {},
	"pairwise_synthesis_chunk": {},
	"reduced_synthesis":       {},
	"final_synthesis":         {},
	"rag_context_summary":     {},
}

// IsContributionType reports whether value names a model contribution kind.
func IsContributionType(value string) bool {
	_, ok := contributionTypes[value]
	return ok
}

// documentKeyFileTypes are the document keys addressable directly as file
// types. Their artifacts land under documents/ as markdown unless listed in
// jsonDocumentKeys or workDocumentKeys.
var documentKeyFileTypes = map[FileType]struct{}{
	FileTypeBusinessCase:                    {},
	FileTypeFeatureSpec:                     {},
	FileTypeTechnicalApproach:               {},
	FileTypeSuccessMetrics:                  {},
	FileTypeBusinessCaseCritique:            {},
	FileTypeTechnicalFeasibilityAssessment:  {},
	FileTypeRiskRegister:                    {},
	FileTypeNonFunctionalRequirements:       {},
	FileTypeDependencyMap:                   {},
	FileTypeComparisonVector:                {},
	FileTypeSynthesisPairwiseBusinessCase:   {},
	FileTypeSynthesisPairwiseFeatureSpec:    {},
	FileTypeSynthesisPairwiseTechApproach:   {},
	FileTypeSynthesisPairwiseSuccessMetrics: {},
	FileTypeSynthesisDocumentBusinessCase:   {},
	FileTypeSynthesisDocumentFeatureSpec:    {},
	FileTypeSynthesisDocumentTechApproach:   {},
	FileTypeSynthesisDocumentSuccessMetrics: {},
	FileTypeProductRequirements:             {},
	FileTypeSystemArchitecture:              {},
	FileTypeTechStack:                       {},
	FileTypeTechnicalRequirements:           {},
	FileTypeMasterPlan:                      {},
	FileTypeMilestoneSchema:                 {},
	FileTypeUpdatedMasterPlan:               {},
	FileTypeActionableChecklist:             {},
	FileTypeAdvisorRecommendations:          {},
	FileTypeHeaderContextPairwise:           {},
}

// IsDocumentKeyFileType reports whether ft is a document key addressable as a
// file type.
func IsDocumentKeyFileType(ft FileType) bool {
	_, ok := documentKeyFileTypes[ft]
	return ok
}

// jsonDocumentKeys render as JSON instead of markdown.
var jsonDocumentKeys = map[FileType]struct{}{
	FileTypeComparisonVector:                {},
	FileTypeSynthesisPairwiseBusinessCase:   {},
	FileTypeSynthesisPairwiseFeatureSpec:    {},
	FileTypeSynthesisPairwiseTechApproach:   {},
	FileTypeSynthesisPairwiseSuccessMetrics: {},
	FileTypeSynthesisDocumentBusinessCase:   {},
	FileTypeSynthesisDocumentFeatureSpec:    {},
	FileTypeSynthesisDocumentTechApproach:   {},
	FileTypeSynthesisDocumentSuccessMetrics: {},
}

// workDocumentKeys land under _work instead of documents/.
var workDocumentKeys = map[FileType]struct{}{
	FileTypeSynthesisPairwiseBusinessCase:   {},
	FileTypeSynthesisPairwiseFeatureSpec:    {},
	FileTypeSynthesisPairwiseTechApproach:   {},
	FileTypeSynthesisPairwiseSuccessMetrics: {},
	FileTypeSynthesisDocumentBusinessCase:   {},
	FileTypeSynthesisDocumentFeatureSpec:    {},
	FileTypeSynthesisDocumentTechApproach:   {},
	FileTypeSynthesisDocumentSuccessMetrics: {},
}

// PathContext carries everything ConstructStoragePath may need. Optional
// numeric fields are pointers so a zero attempt or iteration stays
// distinguishable from an absent one.
type PathContext struct {
	ProjectID string
	FileType  FileType

	SessionID string
	Iteration *int
	StageSlug string

	ModelSlug    string
	AttemptCount *int

	ContributionType string
	DocumentKey      string
	StepName         string

	OriginalFileName string

	SourceModelSlugs      []string
	SourceAnchorType      string
	SourceAnchorModelSlug string
	SourceAttemptCount    *int
	PairedModelSlug       string
	SourceGroupFragment   string

	IsContinuation bool
	TurnIndex      *int

	// UserFeedback placement next to an existing stored document.
	OriginalStoragePath string
	OriginalBaseName    string
}

// ConstructedPath is the directory/file pair a context resolves to.
type ConstructedPath struct {
	StoragePath string
	FileName    string
}

// FullPath joins the directory and file name with a single slash.
func (p ConstructedPath) FullPath() string {
	if p.StoragePath == "" {
		return p.FileName
	}
	return p.StoragePath + "/" + p.FileName
}

// DeconstructedPathInfo is the best-effort parse of a stored path. Every
// field is optional; absent numeric fields are nil. Parsing is lossy and the
// database row stays authoritative.
type DeconstructedPathInfo struct {
	OriginalProjectID string
	ShortSessionID    string
	Iteration         *int
	StageDirName      string
	StageSlug         string

	ModelSlug    string
	AttemptCount *int

	ContributionType string
	DocumentKey      string
	StepName         string

	SourceModelSlug       string
	SourceContributionType string
	SourceAttemptCount    *int
	SourceAnchorModelSlug string
	SourceGroupFragment   string
	SourceModelSlugs      []string

	IsContinuation bool
	TurnIndex      *int

	ParsedFileNameFromPath string
	FileTypeGuess          FileType
}
