package pathing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yungbote/dialectic-backend/internal/pkg/pointers"
)

const (
	testProjectID = "project-123"
	testSessionID = "abc12345-6789-0000-1111-222233334444"
)

func testBase(stage string) string {
	return fmt.Sprintf("%s/session_%s/iteration_1/%s", testProjectID, GenerateShortID(testSessionID, 8), MapStageSlugToDirName(stage))
}

func modelCtx(stage string, ft FileType) PathContext {
	return PathContext{
		ProjectID:    testProjectID,
		SessionID:    testSessionID,
		Iteration:    pointers.Int(1),
		StageSlug:    stage,
		FileType:     ft,
		ModelSlug:    "gpt-4-turbo",
		AttemptCount: pointers.Int(0),
	}
}

func mustConstruct(t *testing.T, ctx PathContext) ConstructedPath {
	t.Helper()
	p, err := ConstructStoragePath(ctx)
	if err != nil {
		t.Fatalf("ConstructStoragePath: %v", err)
	}
	return p
}

func TestConstructProjectLevelFiles(t *testing.T) {
	t.Run("project readme", func(t *testing.T) {
		p := mustConstruct(t, PathContext{ProjectID: testProjectID, FileType: FileTypeProjectReadme})
		if p.StoragePath != testProjectID || p.FileName != "project_readme.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("project settings", func(t *testing.T) {
		p := mustConstruct(t, PathContext{ProjectID: testProjectID, FileType: FileTypeProjectSettingsFile})
		if p.StoragePath != testProjectID || p.FileName != "project_settings.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("workflow dirs keep the original file name verbatim", func(t *testing.T) {
		cases := []struct {
			ft   FileType
			dir  string
			name string
		}{
			{FileTypePendingFile, "Pending", "task-abc.md"},
			{FileTypeCurrentFile, "Current", "in-progress.md"},
			{FileTypeCompleteFile, "Complete", "done.md"},
		}
		for _, c := range cases {
			p := mustConstruct(t, PathContext{ProjectID: testProjectID, FileType: c.ft, OriginalFileName: c.name})
			if p.StoragePath != testProjectID+"/"+c.dir {
				t.Errorf("%s: storage path %q", c.ft, p.StoragePath)
			}
			if p.FileName != c.name {
				t.Errorf("%s: file name %q, want %q", c.ft, p.FileName, c.name)
			}
		}
	})

	t.Run("initial user prompt sanitizes the name", func(t *testing.T) {
		p := mustConstruct(t, PathContext{ProjectID: testProjectID, FileType: FileTypeInitialUserPrompt, OriginalFileName: "My Great Idea.txt"})
		if p.StoragePath != testProjectID || p.FileName != "my_great_idea.txt" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("general resource", func(t *testing.T) {
		p := mustConstruct(t, PathContext{ProjectID: testProjectID, FileType: FileTypeGeneralResource, OriginalFileName: "API Docs.pdf"})
		if p.StoragePath != testProjectID+"/general_resource" || p.FileName != "api_docs.pdf" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("export zip", func(t *testing.T) {
		p := mustConstruct(t, PathContext{ProjectID: testProjectID, FileType: FileTypeProjectExportZip, OriginalFileName: "My Export.zip"})
		if p.StoragePath != testProjectID || p.FileName != "my_export.zip" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("missing original file name", func(t *testing.T) {
		_, err := ConstructStoragePath(PathContext{ProjectID: testProjectID, FileType: FileTypePendingFile})
		if err == nil || err.Error() != "originalFileName is required for pending_file." {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestConstructStageLevelFiles(t *testing.T) {
	t.Run("seed prompt", func(t *testing.T) {
		ctx := PathContext{ProjectID: testProjectID, SessionID: testSessionID, Iteration: pointers.Int(1), StageSlug: "thesis", FileType: FileTypeSeedPrompt}
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis") || p.FileName != "seed_prompt.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("seed prompt without base context", func(t *testing.T) {
		_, err := ConstructStoragePath(PathContext{ProjectID: testProjectID, FileType: FileTypeSeedPrompt})
		if err == nil || err.Error() != "Base path context required for seed_prompt." {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("user feedback", func(t *testing.T) {
		ctx := PathContext{ProjectID: testProjectID, SessionID: testSessionID, Iteration: pointers.Int(0), StageSlug: "synthesis", FileType: FileTypeUserFeedback}
		p := mustConstruct(t, ctx)
		wantDir := fmt.Sprintf("%s/session_%s/iteration_0/3_synthesis", testProjectID, GenerateShortID(testSessionID, 8))
		if p.StoragePath != wantDir || p.FileName != "user_feedback_synthesis.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("user feedback targeting a stored document", func(t *testing.T) {
		ctx := PathContext{
			ProjectID:           testProjectID,
			SessionID:           testSessionID,
			Iteration:           pointers.Int(1),
			StageSlug:           "thesis",
			FileType:            FileTypeUserFeedback,
			OriginalStoragePath: testBase("thesis") + "/documents",
			OriginalBaseName:    "gpt-4-turbo_0_business_case",
		}
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/documents" {
			t.Fatalf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_0_business_case_feedback.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("user feedback with only placement context", func(t *testing.T) {
		ctx := PathContext{
			ProjectID:           testProjectID,
			FileType:            FileTypeUserFeedback,
			OriginalStoragePath: testBase("thesis") + "/documents",
			OriginalBaseName:    "gpt-4-turbo_0_business_case",
		}
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/documents" {
			t.Fatalf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_0_business_case_feedback.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("user feedback without stage", func(t *testing.T) {
		_, err := ConstructStoragePath(PathContext{ProjectID: testProjectID, SessionID: testSessionID, Iteration: pointers.Int(1), FileType: FileTypeUserFeedback})
		if err == nil || err.Error() != "Base path context and stageSlug required for user_feedback." {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("contribution document", func(t *testing.T) {
		ctx := PathContext{ProjectID: testProjectID, SessionID: testSessionID, Iteration: pointers.Int(1), StageSlug: "paralysis", FileType: FileTypeContributionDocument, OriginalFileName: "Final Output Plan.docx"}
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("paralysis")+"/documents" || p.FileName != "final_output_plan.docx" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})
}

func TestConstructDocumentFileTypes(t *testing.T) {
	cases := []struct {
		stage    string
		fileType FileType
		wantName string
	}{
		{"thesis", FileTypeBusinessCase, "gpt-4-turbo_0_business_case.md"},
		{"thesis", FileTypeFeatureSpec, "gpt-4-turbo_0_feature_spec.md"},
		{"thesis", FileTypeTechnicalApproach, "gpt-4-turbo_0_technical_approach.md"},
		{"thesis", FileTypeSuccessMetrics, "gpt-4-turbo_0_success_metrics.md"},
		{"antithesis", FileTypeBusinessCaseCritique, "gpt-4-turbo_0_business_case_critique.md"},
		{"antithesis", FileTypeRiskRegister, "gpt-4-turbo_0_risk_register.md"},
		{"parenthesis", FileTypeTechnicalRequirements, "gpt-4-turbo_0_technical_requirements.md"},
		{"parenthesis", FileTypeMasterPlan, "gpt-4-turbo_0_master_plan.md"},
		{"parenthesis", FileTypeMilestoneSchema, "gpt-4-turbo_0_milestone_schema.md"},
		{"paralysis", FileTypeAdvisorRecommendations, "gpt-4-turbo_0_advisor_recommendations.md"},
	}
	for _, c := range cases {
		t.Run(string(c.fileType), func(t *testing.T) {
			ctx := modelCtx(c.stage, c.fileType)
			ctx.DocumentKey = string(c.fileType)
			p := mustConstruct(t, ctx)
			if p.StoragePath != testBase(c.stage)+"/documents" {
				t.Errorf("storage path %q", p.StoragePath)
			}
			if p.FileName != c.wantName {
				t.Errorf("file name %q, want %q", p.FileName, c.wantName)
			}
		})
	}

	t.Run("comparison vector is json in documents", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeComparisonVector)
		ctx.DocumentKey = "comparison_vector"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/documents" || p.FileName != "gpt-4-turbo_0_comparison_vector.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("synthesis intermediates are json in _work", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeSynthesisPairwiseBusinessCase)
		ctx.DocumentKey = "synthesis_pairwise_business_case"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/_work" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_0_synthesis_pairwise_business_case.json" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("missing values are reported together", func(t *testing.T) {
		_, err := ConstructStoragePath(PathContext{FileType: FileTypeBusinessCase})
		if err == nil {
			t.Fatal("expected error")
		}
		msg := err.Error()
		if !strings.HasPrefix(msg, "constructStoragePath requires all of the following values for document file type 'business_case'") {
			t.Fatalf("unexpected prefix: %q", msg)
		}
		for _, part := range []string{
			"projectId (string, non-empty)",
			"sessionId (string, non-empty)",
			"iteration (number)",
			"stageSlug (string, non-empty)",
			"modelSlug (string, non-empty)",
			"attemptCount (number)",
		} {
			if !strings.Contains(msg, part) {
				t.Errorf("missing %q in %q", part, msg)
			}
		}
	})
}

func TestConstructMainContributions(t *testing.T) {
	t.Run("main lands at the stage root", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeModelContributionMain)
		ctx.ContributionType = "thesis"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis") || p.FileName != "gpt-4-turbo_0_thesis.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("contribution type falls back to the stage slug", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeModelContributionMain)
		ctx.ModelSlug = "Claude Model 2"
		ctx.AttemptCount = pointers.Int(1)
		p := mustConstruct(t, ctx)
		if p.FileName != "claude_model_2_1_synthesis.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("antithesis main uses the lineage pattern", func(t *testing.T) {
		ctx := modelCtx("antithesis", FileTypeModelContributionMain)
		ctx.ContributionType = "antithesis"
		ctx.SourceModelSlugs = []string{"claude-3-opus"}
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAttemptCount = pointers.Int(0)
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("antithesis")+"/documents" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_critiquing_(claude-3-opus's_thesis_0)_0_antithesis.md" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("antithesis without source info is rejected", func(t *testing.T) {
		ctx := modelCtx("antithesis", FileTypeModelContributionMain)
		ctx.ContributionType = "antithesis"
		_, err := ConstructStoragePath(ctx)
		if err == nil || err.Error() != "Antithesis requires one sourceModelSlug, a sourceAnchorType, and a sourceAttemptCount." {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("antithesis contribution type outside the antithesis stage uses the simple pattern", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeAntithesis)
		ctx.ContributionType = "antithesis"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis") || p.FileName != "gpt-4-turbo_0_antithesis.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})
}

func TestConstructRawJsonContributions(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeModelContributionRawJson)
		ctx.ContributionType = "thesis"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/raw_responses" || p.FileName != "gpt-4-turbo_0_thesis_raw.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("antithesis lineage", func(t *testing.T) {
		ctx := modelCtx("antithesis", FileTypeModelContributionRawJson)
		ctx.ContributionType = "antithesis"
		ctx.SourceModelSlugs = []string{"claude-3-opus"}
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAttemptCount = pointers.Int(0)
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("antithesis")+"/raw_responses" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_critiquing_(claude-3-opus's_thesis_0)_0_antithesis_raw.json" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("antithesis lineage with document key", func(t *testing.T) {
		ctx := modelCtx("antithesis", FileTypeModelContributionRawJson)
		ctx.ModelSlug = "claude"
		ctx.AttemptCount = pointers.Int(1)
		ctx.ContributionType = "antithesis"
		ctx.DocumentKey = "business_case_critique"
		ctx.SourceModelSlugs = []string{"gpt-4"}
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAttemptCount = pointers.Int(0)
		ctx.SourceGroupFragment = "98765432"
		p := mustConstruct(t, ctx)
		if p.FileName != "claude_critiquing_(gpt-4's_thesis_0)_98765432_1_business_case_critique_raw.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("document key with fragment", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeModelContributionRawJson)
		ctx.ModelSlug = "gemini-1.5-pro"
		ctx.AttemptCount = pointers.Int(2)
		ctx.DocumentKey = "feature_spec"
		ctx.SourceGroupFragment = "12345678"
		p := mustConstruct(t, ctx)
		if p.FileName != "gemini-1.5-pro_2_feature_spec_12345678_raw.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("pairwise raw goes to _work/raw_responses", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeModelContributionRawJson)
		ctx.ContributionType = "pairwise_synthesis_chunk"
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAnchorModelSlug = "claude-3-opus"
		ctx.PairedModelSlug = "gemini-1.5-pro"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/_work/raw_responses" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_synthesizing_claude-3-opus_with_gemini-1.5-pro_on_thesis_0_pairwise_synthesis_chunk_raw.json" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("reduced raw goes to _work/raw_responses", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeModelContributionRawJson)
		ctx.ContributionType = "reduced_synthesis"
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAnchorModelSlug = "claude-3-opus"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/_work/raw_responses" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_reducing_thesis_by_claude-3-opus_0_reduced_synthesis_raw.json" {
			t.Errorf("file name %q", p.FileName)
		}
	})
}

func TestConstructIntermediateContributions(t *testing.T) {
	t.Run("pairwise synthesis chunk", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypePairwiseSynthesisChunk)
		ctx.ContributionType = "pairwise_synthesis_chunk"
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAnchorModelSlug = "claude-3-opus"
		ctx.PairedModelSlug = "gemini-1.5-pro"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/_work" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_synthesizing_claude-3-opus_with_gemini-1.5-pro_on_thesis_0_pairwise_synthesis_chunk.md" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("pairwise missing anchors", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypePairwiseSynthesisChunk)
		_, err := ConstructStoragePath(ctx)
		if err == nil || err.Error() != "Required sourceAnchorType, sourceAnchorModelSlug, and pairedModelSlug missing for pairwise_synthesis_chunk." {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("reduced synthesis", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeReducedSynthesis)
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAnchorModelSlug = "claude-3-opus"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/_work" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_reducing_thesis_by_claude-3-opus_0_reduced_synthesis.md" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("reduced missing anchors", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeReducedSynthesis)
		_, err := ConstructStoragePath(ctx)
		if err == nil || err.Error() != "Required sourceAnchorType and sourceAnchorModelSlug missing for reduced_synthesis." {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rag context summary", func(t *testing.T) {
		ctx := modelCtx("synthesis", FileTypeRagContextSummary)
		ctx.SourceModelSlugs = []string{"claude-3-opus", "gemini-1.5-pro"}
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("synthesis")+"/_work" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_compressing_claude-3-opus_and_gemini-1.5-pro_rag_summary.txt" {
			t.Errorf("file name %q", p.FileName)
		}
	})
}

func TestConstructDocumentCentricArtifacts(t *testing.T) {
	t.Run("planner prompt", func(t *testing.T) {
		p := mustConstruct(t, modelCtx("thesis", FileTypePlannerPrompt))
		if p.StoragePath != testBase("thesis")+"/_work/prompts" || p.FileName != "gpt-4-turbo_0_planner_prompt.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("planner prompt with step name", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypePlannerPrompt)
		ctx.StepName = "outline"
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4-turbo_0_outline_planner_prompt.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("turn prompt", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeTurnPrompt)
		ctx.DocumentKey = "business_case"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/_work/prompts" || p.FileName != "gpt-4-turbo_0_business_case_prompt.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("turn prompt requires a document key", func(t *testing.T) {
		_, err := ConstructStoragePath(modelCtx("thesis", FileTypeTurnPrompt))
		if err == nil || !strings.Contains(err.Error(), "documentKey (string, non-empty)") {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("header context does not require a document key", func(t *testing.T) {
		p := mustConstruct(t, modelCtx("thesis", FileTypeHeaderContext))
		if p.StoragePath != testBase("thesis")+"/_work/context" || p.FileName != "gpt-4-turbo_0_header_context.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("synthesis header context", func(t *testing.T) {
		p := mustConstruct(t, modelCtx("synthesis", FileTypeSynthesisHeaderContext))
		if p.FileName != "gpt-4-turbo_0_synthesis_header_context.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("assembled document json", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeAssembledDocumentJson)
		ctx.DocumentKey = "business_case"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/_work/assembled_json" || p.FileName != "gpt-4-turbo_0_business_case_assembled.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("rendered document", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeRenderedDocument)
		ctx.DocumentKey = "business_case"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/documents" || p.FileName != "gpt-4-turbo_0_business_case.md" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("doc-centric raw json", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeModelContributionRawJson)
		ctx.DocumentKey = "business_case"
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/raw_responses" || p.FileName != "gpt-4-turbo_0_business_case_raw.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})
}

func TestConstructAntithesisShortPattern(t *testing.T) {
	shortCtx := func(ft FileType, docKey string) PathContext {
		ctx := modelCtx("antithesis", ft)
		ctx.ModelSlug = "claude"
		ctx.AttemptCount = pointers.Int(1)
		ctx.SourceAnchorModelSlug = "gpt-4"
		ctx.DocumentKey = docKey
		ctx.SourceGroupFragment = "98765432"
		return ctx
	}

	t.Run("turn prompt", func(t *testing.T) {
		p := mustConstruct(t, shortCtx(FileTypeTurnPrompt, "business_case_critique"))
		if p.FileName != "claude_critiquing_gpt-4_98765432_1_business_case_critique_prompt.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("assembled document json", func(t *testing.T) {
		p := mustConstruct(t, shortCtx(FileTypeAssembledDocumentJson, "business_case_critique"))
		if p.FileName != "claude_critiquing_gpt-4_98765432_1_business_case_critique_assembled.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("rendered document", func(t *testing.T) {
		p := mustConstruct(t, shortCtx(FileTypeRenderedDocument, "business_case_critique"))
		if p.FileName != "claude_critiquing_gpt-4_98765432_1_business_case_critique.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("header context without fragment", func(t *testing.T) {
		ctx := modelCtx("antithesis", FileTypeHeaderContext)
		ctx.ModelSlug = "claude"
		ctx.SourceAnchorModelSlug = "gpt-4"
		p := mustConstruct(t, ctx)
		if p.FileName != "claude_critiquing_gpt-4_0_header_context.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("anchor outside the antithesis stage keeps the simple pattern", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeHeaderContext)
		ctx.SourceAnchorModelSlug = "gpt-4"
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4-turbo_0_header_context.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("antithesis stage without anchor keeps the simple pattern", func(t *testing.T) {
		ctx := modelCtx("antithesis", FileTypeHeaderContext)
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4-turbo_0_header_context.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})
}

func TestConstructFragmentPlacement(t *testing.T) {
	t.Run("header context fragment follows the attempt count", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeHeaderContext)
		ctx.SourceGroupFragment = "a1b2c3d4"
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4-turbo_0_a1b2c3d4_header_context.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("turn prompt fragment follows the document key", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeTurnPrompt)
		ctx.ModelSlug = "claude-3-5-sonnet"
		ctx.AttemptCount = pointers.Int(1)
		ctx.DocumentKey = "business_case"
		ctx.SourceGroupFragment = "f5e6d7c8"
		p := mustConstruct(t, ctx)
		if p.FileName != "claude-3-5-sonnet_1_business_case_f5e6d7c8_prompt.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("rendered document fragment follows the document key", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeRenderedDocument)
		ctx.ModelSlug = "gpt-4"
		ctx.DocumentKey = "technical_approach"
		ctx.SourceGroupFragment = "abcdef12"
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4_0_technical_approach_abcdef12.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("raw uuid fragments are shortened", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeHeaderContext)
		ctx.SourceGroupFragment = "A1B2-C3D4-E5F6"
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4-turbo_0_a1b2c3d4_header_context.json" {
			t.Fatalf("file name %q", p.FileName)
		}
	})
}

func TestConstructContinuations(t *testing.T) {
	base := func() PathContext {
		ctx := modelCtx("thesis", FileTypeModelContributionRawJson)
		ctx.DocumentKey = "business_case"
		return ctx
	}

	t.Run("root chunk has no suffix", func(t *testing.T) {
		p := mustConstruct(t, base())
		if p.StoragePath != testBase("thesis")+"/raw_responses" || p.FileName != "gpt-4-turbo_0_business_case_raw.json" {
			t.Fatalf("got %q/%q", p.StoragePath, p.FileName)
		}
	})

	t.Run("continuation chunk moves to _work and gains a suffix", func(t *testing.T) {
		ctx := base()
		ctx.IsContinuation = true
		ctx.TurnIndex = pointers.Int(1)
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/_work/raw_responses" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "gpt-4-turbo_0_business_case_continuation_1_raw.json" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("document continuation moves to _work", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeBusinessCase)
		ctx.ModelSlug = "claude-opus"
		ctx.DocumentKey = "business_case"
		ctx.IsContinuation = true
		ctx.TurnIndex = pointers.Int(1)
		p := mustConstruct(t, ctx)
		if p.StoragePath != testBase("thesis")+"/_work" {
			t.Errorf("storage path %q", p.StoragePath)
		}
		if p.FileName != "claude-opus_0_business_case_continuation_1.md" {
			t.Errorf("file name %q", p.FileName)
		}
	})

	t.Run("turn prompt continuation keeps the prompt marker last", func(t *testing.T) {
		ctx := modelCtx("thesis", FileTypeTurnPrompt)
		ctx.DocumentKey = "business_case"
		ctx.IsContinuation = true
		ctx.TurnIndex = pointers.Int(2)
		p := mustConstruct(t, ctx)
		if p.FileName != "gpt-4-turbo_0_business_case_continuation_2_prompt.md" {
			t.Fatalf("file name %q", p.FileName)
		}
	})

	t.Run("missing turn index is rejected", func(t *testing.T) {
		ctx := base()
		ctx.IsContinuation = true
		_, err := ConstructStoragePath(ctx)
		if err == nil || err.Error() != "turnIndex is required and must be a number > 0 for continuation chunks" {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non-positive turn index is rejected", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			ctx := base()
			ctx.IsContinuation = true
			ctx.TurnIndex = pointers.Int(n)
			if _, err := ConstructStoragePath(ctx); err == nil {
				t.Errorf("turnIndex %d: expected error", n)
			}
		}
	})

	t.Run("continuation indexes never collide", func(t *testing.T) {
		seen := map[string]bool{}
		root := mustConstruct(t, base())
		seen[root.FullPath()] = true
		for n := 1; n <= 3; n++ {
			ctx := base()
			ctx.IsContinuation = true
			ctx.TurnIndex = pointers.Int(n)
			p := mustConstruct(t, ctx)
			if seen[p.FullPath()] {
				t.Fatalf("duplicate path %q", p.FullPath())
			}
			seen[p.FullPath()] = true
		}
	})
}

// One model critiquing two different source models in the same stage must
// never produce the same object key.
func TestConstructAntithesisPathsAreUnique(t *testing.T) {
	build := func(source string) string {
		ctx := modelCtx("antithesis", FileTypeModelContributionMain)
		ctx.ContributionType = "antithesis"
		ctx.SourceModelSlugs = []string{source}
		ctx.SourceAnchorType = "thesis"
		ctx.SourceAttemptCount = pointers.Int(0)
		return mustConstruct(t, ctx).FullPath()
	}
	if build("claude-3-opus") == build("gemini-1.5-pro") {
		t.Fatal("paths for different critiqued models collided")
	}
}
