package pathing

import (
	"errors"
	"fmt"
	"strings"
)

// ConstructStoragePath is the single authority for where an artifact lives.
// Every path in the bucket is produced here; nothing else is allowed to
// invent storage locations. Uses the default stage table; callers with their
// own stages go through StageDirMapper.ConstructStoragePath.
func ConstructStoragePath(ctx PathContext) (ConstructedPath, error) {
	return defaultStageDirs.ConstructStoragePath(ctx)
}

func (m StageDirMapper) ConstructStoragePath(ctx PathContext) (ConstructedPath, error) {
	switch ctx.FileType {
	case FileTypeProjectReadme:
		if ctx.ProjectID == "" {
			return ConstructedPath{}, errors.New("projectId is required for project_readme.")
		}
		return ConstructedPath{StoragePath: ctx.ProjectID, FileName: "project_readme.md"}, nil

	case FileTypeProjectSettingsFile:
		if ctx.ProjectID == "" {
			return ConstructedPath{}, errors.New("projectId is required for project_settings_file.")
		}
		return ConstructedPath{StoragePath: ctx.ProjectID, FileName: "project_settings.json"}, nil

	case FileTypePendingFile, FileTypeCurrentFile, FileTypeCompleteFile:
		if ctx.OriginalFileName == "" {
			return ConstructedPath{}, fmt.Errorf("originalFileName is required for %s.", ctx.FileType)
		}
		sub := map[FileType]string{
			FileTypePendingFile:  "Pending",
			FileTypeCurrentFile:  "Current",
			FileTypeCompleteFile: "Complete",
		}[ctx.FileType]
		return ConstructedPath{
			StoragePath: ctx.ProjectID + "/" + sub,
			FileName:    ctx.OriginalFileName,
		}, nil

	case FileTypeInitialUserPrompt, FileTypeProjectExportZip:
		if ctx.OriginalFileName == "" {
			return ConstructedPath{}, fmt.Errorf("originalFileName is required for %s.", ctx.FileType)
		}
		return ConstructedPath{
			StoragePath: ctx.ProjectID,
			FileName:    SanitizeForPath(ctx.OriginalFileName),
		}, nil

	case FileTypeGeneralResource:
		if ctx.OriginalFileName == "" {
			return ConstructedPath{}, fmt.Errorf("originalFileName is required for %s.", ctx.FileType)
		}
		return ConstructedPath{
			StoragePath: ctx.ProjectID + "/general_resource",
			FileName:    SanitizeForPath(ctx.OriginalFileName),
		}, nil

	case FileTypeSeedPrompt:
		base, ok := m.stageBasePath(ctx)
		if !ok {
			return ConstructedPath{}, errors.New("Base path context required for seed_prompt.")
		}
		return ConstructedPath{StoragePath: base, FileName: "seed_prompt.md"}, nil

	case FileTypeUserFeedback:
		// Feedback targeting a specific stored document lands next to it and
		// needs no structural context of its own.
		if ctx.OriginalStoragePath != "" && ctx.OriginalBaseName != "" {
			return ConstructedPath{
				StoragePath: ctx.OriginalStoragePath,
				FileName:    SanitizeForPath(ctx.OriginalBaseName) + "_feedback.md",
			}, nil
		}
		base, ok := m.stageBasePath(ctx)
		if !ok || ctx.StageSlug == "" {
			return ConstructedPath{}, errors.New("Base path context and stageSlug required for user_feedback.")
		}
		return ConstructedPath{
			StoragePath: base,
			FileName:    fmt.Sprintf("user_feedback_%s.md", SanitizeForPath(ctx.StageSlug)),
		}, nil

	case FileTypeContributionDocument:
		if ctx.OriginalFileName == "" {
			return ConstructedPath{}, fmt.Errorf("originalFileName is required for %s.", ctx.FileType)
		}
		base, ok := m.stageBasePath(ctx)
		if !ok {
			return ConstructedPath{}, fmt.Errorf("Base path context required for %s.", ctx.FileType)
		}
		return ConstructedPath{
			StoragePath: base + "/documents",
			FileName:    SanitizeForPath(ctx.OriginalFileName),
		}, nil

	case FileTypeRagContextSummary:
		return m.constructRagContextSummary(ctx)

	case FileTypePlannerPrompt:
		return m.constructPlannerPrompt(ctx)

	case FileTypeTurnPrompt:
		return m.constructTurnPrompt(ctx)

	case FileTypeHeaderContext, FileTypeSynthesisHeaderContext:
		return m.constructHeaderContext(ctx)

	case FileTypeAssembledDocumentJson:
		return m.constructAssembledDocumentJson(ctx)

	case FileTypeRenderedDocument:
		return m.constructRenderedDocument(ctx)

	case FileTypeModelContributionRawJson:
		return m.constructRawJson(ctx)

	case FileTypeModelContributionMain:
		return m.constructContributionMain(ctx)

	case FileTypePairwiseSynthesisChunk:
		return m.constructPairwiseChunk(ctx)

	case FileTypeReducedSynthesis:
		return m.constructReducedSynthesis(ctx)

	case FileTypeThesis, FileTypeAntithesis, FileTypeSynthesis,
		FileTypeParenthesis, FileTypeParalysis, FileTypeFinalSynthesis:
		contribCtx := ctx
		if contribCtx.ContributionType == "" {
			contribCtx.ContributionType = string(ctx.FileType)
		}
		return m.constructContributionMain(contribCtx)

	default:
		if IsDocumentKeyFileType(ctx.FileType) {
			return m.constructDocumentArtifact(ctx)
		}
		return ConstructedPath{}, fmt.Errorf("unknown file type for path construction: %q", ctx.FileType)
	}
}

func (m StageDirMapper) stageBasePath(ctx PathContext) (string, bool) {
	if ctx.ProjectID == "" || ctx.SessionID == "" || ctx.Iteration == nil {
		return "", false
	}
	return fmt.Sprintf(
		"%s/session_%s/iteration_%d/%s",
		ctx.ProjectID,
		GenerateShortID(ctx.SessionID, 8),
		*ctx.Iteration,
		m.DirName(ctx.StageSlug),
	), true
}

// requireModelValues aggregates every missing required field into one error
// so callers see the whole problem at once.
func requireModelValues(ctx PathContext, needDocumentKey bool) error {
	var missing []string
	if ctx.ProjectID == "" {
		missing = append(missing, "projectId (string, non-empty)")
	}
	if ctx.SessionID == "" {
		missing = append(missing, "sessionId (string, non-empty)")
	}
	if ctx.Iteration == nil {
		missing = append(missing, "iteration (number)")
	}
	if ctx.StageSlug == "" {
		missing = append(missing, "stageSlug (string, non-empty)")
	}
	if ctx.ModelSlug == "" {
		missing = append(missing, "modelSlug (string, non-empty)")
	}
	if ctx.AttemptCount == nil {
		missing = append(missing, "attemptCount (number)")
	}
	if needDocumentKey && ctx.DocumentKey == "" {
		missing = append(missing, "documentKey (string, non-empty)")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf(
		"constructStoragePath requires all of the following values for document file type '%s': %s",
		ctx.FileType,
		strings.Join(missing, ", "),
	)
}

func continuationIndex(ctx PathContext) (int, error) {
	if !ctx.IsContinuation {
		return 0, nil
	}
	if ctx.TurnIndex == nil || *ctx.TurnIndex <= 0 {
		return 0, errors.New("turnIndex is required and must be a number > 0 for continuation chunks")
	}
	return *ctx.TurnIndex, nil
}

// antithesisShortPattern reports whether document-centric artifacts should
// use the "{model}_critiquing_{anchor}" naming. Both conditions must hold.
func antithesisShortPattern(ctx PathContext) bool {
	return ctx.StageSlug == "antithesis" && ctx.SourceAnchorModelSlug != ""
}

// antithesisFullPattern reports whether the parenthesized lineage form
// "{model}_critiquing_({source}'s_{anchorType}_{n})" applies. It needs the
// full antithesis contribution context.
func antithesisFullPattern(ctx PathContext) bool {
	return ctx.ContributionType == "antithesis" &&
		len(ctx.SourceModelSlugs) == 1 &&
		ctx.SourceAnchorType != "" &&
		ctx.SourceAttemptCount != nil
}

func antithesisFullStem(ctx PathContext, frag string) string {
	stem := fmt.Sprintf(
		"%s_critiquing_(%s's_%s_%d)",
		SanitizeForPath(ctx.ModelSlug),
		SanitizeForPath(ctx.SourceModelSlugs[0]),
		SanitizeForPath(ctx.SourceAnchorType),
		*ctx.SourceAttemptCount,
	)
	if frag != "" {
		stem += "_" + frag
	}
	return fmt.Sprintf("%s_%d", stem, *ctx.AttemptCount)
}

func antithesisShortStem(ctx PathContext, frag string) string {
	stem := fmt.Sprintf(
		"%s_critiquing_%s",
		SanitizeForPath(ctx.ModelSlug),
		SanitizeForPath(ctx.SourceAnchorModelSlug),
	)
	if frag != "" {
		stem += "_" + frag
	}
	return fmt.Sprintf("%s_%d", stem, *ctx.AttemptCount)
}

func (m StageDirMapper) constructRagContextSummary(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	if len(ctx.SourceModelSlugs) < 2 {
		return ConstructedPath{}, errors.New("rag_context_summary requires two sourceModelSlugs.")
	}
	base, _ := m.stageBasePath(ctx)
	return ConstructedPath{
		StoragePath: base + "/_work",
		FileName: fmt.Sprintf(
			"%s_compressing_%s_and_%s_rag_summary.txt",
			SanitizeForPath(ctx.ModelSlug),
			SanitizeForPath(ctx.SourceModelSlugs[0]),
			SanitizeForPath(ctx.SourceModelSlugs[1]),
		),
	}, nil
}

func (m StageDirMapper) constructPlannerPrompt(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	name := fmt.Sprintf("%s_%d", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount)
	if ctx.StepName != "" {
		name += "_" + SanitizeForPath(ctx.StepName)
	}
	return ConstructedPath{
		StoragePath: base + "/_work/prompts",
		FileName:    name + "_planner_prompt.md",
	}, nil
}

func (m StageDirMapper) constructTurnPrompt(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, true); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	frag := ExtractSourceGroupFragment(ctx.SourceGroupFragment)
	docKey := SanitizeForPath(ctx.DocumentKey)

	var name string
	if antithesisShortPattern(ctx) {
		name = fmt.Sprintf("%s_%s", antithesisShortStem(ctx, frag), docKey)
	} else {
		name = fmt.Sprintf("%s_%d_%s", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount, docKey)
		if frag != "" {
			name += "_" + frag
		}
	}
	if turn > 0 {
		name += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{
		StoragePath: base + "/_work/prompts",
		FileName:    name + "_prompt.md",
	}, nil
}

func (m StageDirMapper) constructHeaderContext(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	frag := ExtractSourceGroupFragment(ctx.SourceGroupFragment)

	var name string
	if antithesisShortPattern(ctx) {
		name = antithesisShortStem(ctx, frag)
	} else {
		name = fmt.Sprintf("%s_%d", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount)
		if frag != "" {
			name += "_" + frag
		}
	}
	return ConstructedPath{
		StoragePath: base + "/_work/context",
		FileName:    fmt.Sprintf("%s_%s.json", name, SanitizeForPath(string(ctx.FileType))),
	}, nil
}

func (m StageDirMapper) constructAssembledDocumentJson(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, true); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	frag := ExtractSourceGroupFragment(ctx.SourceGroupFragment)
	docKey := SanitizeForPath(ctx.DocumentKey)

	var name string
	if antithesisShortPattern(ctx) {
		name = fmt.Sprintf("%s_%s", antithesisShortStem(ctx, frag), docKey)
	} else {
		name = fmt.Sprintf("%s_%d_%s", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount, docKey)
		if frag != "" {
			name += "_" + frag
		}
	}
	if turn > 0 {
		name += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{
		StoragePath: base + "/_work/assembled_json",
		FileName:    name + "_assembled.json",
	}, nil
}

func (m StageDirMapper) constructRenderedDocument(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, true); err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	frag := ExtractSourceGroupFragment(ctx.SourceGroupFragment)
	docKey := SanitizeForPath(ctx.DocumentKey)

	var name string
	if antithesisShortPattern(ctx) {
		name = fmt.Sprintf("%s_%s", antithesisShortStem(ctx, frag), docKey)
	} else {
		name = fmt.Sprintf("%s_%d_%s", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount, docKey)
		if frag != "" {
			name += "_" + frag
		}
	}
	return ConstructedPath{
		StoragePath: base + "/documents",
		FileName:    name + ".md",
	}, nil
}

func (m StageDirMapper) constructRawJson(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	frag := ExtractSourceGroupFragment(ctx.SourceGroupFragment)

	// Intermediate contribution kinds and continuations keep their raw
	// payloads out of the auditable stage root.
	workDir := turn > 0 ||
		ctx.ContributionType == "pairwise_synthesis_chunk" ||
		ctx.ContributionType == "reduced_synthesis"
	dir := base + "/raw_responses"
	if workDir {
		dir = base + "/_work/raw_responses"
	}

	var name string
	switch {
	case ctx.ContributionType == "pairwise_synthesis_chunk":
		stem, err := pairwiseStem(ctx)
		if err != nil {
			return ConstructedPath{}, err
		}
		name = stem
	case ctx.ContributionType == "reduced_synthesis":
		stem, err := reducedStem(ctx)
		if err != nil {
			return ConstructedPath{}, err
		}
		name = stem
	case antithesisFullPattern(ctx):
		tail := SanitizeForPath(ctx.ContributionType)
		if ctx.DocumentKey != "" {
			tail = SanitizeForPath(ctx.DocumentKey)
		}
		name = fmt.Sprintf("%s_%s", antithesisFullStem(ctx, frag), tail)
	case ctx.DocumentKey != "":
		name = fmt.Sprintf("%s_%d_%s", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount, SanitizeForPath(ctx.DocumentKey))
		if frag != "" {
			name += "_" + frag
		}
	default:
		tail := ctx.ContributionType
		if tail == "" {
			tail = ctx.StageSlug
		}
		name = fmt.Sprintf("%s_%d_%s", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount, SanitizeForPath(tail))
	}
	if turn > 0 {
		name += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{StoragePath: dir, FileName: name + "_raw.json"}, nil
}

func (m StageDirMapper) constructContributionMain(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)

	if ctx.StageSlug == "antithesis" && ctx.ContributionType == "antithesis" {
		if len(ctx.SourceModelSlugs) != 1 || ctx.SourceAnchorType == "" || ctx.SourceAttemptCount == nil {
			return ConstructedPath{}, errors.New("Antithesis requires one sourceModelSlug, a sourceAnchorType, and a sourceAttemptCount.")
		}
		frag := ExtractSourceGroupFragment(ctx.SourceGroupFragment)
		name := fmt.Sprintf("%s_%s", antithesisFullStem(ctx, frag), SanitizeForPath(ctx.ContributionType))
		dir := base + "/documents"
		if turn > 0 {
			dir = base + "/_work"
			name += fmt.Sprintf("_continuation_%d", turn)
		}
		return ConstructedPath{StoragePath: dir, FileName: name + ".md"}, nil
	}

	tail := ctx.ContributionType
	if tail == "" {
		tail = ctx.StageSlug
	}
	name := fmt.Sprintf("%s_%d_%s", SanitizeForPath(ctx.ModelSlug), *ctx.AttemptCount, SanitizeForPath(tail))
	dir := base
	if turn > 0 {
		dir = base + "/_work"
		name += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{StoragePath: dir, FileName: name + ".md"}, nil
}

func pairwiseStem(ctx PathContext) (string, error) {
	if ctx.SourceAnchorType == "" || ctx.SourceAnchorModelSlug == "" || ctx.PairedModelSlug == "" {
		return "", errors.New("Required sourceAnchorType, sourceAnchorModelSlug, and pairedModelSlug missing for pairwise_synthesis_chunk.")
	}
	return fmt.Sprintf(
		"%s_synthesizing_%s_with_%s_on_%s_%d_pairwise_synthesis_chunk",
		SanitizeForPath(ctx.ModelSlug),
		SanitizeForPath(ctx.SourceAnchorModelSlug),
		SanitizeForPath(ctx.PairedModelSlug),
		SanitizeForPath(ctx.SourceAnchorType),
		*ctx.AttemptCount,
	), nil
}

func reducedStem(ctx PathContext) (string, error) {
	if ctx.SourceAnchorType == "" || ctx.SourceAnchorModelSlug == "" {
		return "", errors.New("Required sourceAnchorType and sourceAnchorModelSlug missing for reduced_synthesis.")
	}
	return fmt.Sprintf(
		"%s_reducing_%s_by_%s_%d_reduced_synthesis",
		SanitizeForPath(ctx.ModelSlug),
		SanitizeForPath(ctx.SourceAnchorType),
		SanitizeForPath(ctx.SourceAnchorModelSlug),
		*ctx.AttemptCount,
	), nil
}

func (m StageDirMapper) constructPairwiseChunk(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	stem, err := pairwiseStem(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	if turn > 0 {
		stem += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{StoragePath: base + "/_work", FileName: stem + ".md"}, nil
}

func (m StageDirMapper) constructReducedSynthesis(ctx PathContext) (ConstructedPath, error) {
	if err := requireModelValues(ctx, false); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	stem, err := reducedStem(ctx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(ctx)
	if turn > 0 {
		stem += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{StoragePath: base + "/_work", FileName: stem + ".md"}, nil
}

// constructDocumentArtifact places document-key file types: markdown under
// documents/ for finals, JSON under _work for synthesis intermediates, JSON
// under documents/ for the comparison vector.
func (m StageDirMapper) constructDocumentArtifact(ctx PathContext) (ConstructedPath, error) {
	docCtx := ctx
	if docCtx.DocumentKey == "" {
		docCtx.DocumentKey = string(ctx.FileType)
	}
	if err := requireModelValues(docCtx, true); err != nil {
		return ConstructedPath{}, err
	}
	turn, err := continuationIndex(docCtx)
	if err != nil {
		return ConstructedPath{}, err
	}
	base, _ := m.stageBasePath(docCtx)
	frag := ExtractSourceGroupFragment(docCtx.SourceGroupFragment)

	ext := ".md"
	if _, ok := jsonDocumentKeys[ctx.FileType]; ok {
		ext = ".json"
	}
	_, inWork := workDocumentKeys[ctx.FileType]

	if docCtx.StageSlug == "antithesis" && docCtx.ContributionType == "antithesis" {
		if len(docCtx.SourceModelSlugs) != 1 || docCtx.SourceAnchorType == "" || docCtx.SourceAttemptCount == nil {
			return ConstructedPath{}, errors.New("Antithesis requires one sourceModelSlug, a sourceAnchorType, and a sourceAttemptCount.")
		}
		name := fmt.Sprintf("%s_%s", antithesisFullStem(docCtx, frag), SanitizeForPath(docCtx.ContributionType))
		dir := base + "/documents"
		if turn > 0 {
			dir = base + "/_work"
			name += fmt.Sprintf("_continuation_%d", turn)
		}
		return ConstructedPath{StoragePath: dir, FileName: name + ext}, nil
	}

	name := fmt.Sprintf("%s_%d_%s", SanitizeForPath(docCtx.ModelSlug), *docCtx.AttemptCount, SanitizeForPath(docCtx.DocumentKey))
	if frag != "" {
		name += "_" + frag
	}
	dir := base + "/documents"
	if inWork {
		dir = base + "/_work"
	}
	if turn > 0 {
		dir = base + "/_work"
		name += fmt.Sprintf("_continuation_%d", turn)
	}
	return ConstructedPath{StoragePath: dir, FileName: name + ext}, nil
}
