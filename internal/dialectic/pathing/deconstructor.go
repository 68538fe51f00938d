package pathing

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownPath is returned when a stored path cannot be attributed to any
// artifact kind the constructor produces.
var ErrUnknownPath = errors.New("Path did not match any known deconstruction patterns.")

// DeconstructInput carries a stored object location split the way the
// database stores it: directory and file name separately.
type DeconstructInput struct {
	StorageDir string
	FileName   string
	// DBOriginalFileName is the original upload name recorded in the
	// database, used to recognize user supplied documents.
	DBOriginalFileName string
}

var (
	// Accepts both the current session_{short} form and the legacy
	// sessions/{short} form.
	sessionDirRe = regexp.MustCompile(`^([^/]+)/(?:session_|sessions/)([^/]+)/iteration_(\d+)/([^/]+)(?:/(.+))?$`)

	mainContributionRe = regexp.MustCompile(`^(.+)_(\d+)_([a-z0-9_.-]+)\.md$`)
	plannerPromptRe    = regexp.MustCompile(`^(.+)_(\d+)(?:_(.+))?_planner_prompt\.md$`)

	// Matched against extension-stripped, continuation-stripped stems so
	// continuation chunks parse the same as their roots.
	pairwiseRe = regexp.MustCompile(`^(.+?)_synthesizing_(.+)_with_(.+)_on_(.+)_(\d+)_pairwise_synthesis_chunk$`)
	reducedRe  = regexp.MustCompile(`^(.+?)_reducing_(.+)_by_(.+)_(\d+)_reduced_synthesis$`)

	ragSummaryRe = regexp.MustCompile(`^(.+?)_compressing_(.+)_and_(.+)_rag_summary\.txt$`)

	critiquingFullRe  = regexp.MustCompile(`^(.+?)_critiquing_\((.+)'s_(.+)_(\d+)\)_(.+)$`)
	critiquingShortRe = regexp.MustCompile(`^(.+?)_critiquing_(.+)$`)

	modelAttemptTailRe = regexp.MustCompile(`^(.+)_(\d+)_(.+)$`)
	modelAttemptRe     = regexp.MustCompile(`^(.+)_(\d+)$`)
	fragAttemptRe      = regexp.MustCompile(`^(.+?)_(\d+)_([a-z0-9]{8})$`)
	fragTailRe         = regexp.MustCompile(`^([a-z0-9]{8})_(\d+)_(.+)$`)
	attemptTailRe      = regexp.MustCompile(`^(\d+)_(.+)$`)
	continuationRe     = regexp.MustCompile(`_continuation_(\d+)$`)
)

// DeconstructStoragePath is the inverse of ConstructStoragePath. It parses a
// stored location back into the identifiers that produced it. The returned
// error is non-nil only when the path matches no known layout.
func DeconstructStoragePath(in DeconstructInput) (DeconstructedPathInfo, error) {
	return defaultStageDirs.DeconstructStoragePath(in)
}

func (sm StageDirMapper) DeconstructStoragePath(in DeconstructInput) (DeconstructedPathInfo, error) {
	info := DeconstructedPathInfo{ParsedFileNameFromPath: in.FileName}

	if m := sessionDirRe.FindStringSubmatch(in.StorageDir); m != nil {
		info.OriginalProjectID = m[1]
		info.ShortSessionID = m[2]
		iter, _ := strconv.Atoi(m[3])
		info.Iteration = &iter
		info.StageDirName = m[4]
		info.StageSlug = sm.StageSlug(m[4])
		if ok := deconstructStageFile(&info, m[5], in.FileName); !ok {
			return DeconstructedPathInfo{ParsedFileNameFromPath: in.FileName}, ErrUnknownPath
		}
		return info, nil
	}

	if ok := deconstructProjectFile(&info, in.StorageDir, in.FileName); !ok {
		return DeconstructedPathInfo{ParsedFileNameFromPath: in.FileName}, ErrUnknownPath
	}
	return info, nil
}

func deconstructProjectFile(info *DeconstructedPathInfo, dir, fileName string) bool {
	parts := strings.Split(dir, "/")
	switch {
	case len(parts) == 1:
		info.OriginalProjectID = parts[0]
		switch {
		case fileName == "project_readme.md":
			info.FileTypeGuess = FileTypeProjectReadme
		case fileName == "project_settings.json":
			info.FileTypeGuess = FileTypeProjectSettingsFile
		case strings.HasSuffix(fileName, ".zip"):
			info.FileTypeGuess = FileTypeProjectExportZip
		default:
			info.FileTypeGuess = FileTypeInitialUserPrompt
		}
		return true
	case len(parts) == 2 && parts[1] == "Pending":
		info.OriginalProjectID = parts[0]
		info.FileTypeGuess = FileTypePendingFile
		return true
	case len(parts) == 2 && parts[1] == "Current":
		info.OriginalProjectID = parts[0]
		info.FileTypeGuess = FileTypeCurrentFile
		return true
	case len(parts) == 2 && parts[1] == "Complete":
		info.OriginalProjectID = parts[0]
		info.FileTypeGuess = FileTypeCompleteFile
		return true
	case len(parts) == 2 && parts[1] == "general_resource":
		info.OriginalProjectID = parts[0]
		info.FileTypeGuess = FileTypeGeneralResource
		return true
	}
	return false
}

func deconstructStageFile(info *DeconstructedPathInfo, rest, fileName string) bool {
	switch rest {
	case "":
		return deconstructStageRoot(info, fileName)
	case "documents":
		return deconstructDocuments(info, fileName)
	case "raw_responses", "_work/raw_responses":
		return deconstructRawResponses(info, fileName)
	case "_work":
		return deconstructWorkRoot(info, fileName)
	case "_work/prompts":
		return deconstructPrompts(info, fileName)
	case "_work/context":
		return deconstructContext(info, fileName)
	case "_work/assembled_json":
		return deconstructAssembled(info, fileName)
	}
	return false
}

func deconstructStageRoot(info *DeconstructedPathInfo, fileName string) bool {
	if fileName == "seed_prompt.md" {
		info.FileTypeGuess = FileTypeSeedPrompt
		return true
	}
	if strings.HasPrefix(fileName, "user_feedback_") && strings.HasSuffix(fileName, ".md") {
		info.FileTypeGuess = FileTypeUserFeedback
		return true
	}
	if m := mainContributionRe.FindStringSubmatch(fileName); m != nil {
		info.ModelSlug = m[1]
		attempt, _ := strconv.Atoi(m[2])
		info.AttemptCount = &attempt
		info.ContributionType = m[3]
		info.FileTypeGuess = FileTypeModelContributionMain
		return true
	}
	return false
}

func deconstructDocuments(info *DeconstructedPathInfo, fileName string) bool {
	if strings.HasSuffix(fileName, ".md") || strings.HasSuffix(fileName, ".json") {
		isJSON := strings.HasSuffix(fileName, ".json")
		stem := strings.TrimSuffix(strings.TrimSuffix(fileName, ".md"), ".json")

		if m := critiquingFullRe.FindStringSubmatch(stem); m != nil {
			parseCritiquingFull(info, m)
			info.FileTypeGuess = guessDocumentFileType(info.DocumentKey, isJSON)
			if IsContributionType(info.DocumentKey) {
				info.ContributionType = info.DocumentKey
				info.DocumentKey = ""
				info.FileTypeGuess = FileTypeModelContributionMain
			}
			return true
		}
		if m := critiquingShortRe.FindStringSubmatch(stem); m != nil {
			if tail := modelAttemptTailRe.FindStringSubmatch(m[2]); tail != nil {
				info.ModelSlug = m[1]
				anchor, frag := splitTrailingFragment(tail[1])
				info.SourceAnchorModelSlug = anchor
				info.SourceGroupFragment = frag
				attempt, _ := strconv.Atoi(tail[2])
				info.AttemptCount = &attempt
				info.DocumentKey = tail[3]
				info.FileTypeGuess = guessDocumentFileType(tail[3], isJSON)
				return true
			}
		}
		if m := modelAttemptTailRe.FindStringSubmatch(stem); m != nil {
			info.ModelSlug = m[1]
			attempt, _ := strconv.Atoi(m[2])
			info.AttemptCount = &attempt
			key, frag := splitTrailingFragment(m[3])
			info.DocumentKey = key
			info.SourceGroupFragment = frag
			info.FileTypeGuess = guessDocumentFileType(key, isJSON)
			return true
		}
	}
	// A user supplied document stored under its sanitized original name.
	info.FileTypeGuess = FileTypeContributionDocument
	return true
}

func deconstructRawResponses(info *DeconstructedPathInfo, fileName string) bool {
	if !strings.HasSuffix(fileName, "_raw.json") {
		return false
	}
	stem := strings.TrimSuffix(fileName, "_raw.json")
	stem, turn := splitContinuation(stem)
	applyContinuation(info, turn)

	if m := pairwiseRe.FindStringSubmatch(stem); m != nil {
		parsePairwise(info, m)
		info.FileTypeGuess = FileTypeModelContributionRawJson
		return true
	}
	if m := reducedRe.FindStringSubmatch(stem); m != nil {
		parseReduced(info, m)
		info.FileTypeGuess = FileTypeModelContributionRawJson
		return true
	}
	if m := critiquingFullRe.FindStringSubmatch(stem); m != nil {
		parseCritiquingFull(info, m)
		if IsContributionType(info.DocumentKey) {
			info.ContributionType = info.DocumentKey
			info.DocumentKey = ""
			info.FileTypeGuess = FileTypeModelContributionRawJson
			return true
		}
		if ft, ok := documentKeyFileType(info.DocumentKey); ok {
			info.FileTypeGuess = ft
		} else {
			info.FileTypeGuess = FileTypeModelContributionRawJson
		}
		return true
	}
	if m := modelAttemptTailRe.FindStringSubmatch(stem); m != nil {
		info.ModelSlug = m[1]
		attempt, _ := strconv.Atoi(m[2])
		info.AttemptCount = &attempt
		tail, frag := splitTrailingFragment(m[3])
		info.SourceGroupFragment = frag
		if IsContributionType(tail) {
			info.ContributionType = tail
		} else {
			info.DocumentKey = tail
		}
		info.FileTypeGuess = FileTypeModelContributionRawJson
		return true
	}
	return false
}

func deconstructWorkRoot(info *DeconstructedPathInfo, fileName string) bool {
	if m := ragSummaryRe.FindStringSubmatch(fileName); m != nil {
		info.ModelSlug = m[1]
		info.SourceModelSlugs = []string{m[2], m[3]}
		info.FileTypeGuess = FileTypeRagContextSummary
		return true
	}
	if strings.HasSuffix(fileName, ".md") || strings.HasSuffix(fileName, ".json") {
		isJSON := strings.HasSuffix(fileName, ".json")
		stem := strings.TrimSuffix(strings.TrimSuffix(fileName, ".md"), ".json")
		stem, turn := splitContinuation(stem)
		applyContinuation(info, turn)
		if m := pairwiseRe.FindStringSubmatch(stem); m != nil {
			parsePairwise(info, m)
			info.FileTypeGuess = FileTypePairwiseSynthesisChunk
			return true
		}
		if m := reducedRe.FindStringSubmatch(stem); m != nil {
			parseReduced(info, m)
			info.FileTypeGuess = FileTypeReducedSynthesis
			return true
		}
		if m := critiquingFullRe.FindStringSubmatch(stem); m != nil {
			parseCritiquingFull(info, m)
			if IsContributionType(info.DocumentKey) {
				info.ContributionType = info.DocumentKey
				info.DocumentKey = ""
				info.FileTypeGuess = FileTypeModelContributionMain
			} else {
				info.FileTypeGuess = guessDocumentFileType(info.DocumentKey, isJSON)
			}
			return true
		}
		if m := modelAttemptTailRe.FindStringSubmatch(stem); m != nil {
			info.ModelSlug = m[1]
			attempt, _ := strconv.Atoi(m[2])
			info.AttemptCount = &attempt
			tail, frag := splitTrailingFragment(m[3])
			info.SourceGroupFragment = frag
			if IsContributionType(tail) {
				info.ContributionType = tail
				info.FileTypeGuess = FileTypeModelContributionMain
			} else {
				info.DocumentKey = tail
				info.FileTypeGuess = guessDocumentFileType(tail, isJSON)
			}
			return true
		}
	}
	return false
}

func deconstructPrompts(info *DeconstructedPathInfo, fileName string) bool {
	if !strings.HasSuffix(fileName, "_prompt.md") {
		return false
	}
	if strings.HasSuffix(fileName, "_planner_prompt.md") {
		if m := plannerPromptRe.FindStringSubmatch(fileName); m != nil {
			info.ModelSlug = m[1]
			attempt, _ := strconv.Atoi(m[2])
			info.AttemptCount = &attempt
			info.StepName = m[3]
			info.FileTypeGuess = FileTypePlannerPrompt
			return true
		}
		return false
	}
	stem := strings.TrimSuffix(fileName, "_prompt.md")
	stem, turn := splitContinuation(stem)
	applyContinuation(info, turn)

	if m := critiquingShortRe.FindStringSubmatch(stem); m != nil {
		if tail := modelAttemptTailRe.FindStringSubmatch(m[2]); tail != nil {
			info.ModelSlug = m[1]
			anchor, frag := splitTrailingFragment(tail[1])
			info.SourceAnchorModelSlug = anchor
			info.SourceGroupFragment = frag
			attempt, _ := strconv.Atoi(tail[2])
			info.AttemptCount = &attempt
			info.DocumentKey = tail[3]
			info.FileTypeGuess = FileTypeTurnPrompt
			return true
		}
	}
	if m := modelAttemptTailRe.FindStringSubmatch(stem); m != nil {
		info.ModelSlug = m[1]
		attempt, _ := strconv.Atoi(m[2])
		info.AttemptCount = &attempt
		key, frag := splitTrailingFragment(m[3])
		info.DocumentKey = key
		info.SourceGroupFragment = frag
		info.FileTypeGuess = FileTypeTurnPrompt
		return true
	}
	return false
}

func deconstructContext(info *DeconstructedPathInfo, fileName string) bool {
	var kind FileType
	var stem string
	switch {
	case strings.HasSuffix(fileName, "_synthesis_header_context.json"):
		kind = FileTypeSynthesisHeaderContext
		stem = strings.TrimSuffix(fileName, "_synthesis_header_context.json")
	case strings.HasSuffix(fileName, "_header_context.json"):
		kind = FileTypeHeaderContext
		stem = strings.TrimSuffix(fileName, "_header_context.json")
	default:
		return false
	}

	if m := critiquingShortRe.FindStringSubmatch(stem); m != nil {
		if tail := modelAttemptRe.FindStringSubmatch(m[2]); tail != nil {
			info.ModelSlug = m[1]
			anchor, frag := splitTrailingFragment(tail[1])
			info.SourceAnchorModelSlug = anchor
			info.SourceGroupFragment = frag
			attempt, _ := strconv.Atoi(tail[2])
			info.AttemptCount = &attempt
			info.FileTypeGuess = kind
			return true
		}
	}
	if m := fragAttemptRe.FindStringSubmatch(stem); m != nil && containsDigit(m[3]) {
		info.ModelSlug = m[1]
		attempt, _ := strconv.Atoi(m[2])
		info.AttemptCount = &attempt
		info.SourceGroupFragment = m[3]
		info.FileTypeGuess = kind
		return true
	}
	if m := modelAttemptRe.FindStringSubmatch(stem); m != nil {
		info.ModelSlug = m[1]
		attempt, _ := strconv.Atoi(m[2])
		info.AttemptCount = &attempt
		info.FileTypeGuess = kind
		return true
	}
	return false
}

func deconstructAssembled(info *DeconstructedPathInfo, fileName string) bool {
	if !strings.HasSuffix(fileName, "_assembled.json") {
		return false
	}
	stem := strings.TrimSuffix(fileName, "_assembled.json")
	stem, turn := splitContinuation(stem)
	applyContinuation(info, turn)

	if m := critiquingShortRe.FindStringSubmatch(stem); m != nil {
		if tail := modelAttemptTailRe.FindStringSubmatch(m[2]); tail != nil {
			info.ModelSlug = m[1]
			anchor, frag := splitTrailingFragment(tail[1])
			info.SourceAnchorModelSlug = anchor
			info.SourceGroupFragment = frag
			attempt, _ := strconv.Atoi(tail[2])
			info.AttemptCount = &attempt
			info.DocumentKey = tail[3]
			info.FileTypeGuess = FileTypeAssembledDocumentJson
			return true
		}
	}
	if m := modelAttemptTailRe.FindStringSubmatch(stem); m != nil {
		info.ModelSlug = m[1]
		attempt, _ := strconv.Atoi(m[2])
		info.AttemptCount = &attempt
		key, frag := splitTrailingFragment(m[3])
		info.DocumentKey = key
		info.SourceGroupFragment = frag
		info.FileTypeGuess = FileTypeAssembledDocumentJson
		return true
	}
	return false
}

func parseCritiquingFull(info *DeconstructedPathInfo, m []string) {
	info.ModelSlug = m[1]
	info.SourceModelSlug = m[2]
	info.SourceContributionType = m[3]
	srcAttempt, _ := strconv.Atoi(m[4])
	info.SourceAttemptCount = &srcAttempt

	tail := m[5]
	if fm := fragTailRe.FindStringSubmatch(tail); fm != nil && containsDigit(fm[1]) {
		info.SourceGroupFragment = fm[1]
		attempt, _ := strconv.Atoi(fm[2])
		info.AttemptCount = &attempt
		info.DocumentKey = fm[3]
		return
	}
	if m2 := attemptTailRe.FindStringSubmatch(tail); m2 != nil {
		attempt, _ := strconv.Atoi(m2[1])
		info.AttemptCount = &attempt
		info.DocumentKey = m2[2]
	}
}

func parsePairwise(info *DeconstructedPathInfo, m []string) {
	info.ModelSlug = m[1]
	info.SourceAnchorModelSlug = m[2]
	info.SourceContributionType = m[4]
	attempt, _ := strconv.Atoi(m[5])
	info.AttemptCount = &attempt
	info.ContributionType = "pairwise_synthesis_chunk"
}

func parseReduced(info *DeconstructedPathInfo, m []string) {
	info.ModelSlug = m[1]
	info.SourceContributionType = m[2]
	info.SourceAnchorModelSlug = m[3]
	attempt, _ := strconv.Atoi(m[4])
	info.AttemptCount = &attempt
	info.ContributionType = "reduced_synthesis"
}

// splitTrailingFragment peels an eight character lineage fragment off the end
// of a name segment. Fragments are short ids, so a candidate without a digit
// is treated as part of the name instead.
func splitTrailingFragment(s string) (string, string) {
	idx := strings.LastIndex(s, "_")
	if idx <= 0 {
		return s, ""
	}
	cand := s[idx+1:]
	if len(cand) != 8 || !containsDigit(cand) {
		return s, ""
	}
	for _, r := range cand {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return s, ""
		}
	}
	return s[:idx], cand
}

func splitContinuation(stem string) (string, int) {
	m := continuationRe.FindStringSubmatch(stem)
	if m == nil {
		return stem, 0
	}
	n, _ := strconv.Atoi(m[1])
	return strings.TrimSuffix(stem, m[0]), n
}

func applyContinuation(info *DeconstructedPathInfo, turn int) {
	if turn <= 0 {
		return
	}
	info.IsContinuation = true
	info.TurnIndex = &turn
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func documentKeyFileType(key string) (FileType, bool) {
	ft := FileType(key)
	if IsDocumentKeyFileType(ft) {
		return ft, true
	}
	return "", false
}

func guessDocumentFileType(key string, isJSON bool) FileType {
	if ft, ok := documentKeyFileType(key); ok {
		return ft
	}
	if isJSON {
		return FileTypeComparisonVector
	}
	return FileTypeRenderedDocument
}
