package gather

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	repos "github.com/yungbote/dialectic-backend/internal/data/repos/dialectic"
	types "github.com/yungbote/dialectic-backend/internal/domain/dialectic"
	"github.com/yungbote/dialectic-backend/internal/observability"
	"github.com/yungbote/dialectic-backend/internal/pkg/dbctx"
	"github.com/yungbote/dialectic-backend/internal/platform/gcp"
	"github.com/yungbote/dialectic-backend/internal/platform/logger"
)

// Rule is one declarative input requirement on a stage. Required defaults to
// true when omitted.
type Rule struct {
	Type          string `json:"type"`
	StageSlug     string `json:"stage_slug"`
	Required      *bool  `json:"required,omitempty"`
	Multiple      bool   `json:"multiple,omitempty"`
	SectionHeader string `json:"section_header,omitempty"`
	DocumentKey   string `json:"document_key,omitempty"`
}

type RuleSet struct {
	Sources []Rule `json:"sources"`
}

type Metadata struct {
	DisplayName string
	ModelName   string
	Header      string
}

// SourceDocument is one resolved, downloaded input for prompt assembly.
type SourceDocument struct {
	ID       string
	Type     string
	Content  string
	Metadata Metadata
}

type Service interface {
	GatherInputsForStage(dbc dbctx.Context, stage *types.Stage, project *types.Project, session *types.Session, iteration int) ([]SourceDocument, error)
}

type service struct {
	contributions repos.ContributionRepo
	resources     repos.ProjectResourceRepo
	feedback      repos.StageFeedbackRepo
	stages        repos.StageRepo
	bucket        gcp.BucketService
	log           *logger.Logger
}

func NewService(
	contributions repos.ContributionRepo,
	resources repos.ProjectResourceRepo,
	feedback repos.StageFeedbackRepo,
	stages repos.StageRepo,
	bucket gcp.BucketService,
	baseLog *logger.Logger,
) Service {
	serviceLog := baseLog.With("service", "GatherService")
	return &service{
		contributions: contributions,
		resources:     resources,
		feedback:      feedback,
		stages:        stages,
		bucket:        bucket,
		log:           serviceLog,
	}
}

func (s *service) GatherInputsForStage(dbc dbctx.Context, stage *types.Stage, project *types.Project, session *types.Session, iteration int) ([]SourceDocument, error) {
	docs, err := s.gatherInputs(dbc, stage, project, session, iteration)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveGather(stage.Slug, status, len(docs))
	}
	return docs, err
}

func (s *service) gatherInputs(dbc dbctx.Context, stage *types.Stage, project *types.Project, session *types.Session, iteration int) ([]SourceDocument, error) {
	out := []SourceDocument{}

	if len(stage.InputArtifactRules) == 0 {
		s.log.Info("no input artifact rules defined for stage", "stage", stage.Slug)
		return out, nil
	}

	var rules RuleSet
	if err := json.Unmarshal(stage.InputArtifactRules, &rules); err != nil {
		s.log.Error("failed to parse input artifact rules", "stage", stage.Slug, "error", err)
		return out, nil
	}
	if len(rules.Sources) == 0 {
		s.log.Info("parsed input artifact rules are empty", "stage", stage.Slug)
		return out, nil
	}

	displayNames := s.displayNames(dbc, rules.Sources)

	for _, rule := range rules.Sources {
		displayName := displayNames[rule.StageSlug]

		switch rule.Type {
		case "contribution", "document":
			docs, err := s.resolveDocuments(dbc, rule, displayName, project, session, iteration)
			if err != nil {
				return nil, err
			}
			out = append(out, docs...)
		case "feedback":
			docs, err := s.resolveFeedback(dbc, rule, displayName, project, session, iteration)
			if err != nil {
				return nil, err
			}
			out = append(out, docs...)
		default:
			// Other rule types (e.g. the initial project prompt) are consumed
			// elsewhere in prompt assembly, not as prior-stage inputs.
		}
	}

	return out, nil
}

func (s *service) displayNames(dbc dbctx.Context, rules []Rule) map[string]string {
	names := make(map[string]string)
	for _, rule := range rules {
		if rule.StageSlug == "" {
			continue
		}
		if _, done := names[rule.StageSlug]; done {
			continue
		}
		if st, err := s.stages.GetBySlug(dbc, rule.StageSlug); err == nil && st.DisplayName != "" {
			names[rule.StageSlug] = st.DisplayName
			continue
		}
		names[rule.StageSlug] = capitalize(rule.StageSlug)
	}
	return names
}

func capitalize(slug string) string {
	if slug == "" {
		return slug
	}
	return strings.ToUpper(slug[:1]) + slug[1:]
}

func ruleRequired(rule Rule) bool {
	return rule.Required == nil || *rule.Required
}

// resourceDescription is the portion of a project resource's description this
// engine filters on.
type resourceDescription struct {
	Type        string `json:"type"`
	SessionID   string `json:"session_id"`
	StageSlug   string `json:"stage_slug"`
	DocumentKey string `json:"document_key"`
}

// resolveDocuments serves both contribution and document rules. Document
// rules prefer already-rendered project resources; only when none exist does
// the rule fall back to the stage's latest raw contributions.
func (s *service) resolveDocuments(dbc dbctx.Context, rule Rule, displayName string, project *types.Project, session *types.Session, iteration int) ([]SourceDocument, error) {
	required := ruleRequired(rule)

	if rule.Type == "document" {
		docs, err := s.renderedResources(dbc, rule, displayName, project, session)
		if err != nil {
			if required {
				return nil, err
			}
			s.log.Warn("optional rendered resource lookup failed", "stage_slug", rule.StageSlug, "error", err)
		}
		if len(docs) > 0 {
			return docs, nil
		}
	}

	rows, err := s.contributions.GetLatestByStage(dbc, session.ID, rule.StageSlug, iteration)
	if err != nil {
		s.log.Error("failed to retrieve contributions",
			"stage_slug", rule.StageSlug, "session_id", session.ID.String(), "error", err)
		if required {
			return nil, fmt.Errorf("Failed to retrieve REQUIRED AI contributions for stage '%s'.", displayName)
		}
		return nil, nil
	}
	if len(rows) == 0 {
		if required {
			return nil, fmt.Errorf("Required contributions for stage '%s' were not found.", displayName)
		}
		return nil, nil
	}

	var out []SourceDocument
	for _, row := range rows {
		if row.StoragePath == "" || row.StorageBucket == "" {
			s.log.Warn("contribution is missing storage details", "contribution_id", row.ID.String())
			if required {
				return nil, fmt.Errorf("REQUIRED Contribution %s from stage '%s' is missing storage details.", row.ID, displayName)
			}
			continue
		}
		content, err := s.download(dbc, row.StoragePath+"/"+row.FileName)
		if err != nil {
			s.log.Error("failed to download contribution file",
				"path", row.StoragePath+"/"+row.FileName, "error", err)
			if required {
				return nil, fmt.Errorf("Failed to download REQUIRED content for contribution %s from stage '%s'. Original error: %v", row.ID, displayName, err)
			}
			continue
		}
		out = append(out, SourceDocument{
			ID:      row.ID.String(),
			Type:    rule.Type,
			Content: content,
			Metadata: Metadata{
				DisplayName: displayName,
				ModelName:   row.ModelName,
				Header:      rule.SectionHeader,
			},
		})
	}
	return out, nil
}

func (s *service) renderedResources(dbc dbctx.Context, rule Rule, displayName string, project *types.Project, session *types.Session) ([]SourceDocument, error) {
	rows, err := s.resources.GetByProjectIDAndType(dbc, project.ID, "rendered_document")
	if err != nil {
		return nil, fmt.Errorf("Failed to retrieve REQUIRED AI contributions for stage '%s'.", displayName)
	}

	var out []SourceDocument
	for _, row := range rows {
		var desc resourceDescription
		if err := json.Unmarshal(row.ResourceDescription, &desc); err != nil {
			continue
		}
		if desc.StageSlug != rule.StageSlug {
			continue
		}
		if desc.SessionID != "" && desc.SessionID != session.ID.String() {
			continue
		}
		if rule.DocumentKey != "" && rule.DocumentKey != "*" && desc.DocumentKey != rule.DocumentKey {
			continue
		}
		content, err := s.download(dbc, row.StoragePath+"/"+row.FileName)
		if err != nil {
			s.log.Error("failed to download rendered resource",
				"path", row.StoragePath+"/"+row.FileName, "error", err)
			if ruleRequired(rule) {
				return nil, fmt.Errorf("Failed to download REQUIRED content for contribution %s from stage '%s'. Original error: %v", row.ID, displayName, err)
			}
			continue
		}
		out = append(out, SourceDocument{
			ID:      row.ID.String(),
			Type:    "document",
			Content: content,
			Metadata: Metadata{
				DisplayName: displayName,
				Header:      rule.SectionHeader,
			},
		})
	}
	return out, nil
}

// resolveFeedback reads feedback written against the previous iteration:
// feedback on iteration N informs iteration N+1.
func (s *service) resolveFeedback(dbc dbctx.Context, rule Rule, displayName string, project *types.Project, session *types.Session, iteration int) ([]SourceDocument, error) {
	required := ruleRequired(rule)

	targetIteration := iteration
	if iteration > 1 {
		targetIteration = iteration - 1
	}

	rows, err := s.feedback.GetBySessionStageIteration(dbc, session.ID, rule.StageSlug, targetIteration)
	if err != nil {
		s.log.Error("failed to query feedback", "stage_slug", rule.StageSlug, "error", err)
		if required {
			return nil, fmt.Errorf("Required feedback for stage '%s' was not found.", displayName)
		}
		return nil, nil
	}

	var match *types.StageFeedback
	for _, row := range rows {
		if row.UserID == project.UserID {
			match = row
			break
		}
	}
	if match == nil {
		if required {
			return nil, fmt.Errorf("Required feedback for stage '%s' was not found.", displayName)
		}
		s.log.Info("optional feedback not found", "stage_slug", rule.StageSlug, "iteration", targetIteration)
		return nil, nil
	}

	content, err := s.download(dbc, match.StoragePath+"/"+match.FileName)
	if err != nil {
		s.log.Error("failed to download feedback file",
			"path", match.StoragePath+"/"+match.FileName, "error", err)
		if required {
			return nil, fmt.Errorf("Failed to download REQUIRED feedback for stage '%s' (slug: %s). Original error: %v", displayName, rule.StageSlug, err)
		}
		return nil, nil
	}

	return []SourceDocument{{
		ID:      match.ID.String(),
		Type:    "feedback",
		Content: content,
		Metadata: Metadata{
			DisplayName: displayName,
			Header:      rule.SectionHeader,
		},
	}}, nil
}

func (s *service) download(dbc dbctx.Context, key string) (string, error) {
	rc, err := s.bucket.Download(dbc.Ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
