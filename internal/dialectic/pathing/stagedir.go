package pathing

import "strings"

// StageDirMapper translates stage slugs to their ordinal-prefixed directory
// names and back. The table is copied at construction and never mutated
// afterward, so a mapper can be shared across goroutines and new stages are
// added by constructing a new mapper, not by editing path logic.
type StageDirMapper struct {
	slugToDir map[string]string
	dirToSlug map[string]string
}

// NewStageDirMapper builds a mapper from a slug to directory table. Slug keys
// are normalized to lowercase.
func NewStageDirMapper(slugToDir map[string]string) StageDirMapper {
	m := StageDirMapper{
		slugToDir: make(map[string]string, len(slugToDir)),
		dirToSlug: make(map[string]string, len(slugToDir)),
	}
	for slug, dir := range slugToDir {
		key := strings.ToLower(strings.TrimSpace(slug))
		m.slugToDir[key] = dir
		m.dirToSlug[strings.ToLower(dir)] = key
	}
	return m
}

// DefaultStageDirMapper covers the five dialectic stages.
func DefaultStageDirMapper() StageDirMapper {
	return NewStageDirMapper(map[string]string{
		"thesis":      "1_thesis",
		"antithesis":  "2_antithesis",
		"synthesis":   "3_synthesis",
		"parenthesis": "4_parenthesis",
		"paralysis":   "5_paralysis",
	})
}

var defaultStageDirs = DefaultStageDirMapper()

// DirName returns the ordinal-prefixed directory for a stage slug. Unknown
// slugs pass through unchanged so ad-hoc stages still get a stable directory.
func (m StageDirMapper) DirName(slug string) string {
	if dir, ok := m.slugToDir[strings.ToLower(strings.TrimSpace(slug))]; ok {
		return dir
	}
	return slug
}

// StageSlug inverts DirName: the ordinal prefix is stripped and the remainder
// lowercased. Unknown directories pass through lowercased.
func (m StageDirMapper) StageSlug(dirName string) string {
	d := strings.ToLower(strings.TrimSpace(dirName))
	if slug, ok := m.dirToSlug[d]; ok {
		return slug
	}
	if i := strings.Index(d, "_"); i > 0 {
		if isAllDigits(d[:i]) {
			return d[i+1:]
		}
	}
	return d
}

// MapStageSlugToDirName applies the default stage table.
func MapStageSlugToDirName(slug string) string {
	return defaultStageDirs.DirName(slug)
}

// MapDirNameToStageSlug applies the default stage table.
func MapDirNameToStageSlug(dirName string) string {
	return defaultStageDirs.StageSlug(dirName)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
