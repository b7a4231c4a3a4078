// Package types provides shared types used across the codemigrate codebase.
// This package is at the bottom of the dependency graph and should not import
// any other internal packages to avoid circular dependencies.
package types

// Severity level constants.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// ValidSeverity reports whether s is a recognized severity level.
func ValidSeverity(s string) bool {
	return s == SeverityError || s == SeverityWarning || s == SeverityInfo
}

// Rule describes a deprecated code pattern and, optionally, how to rewrite it.
// A nil Replacement marks the rule as detection-only: it can produce findings
// but is never eligible for fixing.
type Rule struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Pattern     string   `yaml:"pattern" json:"pattern"`
	Replacement *string  `yaml:"replacement" json:"replacement,omitempty"`
	FileTypes   []string `yaml:"fileTypes" json:"fileTypes"`
	Severity    string   `yaml:"severity" json:"severity"`
}

// Fixable reports whether the rule defines a replacement template.
func (r *Rule) Fixable() bool {
	return r.Replacement != nil
}

// AppliesTo reports whether the rule targets the given file extension.
// Extension matching is case-insensitive; extensions are compared
// without a leading dot.
func (r *Rule) AppliesTo(ext string) bool {
	ext = normalizeExt(ext)
	for _, ft := range r.FileTypes {
		if normalizeExt(ft) == ext {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	b := []byte(ext)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// Finding is one located match of a rule against one file's content.
// Findings are immutable values: they carry the rule's pattern and
// replacement so the fix engine never has to re-look-up the rule.
type Finding struct {
	RuleID      string  `json:"ruleId"`
	FilePath    string  `json:"filePath"`
	Line        int     `json:"line"`   // 1-based
	Column      int     `json:"column"` // 1-based, counted from the last newline
	MatchedText string  `json:"matchedText"`
	Severity    string  `json:"severity"`
	Fixable     bool    `json:"fixable"`
	Replacement *string `json:"replacement,omitempty"`
	Pattern     string  `json:"pattern"`
}

// FileError is the per-file error entry recorded in a FixResult. It
// mirrors the classification record shape without importing errclass.
type FileError struct {
	Path        string `json:"path"`
	Category    string `json:"category"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// FixResult accumulates across one fix session and is returned to the
// caller when the session completes.
type FixResult struct {
	FilesProcessed   int         `json:"filesProcessed"`
	FilesFixed       int         `json:"filesFixed"`
	PatternsReplaced int         `json:"patternsReplaced"`
	BackupsCreated   []string    `json:"backupsCreated"`
	Errors           []FileError `json:"errors"`
}
