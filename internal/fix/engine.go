package fix

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/rules"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// DefaultBackupDir is the backup directory used when the caller does
// not configure one.
const DefaultBackupDir = ".codemigrate/backups"

// Options configures a fix engine for one session.
type Options struct {
	// BackupDir is where backup artifacts are written.
	BackupDir string

	// DryRun simulates the session: all counts are computed identically
	// but no backup is created and no file is written.
	DryRun bool
}

// ApplyOptions controls one ApplyFixes call.
type ApplyOptions struct {
	// BackupBeforeFix creates one backup per file before its first write.
	BackupBeforeFix bool

	// ContinueOnError records per-file errors and keeps going instead of
	// aborting the whole call on the first failure. Non-recoverable
	// filesystem conditions stop the batch regardless.
	ContinueOnError bool
}

// Engine applies rule replacements to files. One Engine is one fix
// session: its backups are rollback-able as a unit and its result
// accumulates until the session completes.
type Engine struct {
	opts    Options
	backups *BackupManager

	mu     sync.Mutex
	result types.FixResult
}

// NewEngine creates a fix engine for a new session.
func NewEngine(opts Options) *Engine {
	if opts.BackupDir == "" {
		opts.BackupDir = DefaultBackupDir
	}
	return &Engine{
		opts:    opts,
		backups: NewBackupManager(opts.BackupDir),
	}
}

// Backups exposes the session's backup manager, used by the
// orchestrator for rollback on caller-signaled abort.
func (e *Engine) Backups() *BackupManager {
	return e.backups
}

// fileRule is one distinct rule represented among a file's findings.
type fileRule struct {
	ruleID   string
	re       *regexp.Regexp
	template string
}

// ApplyFixes filters findings to fixable ones, groups them by file, and
// applies each file's rules as one global substitution per rule over the
// current content, in the order rules first appear in the findings
// (which is rule-load order, preserved by the scanner). On a per-file
// failure it either records the error and continues, or rolls back
// everything backed up so far and returns the error, depending on
// ContinueOnError.
func (e *Engine) ApplyFixes(findings []types.Finding, opts ApplyOptions) (*types.FixResult, error) {
	byFile, order, invalid := groupFixable(findings)
	if len(invalid) > 0 {
		e.mu.Lock()
		e.result.Errors = append(e.result.Errors, invalid...)
		e.mu.Unlock()
	}

	for _, path := range order {
		if len(byFile[path]) == 0 {
			continue
		}
		err := e.fixFile(path, byFile[path], opts)
		if err == nil {
			continue
		}

		rec := errclass.AsRecord(path, err)
		e.mu.Lock()
		e.result.Errors = append(e.result.Errors, types.FileError{
			Path:        path,
			Category:    string(rec.Category),
			Message:     rec.Message,
			Recoverable: rec.Recoverable,
		})
		e.mu.Unlock()

		if opts.ContinueOnError && rec.Recoverable {
			continue
		}

		// Best-effort rollback of everything backed up so far; a
		// rollback failure is reported but never masks the original
		// error.
		if !e.opts.DryRun {
			if rb := e.backups.RollbackChanges(); len(rb.Errors) > 0 {
				fmt.Fprintf(os.Stderr, "Warning: rollback restored %d file(s) with %d error(s)\n",
					rb.FilesRestored, len(rb.Errors))
			}
		}
		return e.snapshot(), rec
	}

	return e.snapshot(), nil
}

// groupFixable filters findings to fixable ones and groups them by file
// path. For each file the distinct rules keep their first-appearance
// order; files keep their first-appearance order so callers see stable
// results, although no cross-file ordering is required for correctness.
// A finding whose carried pattern fails to recompile (the finding was
// hand-built wrong; the scanner compiled it to produce the finding)
// yields one error entry per (file, rule) pair so the skip stays
// observable.
func groupFixable(findings []types.Finding) (map[string][]fileRule, []string, []types.FileError) {
	byFile := make(map[string][]fileRule)
	seen := make(map[string]map[string]bool)
	var order []string
	var invalid []types.FileError

	for _, f := range findings {
		if !f.Fixable || f.Replacement == nil {
			continue
		}
		if seen[f.FilePath] == nil {
			seen[f.FilePath] = make(map[string]bool)
			order = append(order, f.FilePath)
		}
		if seen[f.FilePath][f.RuleID] {
			continue
		}
		seen[f.FilePath][f.RuleID] = true

		re, err := rules.CompilePattern(f.Pattern)
		if err != nil {
			rec := errclass.InvalidRegex(f.RuleID, err)
			invalid = append(invalid, types.FileError{
				Path:        f.FilePath,
				Category:    string(rec.Category),
				Message:     rec.Message,
				Recoverable: rec.Recoverable,
			})
			continue
		}
		byFile[f.FilePath] = append(byFile[f.FilePath], fileRule{
			ruleID:   f.RuleID,
			re:       re,
			template: rules.NormalizeTemplate(*f.Replacement),
		})
	}
	return byFile, order, invalid
}

// fixFile applies the file's rules in order as a pipeline: each rule's
// global substitution runs over the content as already modified by the
// rules before it. The file is written back only when the content
// actually changed, preserving its original permission bits.
func (e *Engine) fixFile(path string, ruleList []fileRule, opts ApplyOptions) error {
	if opts.BackupBeforeFix && !e.opts.DryRun {
		backupPath, err := e.backups.CreateBackup(path)
		if err != nil {
			return err
		}
		e.mu.Lock()
		e.result.BackupsCreated = appendUnique(e.result.BackupsCreated, backupPath)
		e.mu.Unlock()
	}

	info, err := os.Stat(path)
	if err != nil {
		return errclass.Filesystem(path, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return classifyReadError(path, err)
	}

	original := string(raw)
	content := original
	replaced := 0
	for _, fr := range ruleList {
		matches := len(fr.re.FindAllStringIndex(content, -1))
		if matches == 0 {
			continue
		}
		content = fr.re.ReplaceAllString(content, fr.template)
		replaced += matches
	}

	changed := content != original
	if changed && !e.opts.DryRun {
		if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
			return classifyWriteError(path, err)
		}
	}

	e.mu.Lock()
	e.result.FilesProcessed++
	e.result.PatternsReplaced += replaced
	if changed {
		e.result.FilesFixed++
	}
	e.mu.Unlock()
	return nil
}

// Result returns a frozen snapshot of the session's accumulated result.
func (e *Engine) Result() *types.FixResult {
	return e.snapshot()
}

func (e *Engine) snapshot() *types.FixResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.result
	out.BackupsCreated = append([]string(nil), e.result.BackupsCreated...)
	out.Errors = append([]types.FileError(nil), e.result.Errors...)
	return &out
}

func classifyReadError(path string, err error) error {
	if os.IsPermission(err) {
		return errclass.Permission(path, err)
	}
	return errclass.Filesystem(path, err)
}

func classifyWriteError(path string, err error) error {
	if os.IsPermission(err) {
		return errclass.Permission(path, err)
	}
	return errclass.Filesystem(path, err)
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
