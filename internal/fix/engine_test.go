package fix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

func strptr(s string) *string { return &s }

// fixableFinding builds the minimal finding the fix engine needs.
func fixableFinding(path, ruleID, pattern, replacement string) types.Finding {
	return types.Finding{
		RuleID:      ruleID,
		FilePath:    path,
		Line:        1,
		Column:      1,
		Severity:    types.SeverityWarning,
		Fixable:     true,
		Replacement: strptr(replacement),
		Pattern:     pattern,
	}
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyFixesRewritesFile(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "var x = 1;\nvar y = 2;")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		fixableFinding(target, "no-var", `\bvar\b`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{BackupBeforeFix: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 1, result.FilesFixed)
	assert.Equal(t, 2, result.PatternsReplaced)
	require.Len(t, result.BackupsCreated, 1)

	fixed, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;\nconst y = 2;", string(fixed))

	// The backup holds the original content.
	backup, err := os.ReadFile(result.BackupsCreated[0])
	require.NoError(t, err)
	assert.Equal(t, "var x = 1;\nvar y = 2;", string(backup))
}

func TestApplyFixesDryRun(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "var x = 1;\nvar y = 2;")
	backupDir := filepath.Join(dir, "backups")

	engine := NewEngine(Options{BackupDir: backupDir, DryRun: true})
	findings := []types.Finding{
		fixableFinding(target, "no-var", `\bvar\b`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{BackupBeforeFix: true})
	require.NoError(t, err)

	// Counts are computed exactly as a real run would.
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 1, result.FilesFixed)
	assert.Equal(t, 2, result.PatternsReplaced)
	assert.Empty(t, result.BackupsCreated)

	// Nothing on disk changed and no backup directory appeared.
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "var x = 1;\nvar y = 2;", string(content))
	_, err = os.Stat(backupDir)
	assert.True(t, os.IsNotExist(err))
}

func TestApplyFixesIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "var x = 1;")
	findings := []types.Finding{
		fixableFinding(target, "no-var", `\bvar\b`, "const"),
	}

	first := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	result, err := first.ApplyFixes(findings, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.PatternsReplaced)

	// Re-applying with the now-stale findings finds nothing to replace
	// and leaves the file alone.
	second := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	result, err = second.ApplyFixes(findings, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 0, result.FilesFixed)
	assert.Equal(t, 0, result.PatternsReplaced)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;", string(content))
}

func TestApplyFixesCaptureGroups(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "var first = 1;\nvar second = 2;")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		fixableFinding(target, "var-to-let", `var\s+(\w+)`, "let $1"),
	}

	_, err := engine.ApplyFixes(findings, ApplyOptions{})
	require.NoError(t, err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "let first = 1;\nlet second = 2;", string(content))
}

func TestApplyFixesPipelineOrder(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "var x = 1;")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})

	// The second rule sees the first rule's output: var -> let -> const.
	findings := []types.Finding{
		fixableFinding(target, "var-to-let", `\bvar\b`, "let"),
		fixableFinding(target, "let-to-const", `\blet\b`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PatternsReplaced)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;", string(content))
}

func TestApplyFixesSkipsNonFixable(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "document.write('x');")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		{
			RuleID:   "no-document-write",
			FilePath: target,
			Severity: types.SeverityError,
			Fixable:  false,
			Pattern:  `document\.write\(`,
		},
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{BackupBeforeFix: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesProcessed)
	assert.Empty(t, result.BackupsCreated)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "document.write('x');", string(content))
}

func TestApplyFixesReportsUncompilablePattern(t *testing.T) {
	dir := t.TempDir()
	target := writeTemp(t, dir, "a.js", "var x = 1;")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		fixableFinding(target, "hand-built", `(unclosed`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{BackupBeforeFix: true})
	require.NoError(t, err)

	// The skip is observable as a regex-category error entry, and the
	// file is neither processed nor backed up.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, string(errclass.CategoryRegex), result.Errors[0].Category)
	assert.Equal(t, target, result.Errors[0].Path)
	assert.Equal(t, 0, result.FilesProcessed)
	assert.Empty(t, result.BackupsCreated)

	content, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, "var x = 1;", string(content))
}

func TestApplyFixesContinueOnError(t *testing.T) {
	dir := t.TempDir()
	good := writeTemp(t, dir, "good.js", "var x = 1;")
	missing := filepath.Join(dir, "missing.js")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		fixableFinding(good, "no-var", `\bvar\b`, "const"),
		fixableFinding(missing, "no-var", `\bvar\b`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{ContinueOnError: true})
	require.NoError(t, err)

	// Exactly one error entry for the missing file; the good file was
	// still fixed.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, missing, result.Errors[0].Path)
	assert.Equal(t, string(errclass.CategoryFilesystem), result.Errors[0].Category)
	assert.True(t, result.Errors[0].Recoverable)
	assert.Equal(t, 1, result.FilesFixed)

	content, err := os.ReadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "const x = 1;", string(content))
}

func TestApplyFixesAbortRollsBack(t *testing.T) {
	dir := t.TempDir()
	good := writeTemp(t, dir, "good.js", "var x = 1;")
	missing := filepath.Join(dir, "missing.js")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		fixableFinding(good, "no-var", `\bvar\b`, "const"),
		fixableFinding(missing, "no-var", `\bvar\b`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{BackupBeforeFix: true, ContinueOnError: false})
	require.Error(t, err)
	require.Len(t, result.Errors, 1)

	var rec errclass.Record
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, errclass.CategoryFilesystem, rec.Category)

	// The file fixed before the failure was rolled back to its original
	// content.
	content, readErr := os.ReadFile(good)
	require.NoError(t, readErr)
	assert.Equal(t, "var x = 1;", string(content))
}

func TestApplyFixesMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.js", "var x = 1;")
	b := writeTemp(t, dir, "b.js", "var y = 2;\nvar z = 3;")
	clean := writeTemp(t, dir, "clean.js", "const ok = true;")

	engine := NewEngine(Options{BackupDir: filepath.Join(dir, "backups")})
	findings := []types.Finding{
		fixableFinding(a, "no-var", `\bvar\b`, "const"),
		fixableFinding(b, "no-var", `\bvar\b`, "const"),
	}

	result, err := engine.ApplyFixes(findings, ApplyOptions{BackupBeforeFix: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesProcessed)
	assert.Equal(t, 2, result.FilesFixed)
	assert.Equal(t, 3, result.PatternsReplaced)
	assert.Len(t, result.BackupsCreated, 2)

	content, err := os.ReadFile(clean)
	require.NoError(t, err)
	assert.Equal(t, "const ok = true;", string(content))
}
