package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	quiet      bool
	verbose    bool
	outputFile string
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(quiet, verbose bool, outputFile string) *MarkdownFormatter {
	return &MarkdownFormatter{
		quiet:      quiet,
		verbose:    verbose,
		outputFile: outputFile,
	}
}

// Format writes the run summary as Markdown
func (f *MarkdownFormatter) Format(summary *Summary) error {
	var builder strings.Builder

	builder.WriteString("# Codemigrate Report\n\n")
	builder.WriteString(fmt.Sprintf("**Generated:** %s\n\n", time.Now().Format("2006-01-02 15:04:05")))
	builder.WriteString(fmt.Sprintf("**Root:** %s\n\n", summary.Root))
	builder.WriteString(fmt.Sprintf("**Duration:** %v\n\n", time.Since(summary.StartTime).Round(time.Millisecond)))
	builder.WriteString(strings.Repeat("-", 50) + "\n\n")

	errors, warnings, infos := summary.SeverityCounts()
	builder.WriteString("## Summary\n\n")
	builder.WriteString("| Metric | Count |\n")
	builder.WriteString("|--------|-------|\n")
	builder.WriteString(fmt.Sprintf("| Files Scanned | %d |\n", summary.TotalFiles))
	builder.WriteString(fmt.Sprintf("| Files With Findings | %d |\n", summary.FilesMatched))
	builder.WriteString(fmt.Sprintf("| Errors | %d |\n", errors))
	builder.WriteString(fmt.Sprintf("| Warnings | %d |\n", warnings))
	builder.WriteString(fmt.Sprintf("| Info | %d |\n", infos))
	if summary.BaselineIgnored > 0 {
		builder.WriteString(fmt.Sprintf("| Baseline Ignored | %d |\n", summary.BaselineIgnored))
	}
	builder.WriteString("\n")

	if len(summary.Findings) > 0 {
		builder.WriteString("## Findings\n\n")
		byFile := groupByFile(summary.Findings)
		paths := make([]string, 0, len(byFile))
		for p := range byFile {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, path := range paths {
			builder.WriteString(fmt.Sprintf("### %s\n\n", path))
			builder.WriteString("| Line | Column | Severity | Rule | Match |\n")
			builder.WriteString("|------|--------|----------|------|-------|\n")
			for _, finding := range byFile[path] {
				builder.WriteString(fmt.Sprintf("| %d | %d | %s | %s | `%s` |\n",
					finding.Line, finding.Column, finding.Severity, finding.RuleID,
					strings.ReplaceAll(finding.MatchedText, "|", "\\|")))
			}
			builder.WriteString("\n")
		}
	}

	if summary.FixResult != nil {
		r := summary.FixResult
		builder.WriteString("## Fixes\n\n")
		if summary.DryRun {
			builder.WriteString("_Dry run: no files were modified._\n\n")
		}
		builder.WriteString(fmt.Sprintf("- Files processed: %d\n", r.FilesProcessed))
		builder.WriteString(fmt.Sprintf("- Files fixed: %d\n", r.FilesFixed))
		builder.WriteString(fmt.Sprintf("- Patterns replaced: %d\n", r.PatternsReplaced))
		builder.WriteString(fmt.Sprintf("- Backups created: %d\n", len(r.BackupsCreated)))
		for _, fe := range r.Errors {
			builder.WriteString(fmt.Sprintf("- Failed: %s (%s)\n", fe.Path, fe.Message))
		}
		builder.WriteString("\n")
	}

	if len(summary.ErrorCounts) > 0 {
		builder.WriteString("## Errors By Category\n\n")
		builder.WriteString("| Category | Count |\n")
		builder.WriteString("|----------|-------|\n")
		for _, c := range errclass.Categories {
			if n := summary.ErrorCounts[c]; n > 0 {
				builder.WriteString(fmt.Sprintf("| %s | %d |\n", c, n))
			}
		}
		builder.WriteString("\n")
	}

	if f.outputFile == "" {
		_, err := os.Stdout.WriteString(builder.String())
		return err
	}
	if err := os.WriteFile(f.outputFile, []byte(builder.String()), 0644); err != nil {
		return fmt.Errorf("error writing report file: %w", err)
	}
	if !f.quiet {
		fmt.Printf("Report written to %s\n", f.outputFile)
	}
	return nil
}
