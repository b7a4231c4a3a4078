package output

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// ConsoleFormatter renders a run summary in a compact, finding-first
// style on stdout.
type ConsoleFormatter struct {
	quiet    bool
	verbose  bool
	colorize bool
}

// NewConsoleFormatter creates a new ConsoleFormatter. Styling is
// enabled only when stdout is a terminal.
func NewConsoleFormatter(quiet, verbose bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		quiet:    quiet,
		verbose:  verbose,
		colorize: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// Format prints findings grouped by file, the fix outcome when present,
// and the error-summary table.
func (f *ConsoleFormatter) Format(summary *Summary) error {
	if f.quiet {
		return nil
	}

	// Zero-value styles render plain text when color is disabled.
	var redStyle, yellowStyle, greenStyle, dimStyle, boldStyle lipgloss.Style
	if f.colorize {
		redStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
		greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		boldStyle = lipgloss.NewStyle().Bold(true)
	}

	width := terminalWidth()

	byFile := groupByFile(summary.Findings)
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Println()
	for _, path := range paths {
		fmt.Println(boldStyle.Render(truncate(path, width)))
		for _, finding := range byFile[path] {
			var sev string
			switch finding.Severity {
			case types.SeverityError:
				sev = redStyle.Render("error")
			case types.SeverityWarning:
				sev = yellowStyle.Render("warning")
			default:
				sev = dimStyle.Render("info")
			}
			line := fmt.Sprintf("  %d:%d  %s  %s  %s",
				finding.Line, finding.Column, sev, finding.RuleID,
				dimStyle.Render(truncate(finding.MatchedText, 60)))
			fmt.Println(truncate(line, width))
			if f.verbose && finding.Fixable {
				fmt.Println(dimStyle.Render(fmt.Sprintf("         fixable: %q -> %q", finding.MatchedText, *finding.Replacement)))
			}
		}
		fmt.Println()
	}

	errors, warnings, infos := summary.SeverityCounts()
	status := fmt.Sprintf("%d files scanned, %d with findings: %d errors, %d warnings, %d info",
		summary.TotalFiles, summary.FilesMatched, errors, warnings, infos)
	if errors == 0 && warnings == 0 {
		fmt.Println(greenStyle.Render(status))
	} else {
		fmt.Println(status)
	}
	if summary.BaselineIgnored > 0 {
		fmt.Printf("%d baseline findings ignored\n", summary.BaselineIgnored)
	}

	if summary.FixResult != nil {
		f.printFixResult(summary, greenStyle, dimStyle)
	}

	if len(summary.ErrorCounts) > 0 {
		fmt.Println()
		printErrorSummary(os.Stdout, summary.ErrorCounts)
	}
	if f.verbose {
		for _, notice := range summary.Notices {
			fmt.Println(dimStyle.Render(notice))
		}
		for _, rec := range summary.Records {
			fmt.Println(dimStyle.Render(fmt.Sprintf("skipped: %s", rec.Message)))
			if rec.Suggestion != "" {
				fmt.Println(dimStyle.Render(fmt.Sprintf("         %s", rec.Suggestion)))
			}
		}
	}

	fmt.Println(dimStyle.Render(fmt.Sprintf("completed in %v", time.Since(summary.StartTime).Round(time.Millisecond))))
	return nil
}

func (f *ConsoleFormatter) printFixResult(summary *Summary, greenStyle, dimStyle lipgloss.Style) {
	r := summary.FixResult
	verb := "fixed"
	if summary.DryRun {
		verb = "would fix"
	}
	fmt.Println(greenStyle.Render(fmt.Sprintf("%s %d of %d files (%d replacements)",
		verb, r.FilesFixed, r.FilesProcessed, r.PatternsReplaced)))
	if len(r.BackupsCreated) > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d backups created", len(r.BackupsCreated))))
	}
	for _, fe := range r.Errors {
		fmt.Printf("  failed: %s: %s\n", fe.Path, fe.Message)
	}
}

func groupByFile(findings []types.Finding) map[string][]types.Finding {
	byFile := make(map[string][]types.Finding)
	for _, f := range findings {
		byFile[f.FilePath] = append(byFile[f.FilePath], f)
	}
	return byFile
}

// terminalWidth probes stdout; non-TTY output gets an unconstrained width.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 0
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
