// Package output renders scan and fix results for the terminal and for
// machine-readable report files.
package output

import (
	"fmt"
	"time"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// Summary is the presentation-layer view of one run. The orchestrator
// fills it from core outputs; formatters are pure presentation over it.
type Summary struct {
	Root            string
	TotalFiles      int
	FilesMatched    int // files with at least one finding
	Findings        []types.Finding
	Records         []errclass.Record // records surviving the suppression policy
	Notices         []string          // one-time suppression notices
	ErrorCounts     map[errclass.Category]int
	BaselineIgnored int
	FixResult       *types.FixResult // nil for scan-only runs
	DryRun          bool
	StartTime       time.Time
}

// SeverityCounts tallies findings per severity level.
func (s *Summary) SeverityCounts() (errors, warnings, infos int) {
	for _, f := range s.Findings {
		switch f.Severity {
		case types.SeverityError:
			errors++
		case types.SeverityWarning:
			warnings++
		default:
			infos++
		}
	}
	return errors, warnings, infos
}

// Formatter renders a Summary in one output format.
type Formatter interface {
	Format(summary *Summary) error
}

// NewFormatter returns the formatter for the given format name.
// Non-console formats write to outputFile.
func NewFormatter(format string, quiet, verbose bool, outputFile string) (Formatter, error) {
	switch format {
	case "console":
		return NewConsoleFormatter(quiet, verbose), nil
	case "json":
		return NewJSONFormatter(quiet, outputFile), nil
	case "markdown":
		return NewMarkdownFormatter(quiet, verbose, outputFile), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
