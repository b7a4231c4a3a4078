package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	assert.Equal(t, "short", truncate("short", 0))
	assert.Equal(t, "a ver...", truncate("a very long string", 8))
}

func TestConsoleFormatterQuiet(t *testing.T) {
	f := NewConsoleFormatter(true, false)
	assert.NoError(t, f.Format(sampleSummary()))
}

func TestConsoleFormatterDisablesColorWhenNotTTY(t *testing.T) {
	// The test binary's stdout is a pipe, not a terminal.
	f := NewConsoleFormatter(false, false)
	assert.False(t, f.colorize)
	assert.NoError(t, f.Format(sampleSummary()))
}

func TestConsoleFormatterRendersWithoutError(t *testing.T) {
	f := NewConsoleFormatter(false, true)
	f.colorize = true
	summary := sampleSummary()
	repl := "const"
	for i := range summary.Findings {
		if summary.Findings[i].Fixable {
			summary.Findings[i].Replacement = &repl
		}
	}
	summary.Notices = []string{"3 permission errors shown; suppressing further occurrences"}
	assert.NoError(t, f.Format(summary))
}
