package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	quiet      bool
	outputFile string
}

// NewJSONFormatter creates a new JSONFormatter
func NewJSONFormatter(quiet bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{
		quiet:      quiet,
		outputFile: outputFile,
	}
}

// JSONReport is the top-level JSON report shape
type JSONReport struct {
	Header   JSONHeader        `json:"header"`
	Summary  JSONSummary       `json:"summary"`
	Findings []types.Finding   `json:"findings"`
	Errors   []errclass.Record `json:"errors,omitempty"`
	Fix      *types.FixResult  `json:"fix,omitempty"`
}

// JSONHeader identifies the tool run that produced the report
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Root      string `json:"root"`
	DryRun    bool   `json:"dryRun,omitempty"`
}

// JSONSummary holds the aggregate counts
type JSONSummary struct {
	TotalFiles      int    `json:"totalFiles"`
	FilesMatched    int    `json:"filesMatched"`
	Errors          int    `json:"errors"`
	Warnings        int    `json:"warnings"`
	Infos           int    `json:"infos"`
	BaselineIgnored int    `json:"baselineIgnored,omitempty"`
	Duration        string `json:"duration"`
}

// Format writes the run summary as JSON to the configured output file,
// or stdout when none is set.
func (f *JSONFormatter) Format(summary *Summary) error {
	errors, warnings, infos := summary.SeverityCounts()
	report := JSONReport{
		Header: JSONHeader{
			Tool:      "codemigrate",
			Version:   "1.0.0",
			Timestamp: time.Now().Format(time.RFC3339),
			Root:      summary.Root,
			DryRun:    summary.DryRun,
		},
		Summary: JSONSummary{
			TotalFiles:      summary.TotalFiles,
			FilesMatched:    summary.FilesMatched,
			Errors:          errors,
			Warnings:        warnings,
			Infos:           infos,
			BaselineIgnored: summary.BaselineIgnored,
			Duration:        time.Since(summary.StartTime).Round(time.Millisecond).String(),
		},
		Findings: summary.Findings,
		Errors:   summary.Records,
		Fix:      summary.FixResult,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling report: %w", err)
	}
	data = append(data, '\n')

	if f.outputFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(f.outputFile, data, 0644); err != nil {
		return fmt.Errorf("error writing report file: %w", err)
	}
	if !f.quiet {
		fmt.Printf("Report written to %s\n", f.outputFile)
	}
	return nil
}
