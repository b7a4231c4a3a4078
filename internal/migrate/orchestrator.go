// Package migrate coordinates the end-to-end run: rule loading, file
// discovery, scanning, optional fixing, and report formatting.
package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/baseline"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/config"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/discovery"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/fix"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/output"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/rules"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/schema"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// memoryCheckInterval is how many files are dispatched between memory
// pressure checks.
const memoryCheckInterval = 32

// Options holds per-run flags for the orchestrator.
type Options struct {
	RulesPath      string
	Fix            bool
	DryRun         bool
	NoBackup       bool
	UseBaseline    bool
	CreateBaseline bool
	BaselinePath   string
}

// Orchestrator coordinates one scan or fix run.
type Orchestrator struct {
	cfg     *config.Config
	opts    Options
	tracker *errclass.Tracker
}

// NewOrchestrator creates a new run orchestrator.
func NewOrchestrator(cfg *config.Config, opts Options) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		opts:    opts,
		tracker: errclass.NewTracker(),
	}
}

// Result holds the outcome of a run for the exit-code decision.
type Result struct {
	TotalFiles    int
	TotalFindings int
	HasErrors     bool // findings at or above failOn, or failures
	Unrecoverable bool
	FixResult     *types.FixResult
}

// Run executes the full workflow: load rules, discover files, scan,
// optionally fix, and format the report.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	summary := &output.Summary{
		Root:      o.cfg.Root,
		StartTime: time.Now(),
		DryRun:    o.opts.DryRun,
	}
	result := &Result{}

	ruleSet, err := o.loadRules(summary)
	if err != nil {
		return nil, err
	}
	if ruleSet.Len() == 0 {
		return nil, fmt.Errorf("no valid rules loaded")
	}

	files, err := o.discoverFiles(summary)
	if err != nil {
		return nil, err
	}
	result.TotalFiles = len(files)
	summary.TotalFiles = len(files)

	findings, err := o.scanFiles(ctx, ruleSet, files, summary)
	if err != nil {
		return nil, err
	}

	// Create/update baseline if requested; accepting the current state
	// exits successfully without reporting findings.
	if o.opts.CreateBaseline {
		if err := o.saveBaseline(findings); err != nil {
			return nil, err
		}
		return result, nil
	}

	if o.opts.UseBaseline {
		findings = o.filterBaseline(findings, summary)
	}

	summary.Findings = findings
	summary.FilesMatched = countFilesMatched(findings)
	result.TotalFindings = len(findings)

	var fixErr error
	if o.opts.Fix {
		fixErr = o.applyFixes(findings, summary, result)
	}

	summary.ErrorCounts = o.tracker.Counts()

	formatter, err := output.NewFormatter(o.cfg.Format, o.cfg.Quiet, o.cfg.Verbose, o.cfg.Output)
	if err != nil {
		return nil, err
	}
	if err := formatter.Format(summary); err != nil {
		return nil, fmt.Errorf("error formatting output: %w", err)
	}

	o.decide(summary, result)
	if fixErr != nil {
		return result, fixErr
	}
	return result, nil
}

// record applies the suppression policy to one classification record
// and folds it into the summary.
func (o *Orchestrator) record(rec errclass.Record, summary *output.Summary) {
	switch o.tracker.Record(rec) {
	case errclass.ReportShow:
		summary.Records = append(summary.Records, rec)
	case errclass.ReportSuppressNotice:
		summary.Notices = append(summary.Notices, errclass.SuppressNotice(rec.Category))
	}
}

// loadRules reads and compiles the rule document, containing per-rule
// failures and propagating only document-level ones.
func (o *Orchestrator) loadRules(summary *output.Summary) (*rules.RuleSet, error) {
	rulesPath := o.opts.RulesPath
	if rulesPath == "" {
		rulesPath = o.cfg.RulesFile
	}
	rulesPath, err := discovery.ValidateFilePath(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("invalid rules file: %w", err)
	}
	doc, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file %s: %w", rulesPath, err)
	}

	validator := schema.NewValidator()
	if err := validator.LoadSchemas(); err != nil {
		if !o.cfg.Quiet {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		validator = nil
	}

	loader := &rules.Loader{Validator: validator}
	ruleSet, records, err := loader.Load(doc)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		o.record(rec, summary)
	}
	return ruleSet, nil
}

func (o *Orchestrator) discoverFiles(summary *output.Summary) ([]discovery.File, error) {
	walker := discovery.NewWalker(o.cfg.Root, o.cfg.Extensions, o.cfg.Exclude, o.cfg.MaxFileSize)
	files, records, err := walker.Discover()
	for _, rec := range records {
		o.record(rec, summary)
	}
	if err != nil {
		return nil, fmt.Errorf("error discovering files: %w", err)
	}
	return files, nil
}

// scanFiles runs the rule engine over every file. Each file's scan is
// independent, so files are dispatched to a bounded worker group; the
// per-file findings keep the discovery order so output is stable.
// Dispatch pauses under critical memory pressure until a reclamation
// hint has been issued and usage re-checked.
func (o *Orchestrator) scanFiles(ctx context.Context, ruleSet *rules.RuleSet, files []discovery.File, summary *output.Summary) ([]types.Finding, error) {
	engine := rules.NewEngine(ruleSet)

	perFile := make([][]types.Finding, len(files))
	perFileRecords := make([][]errclass.Record, len(files))

	g, gctx := errgroup.WithContext(ctx)
	limit := 1
	if o.cfg.Parallel {
		limit = o.cfg.Concurrency
	}
	g.SetLimit(limit)

	for i, f := range files {
		if i%memoryCheckInterval == 0 {
			o.checkMemory(summary)
		}
		g.Go(func() error {
			perFile[i], perFileRecords[i] = engine.Scan(gctx, f.Contents, f.Path, f.Ext)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var findings []types.Finding
	for i := range files {
		findings = append(findings, perFile[i]...)
		for _, rec := range perFileRecords[i] {
			o.record(rec, summary)
		}
	}
	return findings, nil
}

// checkMemory samples heap usage; at the critical level it records the
// pause, asks the runtime to reclaim memory, and re-checks before
// letting dispatch continue.
func (o *Orchestrator) checkMemory(summary *output.Summary) {
	level, _, rec := errclass.CheckMemory()
	if level != errclass.MemoryCritical {
		return
	}
	if rec != nil {
		o.record(*rec, summary)
	}
	errclass.ReclaimHint()
	errclass.CheckMemory()
}

func (o *Orchestrator) applyFixes(findings []types.Finding, summary *output.Summary, result *Result) error {
	backupDir := o.cfg.Backup.Dir
	if backupDir == "" {
		backupDir = fix.DefaultBackupDir
	}
	engine := fix.NewEngine(fix.Options{
		BackupDir: backupDir,
		DryRun:    o.opts.DryRun,
	})

	fixResult, err := engine.ApplyFixes(findings, fix.ApplyOptions{
		BackupBeforeFix: o.cfg.Backup.Enabled && !o.opts.NoBackup,
		ContinueOnError: o.cfg.ContinueOnError,
	})
	summary.FixResult = fixResult
	result.FixResult = fixResult

	for _, fe := range fixResult.Errors {
		o.record(errclass.Record{
			Category:    errclass.Category(fe.Category),
			Recoverable: fe.Recoverable,
			Message:     fe.Message,
			Path:        fe.Path,
		}, summary)
		if !fe.Recoverable {
			result.Unrecoverable = true
		}
	}
	if err != nil {
		return fmt.Errorf("fix run aborted: %w", err)
	}
	return nil
}

// resolveBaselinePath returns the absolute path to the baseline file.
func (o *Orchestrator) resolveBaselinePath() string {
	baselineFile := o.opts.BaselinePath
	if baselineFile == "" {
		baselineFile = filepath.Join(".codemigrate", "baseline.json")
	}
	if !filepath.IsAbs(baselineFile) {
		baselineFile = filepath.Join(o.cfg.Root, baselineFile)
	}
	return baselineFile
}

func (o *Orchestrator) saveBaseline(findings []types.Finding) error {
	b := baseline.Create(findings)
	b.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	path := o.resolveBaselinePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}
	if err := b.Save(path); err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	if !o.cfg.Quiet {
		fmt.Printf("Baseline created: %s (%d findings)\n", path, len(b.Fingerprints))
	}
	return nil
}

func (o *Orchestrator) filterBaseline(findings []types.Finding, summary *output.Summary) []types.Finding {
	path := o.resolveBaselinePath()
	if _, err := os.Stat(path); err != nil {
		return findings // no baseline yet, not an error
	}
	b, err := baseline.Load(path)
	if err != nil {
		if !o.cfg.Quiet {
			fmt.Fprintf(os.Stderr, "Warning: failed to load baseline: %v\n", err)
		}
		return findings
	}
	kept, ignored := b.Filter(findings)
	summary.BaselineIgnored = ignored
	return kept
}

// severityRank orders severities for the failOn threshold.
func severityRank(s string) int {
	switch s {
	case types.SeverityError:
		return 2
	case types.SeverityWarning:
		return 1
	default:
		return 0
	}
}

// decide sets the exit-code fields: a run fails when any finding is at
// or above the failOn level, when an unrecoverable error occurred, or
// when the fix phase recorded failures.
func (o *Orchestrator) decide(summary *output.Summary, result *Result) {
	threshold := severityRank(o.cfg.FailOn)
	for _, f := range summary.Findings {
		if severityRank(f.Severity) >= threshold {
			result.HasErrors = true
			break
		}
	}
	if summary.FixResult != nil && len(summary.FixResult.Errors) > 0 {
		result.HasErrors = true
	}
	if result.Unrecoverable {
		result.HasErrors = true
	}
}

func countFilesMatched(findings []types.Finding) int {
	seen := make(map[string]bool)
	for _, f := range findings {
		seen[f.FilePath] = true
	}
	return len(seen)
}
