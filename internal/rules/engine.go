package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// MaxMatchesPerRule caps how many matches one rule may produce against
// one file. Go's RE2 engine cannot backtrack catastrophically, but a
// pathological pattern can still legitimately match enormous numbers of
// positions; past the cap the scan is treated as a runaway pattern
// rather than a real result.
const MaxMatchesPerRule = 10000

// DefaultScanTimeout bounds one rule's scan of one file. The cap above
// is the authoritative safety bound; this wall-clock guard is advisory
// only (see errclass.WithTimeout).
const DefaultScanTimeout = 5 * time.Second

// Engine scans file content against a compiled rule set.
type Engine struct {
	ruleSet     *RuleSet
	scanTimeout time.Duration
}

// NewEngine creates a scan engine over the given rule set.
func NewEngine(rs *RuleSet) *Engine {
	return &Engine{
		ruleSet:     rs,
		scanTimeout: DefaultScanTimeout,
	}
}

// WithScanTimeout overrides the per-rule-per-file wall-clock bound.
func (e *Engine) WithScanTimeout(d time.Duration) *Engine {
	e.scanTimeout = d
	return e
}

// Scan matches every applicable rule against content and returns the
// findings in document order per rule, rules in load order. A rule that
// exceeds its match cap or timeout is skipped for this file only and
// reported as a classification record; remaining rules continue.
func (e *Engine) Scan(ctx context.Context, content, filePath, ext string) ([]types.Finding, []errclass.Record) {
	var findings []types.Finding
	var records []errclass.Record

	for _, rule := range e.ruleSet.Rules() {
		if !rule.AppliesTo(ext) {
			continue
		}

		var ruleFindings []types.Finding
		err := errclass.WithTimeout(ctx, e.scanTimeout, fmt.Sprintf("rule %s on %s", rule.ID, filePath), func() error {
			var err error
			ruleFindings, err = scanRule(rule, content, filePath)
			return err
		})
		if err != nil {
			records = append(records, errclass.AsRecord(filePath, err))
			continue
		}
		findings = append(findings, ruleFindings...)
	}

	return findings, records
}

// scanRule finds every non-overlapping match of one rule in content.
// Matching runs as one pass over the full content so ^, $, and \b see
// the true surrounding text at every position; resuming from a sliced
// offset would turn the slice start into a phantom text boundary. The
// engine handles zero-width advancement itself, and the match limit
// doubles as the cap check: one result past the cap means the rule is
// treated as runaway.
func scanRule(rule *CompiledRule, content, filePath string) ([]types.Finding, error) {
	locs := rule.Regexp().FindAllStringIndex(content, MaxMatchesPerRule+1)
	if len(locs) > MaxMatchesPerRule {
		return nil, errclass.RegexTimeout(rule.ID, filePath,
			fmt.Sprintf("more than %d matches; aborting scan for this rule", MaxMatchesPerRule))
	}

	findings := make([]types.Finding, 0, len(locs))
	pos := newPositionTracker(content)
	for _, loc := range locs {
		line, column := pos.at(loc[0])
		findings = append(findings, types.Finding{
			RuleID:      rule.ID,
			FilePath:    filePath,
			Line:        line,
			Column:      column,
			MatchedText: content[loc[0]:loc[1]],
			Severity:    rule.Severity,
			Fixable:     rule.Fixable(),
			Replacement: rule.Replacement,
			Pattern:     rule.Pattern,
		})
	}

	return findings, nil
}

// positionTracker converts byte offsets to 1-based line/column pairs.
// Offsets are queried in increasing order, so it advances a single
// scan position instead of recounting newlines from the start.
type positionTracker struct {
	content string
	offset  int
	line    int
	lastNL  int // offset of the newline before the current position, -1 on line 1
}

func newPositionTracker(content string) *positionTracker {
	return &positionTracker{content: content, line: 1, lastNL: -1}
}

// at returns the 1-based line and column for a byte offset at or after
// every previously queried offset.
func (p *positionTracker) at(offset int) (line, column int) {
	if nl := strings.Count(p.content[p.offset:offset], "\n"); nl > 0 {
		p.line += nl
		p.lastNL = p.offset + strings.LastIndex(p.content[p.offset:offset], "\n")
	}
	p.offset = offset
	return p.line, offset - p.lastNL
}
