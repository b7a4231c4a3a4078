// Package rules implements the rule engine: loading and compiling rule
// definitions, and scanning file content for matches with line/column
// position tracking.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/errclass"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/schema"
	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// CompiledRule pairs a validated rule with its compiled pattern and the
// normalized replacement template.
type CompiledRule struct {
	types.Rule
	re       *regexp.Regexp
	template string
}

// Regexp exposes the compiled pattern for the fix engine.
func (c *CompiledRule) Regexp() *regexp.Regexp {
	return c.re
}

// Template returns the replacement template in Go's expansion syntax.
// It is meaningful only when the rule is fixable.
func (c *CompiledRule) Template() string {
	return c.template
}

// RuleSet holds the rules that survived validation, in load order. Load
// order is significant: fixes apply rules in this order (pipeline
// semantics), so it must be preserved for reproducibility.
type RuleSet struct {
	rules []*CompiledRule
	byID  map[string]*CompiledRule
}

// Rules returns the compiled rules in load order.
func (rs *RuleSet) Rules() []*CompiledRule {
	return rs.rules
}

// Get returns the compiled rule with the given id, or nil.
func (rs *RuleSet) Get(id string) *CompiledRule {
	return rs.byID[id]
}

// Len returns the number of active rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// ruleDocument is the top-level shape of a rule file. Elements stay as
// yaml.Node so one malformed rule is contained to that rule instead of
// failing the whole document.
type ruleDocument struct {
	Rules []yaml.Node `yaml:"rules"`
}

// Loader validates and compiles rule documents. Validator may be nil,
// in which case only Go-level validation runs.
type Loader struct {
	Validator *schema.Validator
}

// Load parses a YAML rule document and returns the subset of rules that
// validated, one classification record per rule that did not, and a
// fatal error when the document itself is malformed (missing or
// non-list top-level rules key).
func (l *Loader) Load(doc []byte) (*RuleSet, []errclass.Record, error) {
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(doc, &probe); err != nil {
		return nil, nil, fmt.Errorf("malformed rule document: %w", err)
	}
	node, ok := probe["rules"]
	if !ok {
		return nil, nil, fmt.Errorf("malformed rule document: missing top-level %q list", "rules")
	}
	if node.Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("malformed rule document: %q must be a list", "rules")
	}

	var parsed ruleDocument
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, nil, fmt.Errorf("malformed rule document: %w", err)
	}

	rs := &RuleSet{byID: make(map[string]*CompiledRule)}
	var records []errclass.Record

	for i, n := range parsed.Rules {
		compiled, rec := l.loadOne(i, n)
		if rec != nil {
			records = append(records, *rec)
			continue
		}
		rs.rules = append(rs.rules, compiled)
		rs.byID[compiled.ID] = compiled
	}

	return rs, records, nil
}

// loadOne validates and compiles a single rule element.
func (l *Loader) loadOne(index int, n yaml.Node) (*CompiledRule, *errclass.Record) {
	id := fmt.Sprintf("rules[%d]", index)

	if l.Validator != nil {
		var raw map[string]any
		if err := n.Decode(&raw); err == nil {
			if err := l.Validator.ValidateRule(raw); err != nil {
				rec := errclass.InvalidRegex(ruleIDOrIndex(raw, id), fmt.Errorf("schema: %w", err))
				return nil, &rec
			}
		}
	}

	var rule types.Rule
	if err := n.Decode(&rule); err != nil {
		rec := errclass.InvalidRegex(id, err)
		return nil, &rec
	}
	if rule.ID != "" {
		id = rule.ID
	}

	if err := validateRule(&rule); err != nil {
		rec := errclass.InvalidRegex(id, err)
		return nil, &rec
	}

	re, err := CompilePattern(rule.Pattern)
	if err != nil {
		rec := errclass.InvalidRegex(id, err)
		return nil, &rec
	}

	compiled := &CompiledRule{Rule: rule, re: re}
	if rule.Replacement != nil {
		compiled.template = NormalizeTemplate(*rule.Replacement)
	}
	return compiled, nil
}

func ruleIDOrIndex(raw map[string]any, fallback string) string {
	if id, ok := raw["id"].(string); ok && id != "" {
		return id
	}
	return fallback
}

// validateRule checks the required fields of a rule.
func validateRule(r *types.Rule) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("missing required field %q", "id")
	case r.Name == "":
		return fmt.Errorf("missing required field %q", "name")
	case r.Pattern == "":
		return fmt.Errorf("missing required field %q", "pattern")
	case len(r.FileTypes) == 0:
		return fmt.Errorf("missing required field %q", "fileTypes")
	case !types.ValidSeverity(r.Severity):
		return fmt.Errorf("invalid severity %q: must be error, warning, or info", r.Severity)
	}
	return nil
}

// CompilePattern compiles a rule pattern with multi-line semantics:
// ^ and $ anchor at line boundaries and matching continues past
// newlines, matching the global/multi-line behavior rule authors expect.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?m)") {
		pattern = "(?m)" + pattern
	}
	return regexp.Compile(pattern)
}

// groupRef matches $1-style capture references in replacement templates.
var groupRef = regexp.MustCompile(`\$(\d+)|\\(\d+)`)

// NormalizeTemplate converts $1 and \1 capture references to Go's
// ${1} expansion form so a digit following a reference is never
// swallowed into the group name.
func NormalizeTemplate(tpl string) string {
	return groupRef.ReplaceAllStringFunc(tpl, func(m string) string {
		return "${" + strings.TrimLeft(m, `$\`) + "}"
	})
}
