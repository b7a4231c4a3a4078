// Package baseline suppresses known findings so a migration can be
// adopted incrementally: existing findings are fingerprinted once and
// ignored on later runs until the underlying code actually changes.
package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/KaranUnique/Code-Migration-CLI-Tool/internal/types"
)

// Baseline represents a snapshot of known findings that should be ignored
type Baseline struct {
	Version      string          `json:"version"`
	CreatedAt    string          `json:"created_at"`
	Fingerprints []string        `json:"fingerprints"`
	index        map[string]bool // For fast lookup
}

// Create builds a new baseline from a list of findings
func Create(findings []types.Finding) *Baseline {
	fingerprints := make([]string, 0, len(findings))
	index := make(map[string]bool)

	for _, f := range findings {
		fp := fingerprint(f)
		if !index[fp] {
			fingerprints = append(fingerprints, fp)
			index[fp] = true
		}
	}

	// Sort for deterministic output
	sort.Strings(fingerprints)

	return &Baseline{
		Version:      "1.0",
		Fingerprints: fingerprints,
		index:        index,
	}
}

// Load loads a baseline from a JSON file
func Load(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}

	// Build index for fast lookup
	b.index = make(map[string]bool, len(b.Fingerprints))
	for _, fp := range b.Fingerprints {
		b.index[fp] = true
	}

	return &b, nil
}

// Save saves the baseline to a JSON file
func (b *Baseline) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}

	return nil
}

// IsKnown checks if a finding is in the baseline
func (b *Baseline) IsKnown(f types.Finding) bool {
	if b.index == nil {
		return false
	}
	return b.index[fingerprint(f)]
}

// Filter splits findings into the unknown ones and a count of those the
// baseline already covers.
func (b *Baseline) Filter(findings []types.Finding) (kept []types.Finding, ignored int) {
	for _, f := range findings {
		if b.IsKnown(f) {
			ignored++
			continue
		}
		kept = append(kept, f)
	}
	return kept, ignored
}

// fingerprint creates a stable hash of a finding for comparison.
// Uses file path + rule id + normalized matched text; line numbers are
// excluded because they shift as the file is edited.
func fingerprint(f types.Finding) string {
	matched := strings.Join(strings.Fields(f.MatchedText), " ")
	data := fmt.Sprintf("%s|%s|%s", f.FilePath, f.RuleID, matched)

	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
