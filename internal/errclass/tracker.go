package errclass

import (
	"fmt"
	"sync"
)

// suppressAfter is the number of occurrences of a suppressible category
// that are reported individually before further reports are muted.
const suppressAfter = 3

// suppressibleCategories are high-frequency categories whose individual
// reports are muted past the threshold to avoid flooding output on
// large trees. Counts keep accumulating either way.
var suppressibleCategories = map[Category]bool{
	CategoryPermission: true,
	CategoryEncoding:   true,
	CategoryFileSize:   true,
}

// Tracker holds the per-category counters consumed by the suppression
// policy and the final error-summary table. It is an explicit state
// object passed by reference, never a hidden singleton; callers that
// parallelize share one Tracker, which is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	counts  map[Category]int
	noticed map[Category]bool
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		counts:  make(map[Category]int),
		noticed: make(map[Category]bool),
	}
}

// ReportAction tells the caller what to surface for one recorded failure.
type ReportAction int

const (
	// ReportShow means the record should be reported individually.
	ReportShow ReportAction = iota
	// ReportSuppressNotice means a one-time "further errors suppressed"
	// notice should be shown instead of the record itself.
	ReportSuppressNotice
	// ReportMuted means the record was counted but must not be reported.
	ReportMuted
)

// Record counts one classified failure and returns how it should be
// reported under the suppression policy: the first suppressAfter
// occurrences of a suppressible category are shown, the next one
// produces a single suppression notice, and later ones are muted.
func (t *Tracker) Record(r Record) ReportAction {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts[r.Category]++
	if !suppressibleCategories[r.Category] {
		return ReportShow
	}
	n := t.counts[r.Category]
	switch {
	case n <= suppressAfter:
		return ReportShow
	case !t.noticed[r.Category]:
		t.noticed[r.Category] = true
		return ReportSuppressNotice
	default:
		return ReportMuted
	}
}

// SuppressNotice renders the one-time notice for a muted category.
func SuppressNotice(c Category) string {
	return fmt.Sprintf("further %s errors suppressed (still counted)", c)
}

// Count returns the number of failures recorded for one category.
func (t *Tracker) Count(c Category) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[c]
}

// Counts returns a copy of all non-zero per-category counters.
func (t *Tracker) Counts() map[Category]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Category]int, len(t.counts))
	for c, n := range t.counts {
		out[c] = n
	}
	return out
}

// Total returns the number of failures recorded across all categories.
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Reset clears all counters and suppression notices. Tests use this for
// isolation between cases.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts = make(map[Category]int)
	t.noticed = make(map[Category]bool)
}
