package errclass

import (
	"context"
	"time"
)

// WithTimeout races fn against a timer and returns a timeout-classified
// Record as the error if the timer fires first.
//
// This guard is advisory for CPU-bound synchronous work: regex matching
// cannot be preempted once started, so when the timer wins the goroutine
// running fn keeps going until its current computation returns and only
// then is its result discarded. The match-count cap in the rule engine
// is the authoritative defense against runaway patterns; this wall-clock
// bound mainly catches work that is merely slow across many matches, and
// is a true guard only for naturally chunked or asynchronous operations.
func WithTimeout(ctx context.Context, d time.Duration, label string, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return Record{
			Category:    CategoryTimeout,
			Recoverable: true,
			SkipRule:    true,
			Message:     label + " exceeded " + d.String(),
			Suggestion:  "simplify the operation or raise the timeout",
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
