// Package traffic tracks fetch outcomes in a sliding window so the health check
// can report the service as degraded when upstream calls keep failing.
package traffic

import (
	"sync"
	"time"
)

// DefaultHorizon is how long outcomes are retained when NewTracker gets zero.
const DefaultHorizon = 5 * time.Minute

// Tracker maintains sliding windows of success and error timestamps. Safe for concurrent use.
// The zero value is usable and retains DefaultHorizon.
type Tracker struct {
	mu           sync.Mutex
	horizon      time.Duration
	now          func() time.Time
	successTimes []time.Time
	errorTimes   []time.Time
}

// NewTracker creates a Tracker that keeps outcomes for horizon.
func NewTracker(horizon time.Duration) *Tracker {
	return &Tracker{horizon: horizon}
}

// RecordSuccess records a fetch that produced a report.
func (t *Tracker) RecordSuccess() {
	t.record(&t.successTimes)
}

// RecordError records a fetch that failed upstream. City-not-found is not an error here.
func (t *Tracker) RecordError() {
	t.record(&t.errorTimes)
}

func (t *Tracker) record(slice *[]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	*slice = append(*slice, now)
	t.pruneLocked(now)
}

// ErrorRate returns (errorCount, totalCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.clock().Add(-window)
	errCount := countSince(t.errorTimes, cutoff)
	return errCount, errCount + countSince(t.successTimes, cutoff)
}

// Degraded reports whether at least minSamples fetches happened in the window and
// the share that failed is at or above thresholdPct (0-100).
func (t *Tracker) Degraded(window time.Duration, thresholdPct float64, minSamples int) bool {
	errs, total := t.ErrorRate(window)
	if total == 0 || total < minSamples {
		return false
	}
	return float64(errs)*100/float64(total) >= thresholdPct
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.successTimes = nil
	t.errorTimes = nil
}

func (t *Tracker) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than the horizon. Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	horizon := t.horizon
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	cutoff := now.Add(-horizon)
	prune := func(slice *[]time.Time) {
		times := *slice
		i := 0
		for i < len(times) && times[i].Before(cutoff) {
			i++
		}
		if i > 0 {
			*slice = append(times[:0], times[i:]...)
		}
	}
	prune(&t.successTimes)
	prune(&t.errorTimes)
}
