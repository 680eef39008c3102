package traffic

import (
	"sync"
	"testing"
	"time"
)

func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestErrorRate_Empty(t *testing.T) {
	var tr Tracker
	if errs, total := tr.ErrorRate(time.Minute); errs != 0 || total != 0 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 0)", errs, total)
	}
}

func TestErrorRate_SuccessAndError(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.RecordSuccess()
	tr.RecordSuccess()
	tr.RecordError()
	if errs, total := tr.ErrorRate(time.Minute); errs != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", errs, total)
	}
}

// TestErrorRate_Window verifies outcomes older than the window are not counted
// and outcomes older than the horizon are pruned.
func TestErrorRate_Window(t *testing.T) {
	tr := NewTracker(5 * time.Minute)
	now, clock := fixedClock(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	tr.now = clock

	tr.RecordError()
	*now = now.Add(2 * time.Minute)
	tr.RecordSuccess()

	if errs, total := tr.ErrorRate(time.Minute); errs != 0 || total != 1 {
		t.Errorf("ErrorRate(1m) = (%d, %d), want (0, 1)", errs, total)
	}
	if errs, total := tr.ErrorRate(5 * time.Minute); errs != 1 || total != 2 {
		t.Errorf("ErrorRate(5m) = (%d, %d), want (1, 2)", errs, total)
	}

	*now = now.Add(4 * time.Minute)
	tr.RecordSuccess()
	tr.mu.Lock()
	remaining := len(tr.errorTimes)
	tr.mu.Unlock()
	if remaining != 0 {
		t.Errorf("errorTimes len = %d after horizon, want 0", remaining)
	}
}

func TestDegraded(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		errors    int
		pct       float64
		min       int
		want      bool
	}{
		{"no traffic", 0, 0, 50, 1, false},
		{"below threshold", 3, 1, 50, 1, false},
		{"at threshold", 2, 2, 50, 1, true},
		{"above threshold", 0, 3, 50, 1, true},
		{"too few samples", 0, 2, 50, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(time.Minute)
			for i := 0; i < tt.successes; i++ {
				tr.RecordSuccess()
			}
			for i := 0; i < tt.errors; i++ {
				tr.RecordError()
			}
			if got := tr.Degraded(time.Minute, tt.pct, tt.min); got != tt.want {
				t.Errorf("Degraded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker(time.Minute)
	tr.RecordError()
	tr.Reset()
	if _, total := tr.ErrorRate(time.Minute); total != 0 {
		t.Errorf("total after Reset = %d, want 0", total)
	}
}

func TestConcurrentRecording(t *testing.T) {
	tr := NewTracker(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tr.RecordSuccess()
				tr.RecordError()
			}
		}()
	}
	wg.Wait()
	if errs, total := tr.ErrorRate(time.Minute); errs != 500 || total != 1000 {
		t.Errorf("ErrorRate() = (%d, %d), want (500, 1000)", errs, total)
	}
}
