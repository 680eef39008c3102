package http

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInFlightTracker_Count(t *testing.T) {
	tests := []struct {
		name string
		inc  int
		dec  int
		want int64
	}{
		{"zero value", 0, 0, 0},
		{"two started", 2, 0, 2},
		{"one of two finished", 2, 1, 1},
		{"all finished", 3, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tracker InFlightTracker
			for i := 0; i < tt.inc; i++ {
				tracker.Increment()
			}
			for i := 0; i < tt.dec; i++ {
				tracker.Decrement()
			}
			if got := tracker.Count(); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInFlightTracker_WaitForZeroDrains(t *testing.T) {
	var tracker InFlightTracker
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		tracker.Increment()
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			time.Sleep(d)
			tracker.Decrement()
		}(time.Duration(i+1) * 5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tracker.WaitForZero(ctx, time.Millisecond); err != nil {
		t.Fatalf("WaitForZero() error = %v", err)
	}
	wg.Wait()
	if tracker.Count() != 0 {
		t.Errorf("Count() = %d after drain", tracker.Count())
	}
}

func TestInFlightTracker_WaitForZeroDeadline(t *testing.T) {
	var tracker InFlightTracker
	tracker.Increment()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tracker.WaitForZero(ctx, 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForZero() error = %v, want deadline exceeded", err)
	}
}
