package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("not a cron spec", "Europe/Istanbul", func() {}); err == nil {
		t.Fatal("expected error for an invalid cron spec")
	}
}

func TestNewRejectsBadTimezone(t *testing.T) {
	if _, err := New("0 5 * * *", "Europe/Nowhere", func() {}); err == nil {
		t.Fatal("expected error for an unknown timezone")
	}
}

func TestRunExecutesJobImmediately(t *testing.T) {
	var runs atomic.Int32
	s, err := New("0 5 * * *", "Europe/Istanbul", func() { runs.Add(1) })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	if runs.Load() != 1 {
		t.Errorf("runs = %d, want exactly the initial pass", runs.Load())
	}
}
