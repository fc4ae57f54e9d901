package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/streavmin/streavmin/internal/testutil"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	// Triggered tasks finish asynchronously, so the scheduler must not
	// log through a t-bound writer.
	s, err := New(testutil.NopLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_RegisterTaskDuplicate(t *testing.T) {
	s := newTestScheduler(t)

	cfg := TaskConfig{
		ID:   "lint",
		Name: "Lint",
		Cron: "0 3 * * *",
		Func: func(ctx context.Context) error { return nil },
	}
	if err := s.RegisterTask(cfg); err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}
	if err := s.RegisterTask(cfg); err == nil {
		t.Error("RegisterTask() duplicate id = nil, want error")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)

	done := make(chan struct{})
	err := s.RegisterTask(TaskConfig{
		ID:   "lint",
		Name: "Lint",
		Cron: "0 3 * * *",
		Func: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}

	if err := s.RunNow("lint"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run after RunNow")
	}
}

func TestScheduler_RunNowUnknownTask(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.RunNow("nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("RunNow() error = %v, want ErrTaskNotFound", err)
	}
}
