package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsUntilStopped(t *testing.T) {
	var runs atomic.Int32
	s := New("test", func(ctx context.Context) error {
		if runs.Add(1) == 2 {
			return errors.New("transient")
		}
		return nil
	}, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond,
		"a failed run does not stop the schedule")
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New("ctx", func(context.Context) error { return nil }, time.Hour)

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler ignored context cancellation")
	}
}
