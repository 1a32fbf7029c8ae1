package jobmgr

import (
	"context"
	"testing"
	"time"
)

func TestStartAsyncRejectsDuplicateNames(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})

	if err := m.StartAsync("job", func(ctx context.Context) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("StartAsync: %v", err)
	}
	if err := m.StartAsync("job", func(ctx context.Context) error { return nil }); err == nil {
		t.Fatal("second StartAsync with the same name should fail")
	}
	close(release)
}

func TestStopCancelsJob(t *testing.T) {
	m := NewManager(nil)
	cancelled := make(chan struct{})

	if err := m.StartAsync("job", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return nil
	}); err != nil {
		t.Fatalf("StartAsync: %v", err)
	}
	if !m.Running("job") {
		t.Fatal("job should be running")
	}

	m.Stop("job")
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled")
	}
	if m.Running("job") {
		t.Fatal("job should be gone after Stop")
	}

	// Stopping again is a no-op.
	m.Stop("job")
}

func TestJobRemovedOnCompletion(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})

	if err := m.StartAsync("job", func(ctx context.Context) error {
		defer close(done)
		return nil
	}); err != nil {
		t.Fatalf("StartAsync: %v", err)
	}

	<-done
	deadline := time.Now().Add(2 * time.Second)
	for m.Running("job") {
		if time.Now().After(deadline) {
			t.Fatal("completed job was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
