package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/regdigest/internal/volume"
)

// fakeExecutor marks runs done and records the order and overlap of
// executions.
type fakeExecutor struct {
	mu      sync.Mutex
	order   []string
	active  int
	overlap bool
	delay   time.Duration
}

func (f *fakeExecutor) Execute(ctx context.Context, run *Run) (Result, error) {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.order = append(f.order, run.VolumeID)
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	run.SetStatus(StatusDone)
	return Result{RunID: run.ID, Volume: run.VolumeID}, nil
}

func waitForStatus(t *testing.T, run *Run, status RunStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if run.Snapshot().Status == status {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s: timed out waiting for %s, last status %s", run.ID, status, run.Snapshot().Status)
}

func TestOrchestrator_RunsSequentially(t *testing.T) {
	exec := &fakeExecutor{delay: 10 * time.Millisecond}
	o := NewOrchestrator(exec, 8, time.Hour, nil)
	o.Start(context.Background())
	defer o.Stop()

	var runs []*Run
	for _, id := range []string{"Tomo_1", "Tomo_2", "Tomo_3"} {
		run := NewRun(volume.Volume{ID: id}, false)
		if err := o.Submit(run); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
		runs = append(runs, run)
	}
	for _, run := range runs {
		waitForStatus(t, run, StatusDone)
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()
	if exec.overlap {
		t.Error("expected runs never to overlap")
	}
	if len(exec.order) != 3 || exec.order[0] != "Tomo_1" || exec.order[2] != "Tomo_3" {
		t.Errorf("expected submission order, got %v", exec.order)
	}
	if o.GetRun(runs[1].ID) == nil {
		t.Error("expected run to be retrievable by id")
	}
	if len(o.ListRuns()) != 3 {
		t.Errorf("expected 3 listed runs, got %d", len(o.ListRuns()))
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(&fakeExecutor{}, 1, time.Hour, nil)

	first := NewRun(volume.Volume{ID: "Tomo_1"}, false)
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Snapshot().Status != StatusQueued {
		t.Errorf("expected queued, got %s", first.Snapshot().Status)
	}

	second := NewRun(volume.Volume{ID: "Tomo_2"}, false)
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected run to be failed, got %s", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(&fakeExecutor{}, 4, time.Hour, nil)
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	if err := o.Submit(NewRun(volume.Volume{ID: "Tomo_1"}, false)); err == nil {
		t.Error("expected error submitting to a stopped orchestrator")
	}
}

func TestOrchestrator_StopFailsQueuedRuns(t *testing.T) {
	// Never started: both runs are still waiting when Stop is called.
	o := NewOrchestrator(&fakeExecutor{}, 4, time.Hour, nil)
	first := NewRun(volume.Volume{ID: "Tomo_1"}, false)
	second := NewRun(volume.Volume{ID: "Tomo_2"}, false)
	for _, run := range []*Run{first, second} {
		if err := o.Submit(run); err != nil {
			t.Fatalf("submit %s: %v", run.VolumeID, err)
		}
	}

	o.Stop()

	for _, run := range []*Run{first, second} {
		snap := run.Snapshot()
		if snap.Status != StatusFailed {
			t.Errorf("%s: expected failed, got %s", run.VolumeID, snap.Status)
		}
		if snap.Error == "" {
			t.Errorf("%s: expected an error message", run.VolumeID)
		}
	}
	if o.QueueDepth() != 0 {
		t.Errorf("expected empty queue after stop, got %d", o.QueueDepth())
	}
}
