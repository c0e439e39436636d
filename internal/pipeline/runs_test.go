package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/regdigest/internal/volume"
)

func testRun(id string) *Run {
	r := NewRun(volume.Volume{ID: "Tomo_1", Plan: volume.PlanStandard}, false)
	r.ID = id
	return r
}

func TestNewRun(t *testing.T) {
	vol := volume.Volume{ID: "Tomo_4", Plan: volume.PlanSummary}
	r := NewRun(vol, true)

	if r.ID == "" || len(r.ID) != 36 {
		t.Errorf("expected uuid run id, got %q", r.ID)
	}
	if r.Status != StatusIdle {
		t.Errorf("expected idle status, got %q", r.Status)
	}
	if r.VolumeID != "Tomo_4" || r.Plan != volume.PlanSummary || !r.ReuseArtifact {
		t.Errorf("unexpected run fields %+v", r.Snapshot())
	}
	if r.Volume().ID != "Tomo_4" {
		t.Error("expected run to carry its volume")
	}
	if NewRun(vol, false).ID == r.ID {
		t.Error("expected unique run ids")
	}
}

func TestRun_StateTransitions(t *testing.T) {
	run := testRun("test-1")

	transitions := []RunStatus{
		StatusExtracting,
		StatusRecognizing,
		StatusChunking,
		StatusDispatching,
		StatusWriting,
		StatusDone,
	}

	for _, status := range transitions {
		before := run.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		run.SetStatus(status)

		if run.Status != status {
			t.Errorf("expected status %q, got %q", status, run.Status)
		}
		if !run.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", status)
		}
	}
}

func TestRunStatus_Terminal(t *testing.T) {
	terminal := map[RunStatus]bool{
		StatusIdle:        false,
		StatusQueued:      false,
		StatusExtracting:  false,
		StatusRecognizing: false,
		StatusChunking:    false,
		StatusDispatching: false,
		StatusWriting:     false,
		StatusDone:        true,
		StatusAborted:     true,
		StatusFailed:      true,
	}
	for status, want := range terminal {
		if status.Terminal() != want {
			t.Errorf("%s: expected terminal=%v", status, want)
		}
	}
}

func TestRun_Fail(t *testing.T) {
	run := testRun("test-fail")
	run.SetStatus(StatusDispatching)
	run.Fail(errors.New("openai completion failed (status 401): invalid api key"))

	snap := run.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Error == "" {
		t.Error("expected error to be recorded")
	}
}

func TestRun_Progress(t *testing.T) {
	run := testRun("progress-test")
	run.SetPages(16)
	run.SetChars(41000)
	run.SetTotalFragments(12)
	run.IncrFragmentsProcessed()
	run.IncrDispatches()
	run.IncrDispatches()
	run.AddFiles("a.txt", "b.txt")

	snap := run.Snapshot()
	want := RunProgress{Pages: 16, Chars: 41000, TotalFragments: 12, FragmentsProcessed: 1, Dispatches: 2}
	if snap.Progress != want {
		t.Errorf("expected %+v, got %+v", want, snap.Progress)
	}
	if len(snap.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(snap.Files))
	}
}

func TestRun_SnapshotFilesNotNil(t *testing.T) {
	snap := testRun("snap-test").Snapshot()
	if snap.Files == nil {
		t.Error("expected non-nil files slice in snapshot")
	}
}

func TestRun_SnapshotIsCopy(t *testing.T) {
	run := testRun("copy-test")
	run.AddFiles("a.txt")
	snap := run.Snapshot()
	snap.Files[0] = "changed"
	if run.Snapshot().Files[0] != "a.txt" {
		t.Error("expected snapshot files to be a copy")
	}
}

func TestRunStore_PutGet(t *testing.T) {
	store := NewRunStore(time.Hour)
	store.Put(testRun("store-1"))

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get run back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing run")
	}
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store := NewRunStore(time.Hour)
	older := testRun("older")
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := testRun("newer")
	store.Put(older)
	store.Put(newer)

	list := store.List()
	if len(list) != 2 || list[0].ID != "newer" || list[1].ID != "older" {
		t.Errorf("unexpected order %+v", list)
	}
}

func TestRunStore_TTLCleanup(t *testing.T) {
	store := NewRunStore(50 * time.Millisecond)

	expired := testRun("old")
	expired.SetStatus(StatusDone)
	active := testRun("active")
	active.SetStatus(StatusDispatching)
	store.Put(expired)
	store.Put(active)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := testRun("new")
	fresh.SetStatus(StatusDone)
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired run to be cleaned up")
	}
	if store.Get("active") == nil {
		t.Error("expected in-flight run to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh run to survive cleanup")
	}
}

func TestRunStore_CleanupEmpty(t *testing.T) {
	store := NewRunStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
