package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/regdigest/internal/volume"
)

// RunStatus is the state of a volume run.
type RunStatus string

const (
	StatusIdle        RunStatus = "idle"
	StatusQueued      RunStatus = "queued"
	StatusExtracting  RunStatus = "extracting"
	StatusRecognizing RunStatus = "recognizing"
	StatusChunking    RunStatus = "chunking"
	StatusDispatching RunStatus = "dispatching"
	StatusWriting     RunStatus = "writing"
	StatusDone        RunStatus = "done"
	StatusAborted     RunStatus = "aborted"
	StatusFailed      RunStatus = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s RunStatus) Terminal() bool {
	return s == StatusDone || s == StatusAborted || s == StatusFailed
}

// Run tracks the state of a single volume run.
type Run struct {
	mu sync.Mutex

	ID       string `json:"run_id"`
	VolumeID string `json:"volume_id"`
	Plan     string `json:"plan"`

	// ReuseArtifact skips page extraction and reads the existing
	// intermediate document.
	ReuseArtifact bool `json:"reuse_artifact"`

	Status   RunStatus   `json:"status"`
	Progress RunProgress `json:"progress"`
	Files    []string    `json:"files"`
	Error    string      `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	volume volume.Volume
}

// RunProgress counts work done so far.
type RunProgress struct {
	Pages              int `json:"pages"`
	Chars              int `json:"chars"`
	TotalFragments     int `json:"total_fragments"`
	FragmentsProcessed int `json:"fragments_processed"`
	Dispatches         int `json:"dispatches"`
}

// NewRun creates an idle run for vol.
func NewRun(vol volume.Volume, reuseArtifact bool) *Run {
	now := time.Now()
	return &Run{
		ID:            uuid.NewString(),
		VolumeID:      vol.ID,
		Plan:          vol.Plan,
		ReuseArtifact: reuseArtifact,
		Status:        StatusIdle,
		CreatedAt:     now,
		UpdatedAt:     now,
		volume:        vol,
	}
}

// Volume returns the volume the run processes.
func (r *Run) Volume() volume.Volume {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.UpdatedAt = time.Now()
}

// Fail records err and marks the run failed.
func (r *Run) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusFailed
	r.Error = err.Error()
	r.UpdatedAt = time.Now()
}

func (r *Run) SetPages(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Pages = n
	r.UpdatedAt = time.Now()
}

func (r *Run) SetChars(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Chars = n
	r.UpdatedAt = time.Now()
}

func (r *Run) SetTotalFragments(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.TotalFragments = n
	r.UpdatedAt = time.Now()
}

// IncrFragmentsProcessed atomically increments fragments processed.
func (r *Run) IncrFragmentsProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.FragmentsProcessed++
	r.UpdatedAt = time.Now()
}

// IncrDispatches atomically increments completion requests issued.
func (r *Run) IncrDispatches() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.Dispatches++
	r.UpdatedAt = time.Now()
}

// AddFiles records written output paths.
func (r *Run) AddFiles(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Files = append(r.Files, paths...)
	r.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID            string      `json:"run_id"`
	VolumeID      string      `json:"volume_id"`
	Plan          string      `json:"plan"`
	ReuseArtifact bool        `json:"reuse_artifact"`
	Status        RunStatus   `json:"status"`
	Progress      RunProgress `json:"progress"`
	Files         []string    `json:"files"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	files := make([]string, len(r.Files))
	copy(files, r.Files)
	return RunSnapshot{
		ID:            r.ID,
		VolumeID:      r.VolumeID,
		Plan:          r.Plan,
		ReuseArtifact: r.ReuseArtifact,
		Status:        r.Status,
		Progress:      r.Progress,
		Files:         files,
		Error:         r.Error,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// List returns snapshots of all runs, newest first.
func (s *RunStore) List() []RunSnapshot {
	s.mu.Lock()
	runs := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	s.mu.Unlock()

	out := make([]RunSnapshot, len(runs))
	for i, r := range runs {
		out[i] = r.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Cleanup removes finished runs not updated within the TTL.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		snap := run.Snapshot()
		if snap.Status.Terminal() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.runs, id)
		}
	}
}
