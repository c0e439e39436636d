package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/regdigest/internal/metrics"
)

// Executor runs a single volume run to completion.
type Executor interface {
	Execute(ctx context.Context, run *Run) (Result, error)
}

// Orchestrator queues volume runs and executes them one at a time. Runs share
// the intermediate artifact path, so there is exactly one worker.
type Orchestrator struct {
	runs     *RunStore
	queue    chan *Run
	executor Executor
	log      *slog.Logger
	maxQueue int

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(executor Executor, maxQueue int, runTTL time.Duration, log *slog.Logger) *Orchestrator {
	if maxQueue <= 0 {
		maxQueue = 16
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		runs:     NewRunStore(runTTL),
		queue:    make(chan *Run, maxQueue),
		executor: executor,
		log:      log,
		maxQueue: maxQueue,
	}
}

// Start launches the worker and the run store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case run, ok := <-o.queue:
				if !ok {
					return
				}
				metrics.DecrementRunsInQueue()
				if _, err := o.executor.Execute(workerCtx, run); err != nil {
					o.log.Warn("run ended with error", "run_id", run.ID, "volume", run.VolumeID, "error", err)
				}
			}
		}
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop cancels the in-flight run and waits for the worker to exit. Runs still
// waiting in the queue are failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for run := range o.queue {
		metrics.DecrementRunsInQueue()
		run.Fail(errors.New("orchestrator stopped before the run started"))
		metrics.CaptureRun(string(StatusFailed))
		o.log.Warn("queued run abandoned", "run_id", run.ID, "volume", run.VolumeID)
	}
}

// Submit queues run for execution.
func (o *Orchestrator) Submit(run *Run) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return fmt.Errorf("orchestrator stopped")
	}

	o.runs.Put(run)
	run.SetStatus(StatusQueued)
	select {
	case o.queue <- run:
		metrics.IncrementRunsInQueue()
		return nil
	default:
		run.Fail(fmt.Errorf("run queue is full (%d)", o.maxQueue))
		return fmt.Errorf("run queue is full (%d)", o.maxQueue)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// ListRuns returns snapshots of all known runs, newest first.
func (o *Orchestrator) ListRuns() []RunSnapshot {
	return o.runs.List()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
