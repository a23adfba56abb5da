// Package orchestrator holds the ordered download queue, enforces the single
// active job invariant, and decides post-job continuation. All queue
// mutations are serialized through the orchestrator; worker goroutines
// communicate results back through one-way event delivery only.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ytqueue/internal/command"
	"ytqueue/internal/config"
	"ytqueue/internal/logging"
	"ytqueue/internal/queue"
	"ytqueue/internal/runner"
)

var (
	// ErrAlreadyRunning is returned by Start when the queue is actively
	// processing and not paused.
	ErrAlreadyRunning = errors.New("queue is already running")
	// ErrQueueEmpty is returned by Start when there is nothing to process.
	ErrQueueEmpty = errors.New("queue is empty")
	// ErrNotRunning is returned by Pause when no job is in flight.
	ErrNotRunning = errors.New("queue is not running")
	// ErrJobActive rejects move/remove operations on the active job.
	ErrJobActive = errors.New("job is active")
	// ErrBadIndex rejects out-of-range queue positions.
	ErrBadIndex = errors.New("index out of range")
	// ErrBusy rejects queue replacement while a download is active.
	ErrBusy = errors.New("a download is active")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLauncher injects a custom process launcher (primarily for tests).
func WithLauncher(launch runner.Launcher) Option {
	return func(o *Orchestrator) {
		if launch != nil {
			o.launch = launch
		}
	}
}

// Orchestrator sequences download jobs over one external process at a time.
type Orchestrator struct {
	cfg     *config.Config
	builder *command.Builder
	launch  runner.Launcher
	sink    Sink
	logger  *slog.Logger

	mu      sync.Mutex
	jobs    []queue.Job
	running bool
	paused  bool
	active  runner.Process

	wg sync.WaitGroup
}

// New constructs an orchestrator over a configuration snapshot.
func New(cfg *config.Config, logger *slog.Logger, sink Sink, opts ...Option) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	o := &Orchestrator{
		cfg:     cfg,
		builder: command.NewBuilder(cfg),
		launch:  runner.Launch,
		sink:    sink,
		logger:  logging.WithComponent(logger, "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Enqueue appends a job to the tail. Allowed in any queue state.
func (o *Orchestrator) Enqueue(job queue.Job) {
	o.mu.Lock()
	job.Status = queue.StatusPending
	o.jobs = append(o.jobs, job)
	count := len(o.jobs)
	o.mu.Unlock()

	o.logger.Info("job enqueued",
		logging.Args(
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldURL, job.URL),
			logging.Int("queue_length", count),
		)...)
}

// Jobs returns a snapshot of the ordered queue, front first.
func (o *Orchestrator) Jobs() []queue.Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := make([]queue.Job, len(o.jobs))
	copy(cp, o.jobs)
	return cp
}

// State reports whether a process is attached and whether auto-continuation
// is suspended.
func (o *Orchestrator) State() (running, paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running, o.paused
}

// Replace swaps the queue for the given ordered list. Rejected while a
// download is active.
func (o *Orchestrator) Replace(jobs []queue.Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrBusy
	}
	o.jobs = make([]queue.Job, len(jobs))
	copy(o.jobs, jobs)
	for i := range o.jobs {
		if o.jobs[i].Status == queue.StatusActive {
			o.jobs[i].Status = queue.StatusPending
		}
	}
	return nil
}

// Start begins processing the head job, or resumes auto-continuation after a
// pause. No-op with a diagnostic when the queue is empty or already actively
// running.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.running && !o.paused {
		o.mu.Unlock()
		o.sink.Diagnostic("Queue is already running.")
		return ErrAlreadyRunning
	}
	if len(o.jobs) == 0 {
		o.mu.Unlock()
		o.sink.Diagnostic("Queue is empty. Add items to start.")
		return ErrQueueEmpty
	}
	resuming := o.paused
	o.paused = false
	midFlight := o.running
	o.mu.Unlock()

	if resuming {
		o.sink.Diagnostic("Resuming queue processing...")
	} else {
		o.sink.Diagnostic("Starting queue processing...")
	}

	// A mid-flight resume only clears the pause flag; continuation happens
	// when the cancelled job delivers its terminal outcome.
	if !midFlight {
		o.startHead()
	}
	return nil
}

// Pause suspends auto-continuation and cancels the active process. The
// active job stays at the head of the queue so processing can resume with
// the same command later; the external tool offers no true pause primitive.
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		o.sink.Diagnostic("Queue is not running.")
		return ErrNotRunning
	}
	o.paused = true
	proc := o.active
	o.mu.Unlock()

	if proc != nil {
		proc.Cancel()
	}
	return nil
}

// MoveItem swaps the job at index with its neighbor at index+step, where
// step is -1 or 1. The active job cannot be moved; pause first.
func (o *Orchestrator) MoveItem(index, step int) error {
	if step != -1 && step != 1 {
		return fmt.Errorf("%w: step must be -1 or 1", ErrBadIndex)
	}
	o.mu.Lock()
	newIndex := index + step
	if index < 0 || index >= len(o.jobs) || newIndex < 0 || newIndex >= len(o.jobs) {
		o.mu.Unlock()
		return ErrBadIndex
	}
	if o.running && (index == 0 || newIndex == 0) {
		o.mu.Unlock()
		o.sink.Diagnostic("Cannot move an active download. Pause the queue first.")
		return ErrJobActive
	}
	o.jobs[index], o.jobs[newIndex] = o.jobs[newIndex], o.jobs[index]
	o.mu.Unlock()
	return nil
}

// RemoveItem deletes the job at index and returns it. The active job cannot
// be removed; pause first.
func (o *Orchestrator) RemoveItem(index int) (queue.Job, error) {
	o.mu.Lock()
	if index < 0 || index >= len(o.jobs) {
		o.mu.Unlock()
		return queue.Job{}, ErrBadIndex
	}
	if o.running && index == 0 {
		o.mu.Unlock()
		o.sink.Diagnostic("Cannot remove an active download. Pause the queue first.")
		return queue.Job{}, ErrJobActive
	}
	removed := o.jobs[index]
	o.jobs = append(o.jobs[:index], o.jobs[index+1:]...)
	o.mu.Unlock()
	return removed, nil
}

// Wait blocks until the in-flight supervisor goroutine, if any, has fully
// quiesced.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// startHead attaches a fresh runner to the head job. The previous runner has
// always fully signaled termination before this is reached: startHead is
// only called from Start (never while running) and from afterJob (the
// supervisor's own tail).
func (o *Orchestrator) startHead() {
	o.mu.Lock()
	if o.running || o.paused || len(o.jobs) == 0 {
		o.mu.Unlock()
		return
	}
	o.jobs[0].Status = queue.StatusActive
	job := o.jobs[0]
	args := o.builder.Download(job.URL, job.Selector)
	proc := o.launch(o.cfg.Tools.YtDlp, args,
		runner.WithStartTimeout(time.Duration(o.cfg.Workflow.StartTimeout)*time.Second),
		runner.WithStopGrace(time.Duration(o.cfg.Workflow.StopGrace)*time.Second),
	)
	o.running = true
	o.active = proc
	o.wg.Add(1)
	o.mu.Unlock()

	o.logger.Info("starting download",
		logging.Args(
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldURL, job.URL),
			logging.String("selector", string(job.Selector)),
		)...)
	o.sink.JobStarted(job)

	go o.supervise(job, proc)
}

// supervise owns one job's process from spawn to terminal outcome. It is the
// only goroutine that reads the runner's channels, so output events stay in
// production order and the terminal event always lands last.
func (o *Orchestrator) supervise(job queue.Job, proc runner.Process) {
	defer o.wg.Done()

	if err := proc.Start(context.Background()); err != nil {
		o.logger.Error("downloader failed to start",
			logging.Args(logging.String(logging.FieldJobID, job.ID), logging.Error(err))...)
	}

	for line := range proc.Lines() {
		o.sink.JobOutput(job, line)
	}
	outcome := <-proc.Done()

	o.afterJob(job, outcome)
}

// afterJob applies the advancement rule: pop the head on clean success,
// retain it otherwise, then continue when not paused. A failed job halts
// auto-continuation so the operator decides whether to retry, reorder, or
// discard; skipping ahead silently would bury the failure.
func (o *Orchestrator) afterJob(job queue.Job, outcome runner.Outcome) {
	o.mu.Lock()
	o.running = false
	o.active = nil

	finished := job
	if len(o.jobs) > 0 {
		head := &o.jobs[0]
		switch {
		case outcome.Success():
			head.Status = queue.StatusCompleted
			finished = *head
			o.jobs = o.jobs[1:]
		case outcome.Cancelled:
			head.Status = queue.StatusPending
			finished = *head
			finished.Status = queue.StatusCancelled
		default:
			head.Status = queue.StatusFailed
			head.ErrorMessage = failureMessage(outcome)
			finished = *head
			o.paused = true
		}
	}
	summary := summarize(finished, outcome)
	queueDone := outcome.Success() && len(o.jobs) == 0
	o.mu.Unlock()

	o.logger.Info("download finished",
		logging.Args(
			logging.String(logging.FieldJobID, finished.ID),
			logging.Int(logging.FieldExitCode, outcome.Code),
			logging.Bool("cancelled", outcome.Cancelled),
		)...)
	o.sink.JobFinished(finished, outcome, summary)

	if queueDone {
		o.sink.QueueFinished()
		return
	}
	o.startHead()
}

func summarize(job queue.Job, outcome runner.Outcome) string {
	switch {
	case outcome.Cancelled:
		return fmt.Sprintf("Download cancelled: %s", job.ShortTitle())
	case outcome.LaunchFailed:
		return fmt.Sprintf("Failed to start downloader for %s: %s", job.ShortTitle(), failureMessage(outcome))
	case outcome.Code != 0:
		return fmt.Sprintf("Downloader exited with code %d: %s", outcome.Code, job.ShortTitle())
	default:
		return fmt.Sprintf("Download finished: %s", job.ShortTitle())
	}
}

func failureMessage(outcome runner.Outcome) string {
	if outcome.Err != nil {
		return outcome.Err.Error()
	}
	if outcome.LaunchFailed {
		return "process failed to start"
	}
	return fmt.Sprintf("exit code %d", outcome.Code)
}
