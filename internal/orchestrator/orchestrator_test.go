package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ytqueue/internal/format"
	"ytqueue/internal/logging"
	"ytqueue/internal/orchestrator"
	"ytqueue/internal/queue"
	"ytqueue/internal/runner"
	"ytqueue/internal/testsupport"
)

const eventTimeout = 5 * time.Second

// fakeProcess is a hand-driven Process: the test decides when and how it
// terminates.
type fakeProcess struct {
	url   string
	lines chan runner.Line
	done  chan runner.Outcome

	cancelOnce sync.Once
	cancelled  chan struct{}
}

func (p *fakeProcess) Start(context.Context) error { return nil }

func (p *fakeProcess) Lines() <-chan runner.Line { return p.lines }

func (p *fakeProcess) Done() <-chan runner.Outcome { return p.done }

func (p *fakeProcess) Cancel() {
	p.cancelOnce.Do(func() { close(p.cancelled) })
}

func (p *fakeProcess) emit(text string) {
	p.lines <- runner.Line{Text: text, Class: runner.Classify(text)}
}

func (p *fakeProcess) finish(outcome runner.Outcome) {
	close(p.lines)
	p.done <- outcome
	close(p.done)
}

// fakeLauncher hands each spawned process to the test over a channel.
type fakeLauncher struct {
	spawned chan *fakeProcess
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{spawned: make(chan *fakeProcess, 8)}
}

func (l *fakeLauncher) launch(binary string, args []string, opts ...runner.Option) runner.Process {
	url := ""
	if len(args) > 0 {
		url = args[len(args)-1]
	}
	p := &fakeProcess{
		url:       url,
		lines:     make(chan runner.Line, 16),
		done:      make(chan runner.Outcome, 1),
		cancelled: make(chan struct{}),
	}
	l.spawned <- p
	return p
}

func (l *fakeLauncher) next(t *testing.T) *fakeProcess {
	t.Helper()
	select {
	case p := <-l.spawned:
		return p
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for a process launch")
		return nil
	}
}

func (l *fakeLauncher) expectNone(t *testing.T) {
	t.Helper()
	select {
	case p := <-l.spawned:
		t.Fatalf("unexpected process launch for %s", p.url)
	case <-time.After(100 * time.Millisecond):
	}
}

type finishedEvent struct {
	job     queue.Job
	outcome runner.Outcome
	summary string
}

// recordSink forwards events to the test over buffered channels.
type recordSink struct {
	started   chan queue.Job
	output    chan runner.Line
	finished  chan finishedEvent
	queueDone chan struct{}
	diags     chan string
}

func newRecordSink() *recordSink {
	return &recordSink{
		started:   make(chan queue.Job, 8),
		output:    make(chan runner.Line, 64),
		finished:  make(chan finishedEvent, 8),
		queueDone: make(chan struct{}, 8),
		diags:     make(chan string, 8),
	}
}

func (s *recordSink) JobStarted(job queue.Job) { s.started <- job }

func (s *recordSink) JobOutput(_ queue.Job, line runner.Line) { s.output <- line }

func (s *recordSink) JobFinished(job queue.Job, outcome runner.Outcome, summary string) {
	s.finished <- finishedEvent{job: job, outcome: outcome, summary: summary}
}

func (s *recordSink) QueueFinished() { s.queueDone <- struct{}{} }

func (s *recordSink) Diagnostic(text string) { s.diags <- text }

func (s *recordSink) nextStarted(t *testing.T) queue.Job {
	t.Helper()
	select {
	case job := <-s.started:
		return job
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for JobStarted")
		return queue.Job{}
	}
}

func (s *recordSink) nextFinished(t *testing.T) finishedEvent {
	t.Helper()
	select {
	case ev := <-s.finished:
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for JobFinished")
		return finishedEvent{}
	}
}

func (s *recordSink) waitQueueDone(t *testing.T) {
	t.Helper()
	select {
	case <-s.queueDone:
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for QueueFinished")
	}
}

func testOrchestrator(t *testing.T) (*orchestrator.Orchestrator, *fakeLauncher, *recordSink) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	launcher := newFakeLauncher()
	sink := newRecordSink()
	orch := orchestrator.New(cfg, logging.NewNop(), sink, orchestrator.WithLauncher(launcher.launch))
	return orch, launcher, sink
}

func job(url string) queue.Job {
	return queue.NewJob(url, "Title for "+url, format.Best)
}

func TestStartProcessesJobsInOrder(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	urls := []string{
		"https://www.youtube.com/watch?v=aaa",
		"https://www.youtube.com/watch?v=bbb",
		"https://www.youtube.com/watch?v=ccc",
	}
	for _, url := range urls {
		orch.Enqueue(job(url))
	}

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	for i, url := range urls {
		proc := launcher.next(t)
		if proc.url != url {
			t.Fatalf("job %d: launched %s, want %s", i, proc.url, url)
		}
		started := sink.nextStarted(t)
		if started.URL != url || started.Status != queue.StatusActive {
			t.Fatalf("unexpected JobStarted: %+v", started)
		}
		proc.emit("[download] Downloading item")
		proc.finish(runner.Outcome{Code: 0})

		ev := sink.nextFinished(t)
		if ev.job.URL != url || ev.job.Status != queue.StatusCompleted {
			t.Fatalf("unexpected JobFinished: %+v", ev.job)
		}
	}

	sink.waitQueueDone(t)
	orch.Wait()
	if jobs := orch.Jobs(); len(jobs) != 0 {
		t.Fatalf("expected drained queue, got %d jobs", len(jobs))
	}
	if running, paused := orch.State(); running || paused {
		t.Fatalf("expected idle state, got running=%t paused=%t", running, paused)
	}
}

func TestTerminalEventPrecedesNextStart(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))
	orch.Enqueue(job("https://www.youtube.com/watch?v=bbb"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	launcher.next(t).finish(runner.Outcome{Code: 0})

	// The second JobStarted must not arrive before the first terminal event.
	first := sink.nextFinished(t)
	if first.job.Status != queue.StatusCompleted {
		t.Fatalf("unexpected first terminal: %+v", first.job)
	}
	second := sink.nextStarted(t)
	if second.URL != "https://www.youtube.com/watch?v=bbb" {
		t.Fatalf("unexpected second job: %+v", second)
	}
	launcher.next(t).finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.waitQueueDone(t)
	orch.Wait()
}

func TestFailureRetainsHeadAndHalts(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))
	orch.Enqueue(job("https://www.youtube.com/watch?v=bbb"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)
	proc.emit("ERROR: Video unavailable")
	proc.finish(runner.Outcome{Code: 1})

	ev := sink.nextFinished(t)
	if ev.job.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %+v", ev.job)
	}
	orch.Wait()

	launcher.expectNone(t)
	jobs := orch.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected failed job retained, got %d jobs", len(jobs))
	}
	if jobs[0].Status != queue.StatusFailed || jobs[0].ErrorMessage == "" {
		t.Fatalf("head not marked failed: %+v", jobs[0])
	}
	if running, paused := orch.State(); running || !paused {
		t.Fatalf("expected halted state, got running=%t paused=%t", running, paused)
	}

	// An explicit Start retries the failed head.
	if err := orch.Start(); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}
	retry := launcher.next(t)
	if retry.url != "https://www.youtube.com/watch?v=aaa" {
		t.Fatalf("expected retry of failed head, got %s", retry.url)
	}
	sink.nextStarted(t)
	retry.finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.nextStarted(t)
	launcher.next(t).finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.waitQueueDone(t)
	orch.Wait()
}

func TestPauseCancelsAndRetainsHead(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)

	if err := orch.Pause(); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}
	select {
	case <-proc.cancelled:
	case <-time.After(eventTimeout):
		t.Fatal("expected the active process to be cancelled")
	}
	proc.finish(runner.Outcome{Code: runner.CodeFailure, Cancelled: true})

	ev := sink.nextFinished(t)
	if ev.job.Status != queue.StatusCancelled {
		t.Fatalf("expected cancelled terminal, got %+v", ev.job)
	}
	orch.Wait()
	launcher.expectNone(t)

	jobs := orch.Jobs()
	if len(jobs) != 1 || jobs[0].Status != queue.StatusPending {
		t.Fatalf("expected head retained as pending, got %+v", jobs)
	}
}

func TestResumeDuringCancellationContinuesOnTerminal(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)

	if err := orch.Pause(); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}
	// Resume before the terminal outcome lands: no immediate relaunch.
	if err := orch.Start(); err != nil {
		t.Fatalf("resume returned error: %v", err)
	}
	launcher.expectNone(t)

	proc.finish(runner.Outcome{Code: runner.CodeFailure, Cancelled: true})
	sink.nextFinished(t)

	// The same head restarts once the cancelled outcome is delivered.
	restarted := launcher.next(t)
	if restarted.url != "https://www.youtube.com/watch?v=aaa" {
		t.Fatalf("expected head relaunch, got %s", restarted.url)
	}
	sink.nextStarted(t)
	restarted.finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.waitQueueDone(t)
	orch.Wait()
}

func TestStartGuards(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)

	if err := orch.Start(); !errors.Is(err, orchestrator.ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}

	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))
	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)

	if err := orch.Start(); !errors.Is(err, orchestrator.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if err := orch.Pause(); err != nil {
		t.Fatalf("Pause returned error: %v", err)
	}
	proc.finish(runner.Outcome{Code: runner.CodeFailure, Cancelled: true})
	sink.nextFinished(t)
	orch.Wait()

	if err := orch.Pause(); !errors.Is(err, orchestrator.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestMoveAndRemoveGuardActiveHead(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))
	orch.Enqueue(job("https://www.youtube.com/watch?v=bbb"))
	orch.Enqueue(job("https://www.youtube.com/watch?v=ccc"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)

	if err := orch.MoveItem(0, 1); !errors.Is(err, orchestrator.ErrJobActive) {
		t.Fatalf("expected ErrJobActive moving the head, got %v", err)
	}
	if err := orch.MoveItem(1, -1); !errors.Is(err, orchestrator.ErrJobActive) {
		t.Fatalf("expected ErrJobActive moving into the head, got %v", err)
	}
	if _, err := orch.RemoveItem(0); !errors.Is(err, orchestrator.ErrJobActive) {
		t.Fatalf("expected ErrJobActive removing the head, got %v", err)
	}

	if err := orch.MoveItem(1, 1); err != nil {
		t.Fatalf("moving tail jobs should be allowed: %v", err)
	}
	jobs := orch.Jobs()
	if jobs[1].URL != "https://www.youtube.com/watch?v=ccc" {
		t.Fatalf("swap not applied: %+v", jobs)
	}

	removed, err := orch.RemoveItem(2)
	if err != nil {
		t.Fatalf("removing a tail job should be allowed: %v", err)
	}
	if removed.URL != "https://www.youtube.com/watch?v=bbb" {
		t.Fatalf("unexpected removed job: %+v", removed)
	}

	proc.finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.nextStarted(t)
	launcher.next(t).finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.waitQueueDone(t)
	orch.Wait()
}

func TestMoveItemBounds(t *testing.T) {
	orch, _, _ := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))

	if err := orch.MoveItem(0, -1); !errors.Is(err, orchestrator.ErrBadIndex) {
		t.Fatalf("expected ErrBadIndex moving the first item up, got %v", err)
	}
	if err := orch.MoveItem(0, 1); !errors.Is(err, orchestrator.ErrBadIndex) {
		t.Fatalf("expected ErrBadIndex moving the last item down, got %v", err)
	}
	if err := orch.MoveItem(5, 1); !errors.Is(err, orchestrator.ErrBadIndex) {
		t.Fatalf("expected ErrBadIndex for out-of-range index, got %v", err)
	}
	if _, err := orch.RemoveItem(5); !errors.Is(err, orchestrator.ErrBadIndex) {
		t.Fatalf("expected ErrBadIndex for out-of-range removal, got %v", err)
	}
}

func TestReplaceRejectedWhileRunning(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)

	if err := orch.Replace([]queue.Job{job("https://www.youtube.com/watch?v=bbb")}); !errors.Is(err, orchestrator.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	proc.finish(runner.Outcome{Code: 0})
	sink.nextFinished(t)
	sink.waitQueueDone(t)
	orch.Wait()

	replacement := []queue.Job{job("https://www.youtube.com/watch?v=bbb")}
	replacement[0].Status = queue.StatusActive
	if err := orch.Replace(replacement); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	jobs := orch.Jobs()
	if len(jobs) != 1 || jobs[0].Status != queue.StatusPending {
		t.Fatalf("active status not reset on replace: %+v", jobs)
	}
}

func TestOutputForwardedInOrder(t *testing.T) {
	orch, launcher, sink := testOrchestrator(t)
	orch.Enqueue(job("https://www.youtube.com/watch?v=aaa"))

	if err := orch.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	sink.nextStarted(t)
	proc := launcher.next(t)
	texts := []string{"[download] 10%", "[download] 50%", "[Merger] Merging formats"}
	for _, text := range texts {
		proc.emit(text)
	}
	proc.finish(runner.Outcome{Code: 0})

	for i, want := range texts {
		select {
		case line := <-sink.output:
			if line.Text != want {
				t.Fatalf("line %d: got %q want %q", i, line.Text, want)
			}
		case <-time.After(eventTimeout):
			t.Fatalf("timed out waiting for output line %d", i)
		}
	}
	sink.nextFinished(t)
	sink.waitQueueDone(t)
	orch.Wait()
}
