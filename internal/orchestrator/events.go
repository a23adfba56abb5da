package orchestrator

import (
	"ytqueue/internal/queue"
	"ytqueue/internal/runner"
)

// Sink receives queue events. It is owned by the embedding front-end; the
// orchestrator never blocks on presentation beyond the sink calls themselves,
// and sink implementations must not call back into the orchestrator from
// within an event (mutations are funneled through the public operations).
type Sink interface {
	// JobStarted fires when a job becomes active. The terminal event of the
	// previous job is always delivered first.
	JobStarted(job queue.Job)
	// JobOutput delivers raw process output verbatim, in production order,
	// paired with its classification.
	JobOutput(job queue.Job, line runner.Line)
	// JobFinished delivers the single terminal outcome of a job together
	// with a one-line human-readable summary.
	JobFinished(job queue.Job, outcome runner.Outcome, summary string)
	// QueueFinished fires exactly once when the queue drains.
	QueueFinished()
	// Diagnostic carries operator-facing notices: rejected operations,
	// state warnings.
	Diagnostic(text string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) JobStarted(queue.Job) {}

func (NopSink) JobOutput(queue.Job, runner.Line) {}

func (NopSink) JobFinished(queue.Job, runner.Outcome, string) {}

func (NopSink) QueueFinished() {}

func (NopSink) Diagnostic(string) {}
