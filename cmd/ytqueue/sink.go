package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"ytqueue/internal/orchestrator"
	"ytqueue/internal/queue"
	"ytqueue/internal/runner"
)

// terminalEvent carries one job's final outcome from the orchestrator's
// supervisor goroutine to the run loop.
type terminalEvent struct {
	job     queue.Job
	outcome runner.Outcome
}

// consoleSink renders queue events to the terminal and forwards terminal
// outcomes to the run loop over buffered channels so the orchestrator is
// never blocked on presentation.
type consoleSink struct {
	mu    sync.Mutex
	out   io.Writer
	color bool

	terminals chan terminalEvent
	drained   chan struct{}
}

func newConsoleSink(out io.Writer, color bool) *consoleSink {
	return &consoleSink{
		out:       out,
		color:     color,
		terminals: make(chan terminalEvent, 8),
		drained:   make(chan struct{}, 1),
	}
}

var _ orchestrator.Sink = (*consoleSink)(nil)

func (s *consoleSink) JobStarted(job queue.Job) {
	s.printf("%s %s\n", s.paint("▶ Downloading:", text.FgHiGreen), job.ShortTitle())
}

func (s *consoleSink) JobOutput(_ queue.Job, line runner.Line) {
	switch line.Class {
	case runner.ClassError:
		s.printf("%s\n", s.paint(line.Text, text.FgRed))
	case runner.ClassRemoval:
		s.printf("%s\n", s.paint(line.Text, text.FgYellow))
	case runner.ClassProgress:
		s.printf("%s\n", s.paint(line.Text, text.FgCyan))
	default:
		s.printf("%s\n", line.Text)
	}
}

func (s *consoleSink) JobFinished(job queue.Job, outcome runner.Outcome, summary string) {
	switch {
	case outcome.Success():
		s.printf("%s\n", s.paint(summary, text.FgHiGreen))
	case outcome.Cancelled:
		s.printf("%s\n", s.paint(summary, text.FgYellow))
	default:
		s.printf("%s\n", s.paint(summary, text.FgHiRed))
	}
	s.terminals <- terminalEvent{job: job, outcome: outcome}
}

func (s *consoleSink) QueueFinished() {
	s.printf("%s\n", s.paint("All downloads finished.", text.FgHiGreen))
	select {
	case s.drained <- struct{}{}:
	default:
	}
}

func (s *consoleSink) Diagnostic(msg string) {
	s.printf("%s\n", msg)
}

func (s *consoleSink) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *consoleSink) paint(msg string, color text.Color) string {
	if !s.color {
		return msg
	}
	return color.Sprint(msg)
}
