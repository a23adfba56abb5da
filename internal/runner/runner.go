// Package runner supervises one external process invocation end-to-end: it
// spawns the process, streams its merged output as classified lines, supports
// cooperative cancellation with a forceful fallback, and reports exactly one
// terminal outcome. A Runner is one-shot; create a fresh instance per
// invocation.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// CodeFailure is the sentinel exit code reported when no real exit code
// exists: launch failures and operator cancellation.
const CodeFailure = -1

const (
	// DefaultStartTimeout bounds the wait for launch confirmation.
	DefaultStartTimeout = 5 * time.Second
	// DefaultStopGrace bounds the window between graceful termination and
	// force kill.
	DefaultStopGrace = 3 * time.Second
)

// Line is one chunk of process output paired with its classification.
type Line struct {
	Text  string
	Class Class
}

// Outcome is the single terminal event of an invocation.
type Outcome struct {
	Code         int
	Cancelled    bool
	LaunchFailed bool
	Err          error
}

// Success reports a clean zero exit without cancellation.
func (o Outcome) Success() bool {
	return !o.Cancelled && !o.LaunchFailed && o.Code == 0
}

// Process is the cancellable-process abstraction shared by download jobs and
// metadata probes.
type Process interface {
	Start(ctx context.Context) error
	Lines() <-chan Line
	Done() <-chan Outcome
	Cancel()
}

// Launcher constructs a Process for a binary and argument vector. Tests
// substitute it to avoid spawning anything.
type Launcher func(binary string, args []string, opts ...Option) Process

// Launch is the production Launcher.
func Launch(binary string, args []string, opts ...Option) Process {
	return New(binary, args, opts...)
}

type state int

const (
	stateIdle state = iota
	stateStarting
	stateRunning
	stateCancelling
	stateTerminated
)

// Option configures a Runner.
type Option func(*Runner)

// WithStartTimeout overrides the launch confirmation timeout.
func WithStartTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.startTimeout = d
		}
	}
}

// WithStopGrace overrides the graceful termination window.
func WithStopGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.stopGrace = d
		}
	}
}

// Runner owns exactly one external child process.
type Runner struct {
	binary       string
	args         []string
	startTimeout time.Duration
	stopGrace    time.Duration

	lines      chan Line
	done       chan Outcome
	terminated chan struct{}

	mu         sync.Mutex
	st         state
	cmd        *exec.Cmd
	cancelWant bool

	closeLines sync.Once
	finishOnce sync.Once
}

// New constructs a Runner for one invocation of binary with args.
func New(binary string, args []string, opts ...Option) *Runner {
	r := &Runner{
		binary:       binary,
		args:         append([]string(nil), args...),
		startTimeout: DefaultStartTimeout,
		stopGrace:    DefaultStopGrace,
		lines:        make(chan Line, 64),
		done:         make(chan Outcome, 1),
		terminated:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lines streams merged stdout+stderr output in production order. The channel
// closes before the terminal outcome is delivered.
func (r *Runner) Lines() <-chan Line { return r.lines }

// Done delivers the single terminal outcome of the invocation.
func (r *Runner) Done() <-chan Outcome { return r.done }

// Start spawns the external process. When the process does not confirm
// startup within the start timeout, Start reports the error and the runner
// emits a launch-failure terminal outcome; there is no retry.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.st != stateIdle {
		r.mu.Unlock()
		return fmt.Errorf("runner already started")
	}
	r.st = stateStarting

	pr, pw, err := os.Pipe()
	if err != nil {
		r.mu.Unlock()
		r.failLaunch(fmt.Errorf("merge pipe: %w", err))
		return err
	}

	cmd := exec.Command(r.binary, r.args...) //nolint:gosec
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	r.cmd = cmd
	r.mu.Unlock()

	started := make(chan error, 1)
	go func() { started <- cmd.Start() }()

	confirmed := false
	select {
	case err = <-started:
		confirmed = true
	case <-time.After(r.startTimeout):
		err = fmt.Errorf("process did not confirm start within %s", r.startTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if !confirmed {
			// Reap the child if the launch lands after the deadline.
			go func() {
				if e := <-started; e == nil {
					_ = cmd.Process.Kill()
					_ = cmd.Wait()
				}
			}()
		}
		_ = pw.Close()
		_ = pr.Close()
		r.failLaunch(fmt.Errorf("start %s: %w", r.binary, err))
		return fmt.Errorf("start %s: %w", r.binary, err)
	}

	// Parent keeps only the read end; the child holds the write end open
	// until it exits, which ends the scan loop.
	_ = pw.Close()

	r.mu.Lock()
	if r.st == stateStarting {
		r.st = stateRunning
	}
	r.mu.Unlock()

	go r.supervise(pr)
	return nil
}

// Cancel requests cooperative termination and escalates to a forceful kill
// after the stop grace window. It is idempotent; cancelling a terminated
// runner is a no-op. A cancellation requested before natural exit always
// wins the terminal outcome race.
func (r *Runner) Cancel() {
	r.mu.Lock()
	switch r.st {
	case stateRunning, stateStarting:
	default:
		r.mu.Unlock()
		return
	}
	if r.cancelWant {
		r.mu.Unlock()
		return
	}
	r.cancelWant = true
	r.st = stateCancelling
	cmd := r.cmd
	r.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	r.signal(cmd, unix.SIGTERM)

	go func() {
		select {
		case <-r.terminated:
		case <-time.After(r.stopGrace):
			r.signal(cmd, unix.SIGKILL)
		}
	}()
}

// signal targets the whole process group so helper children (ffmpeg) stop
// with the downloader.
func (r *Runner) signal(cmd *exec.Cmd, sig unix.Signal) {
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, sig); err != nil {
		_ = cmd.Process.Signal(sig)
	}
}

func (r *Runner) supervise(pr *os.File) {
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		text := scanner.Text()
		r.lines <- Line{Text: text, Class: Classify(text)}
	}
	_ = pr.Close()

	err := r.cmd.Wait()
	r.closeLines.Do(func() { close(r.lines) })

	outcome := Outcome{}
	switch werr := err.(type) {
	case nil:
		outcome.Code = 0
	case *exec.ExitError:
		outcome.Code = werr.ExitCode()
	default:
		outcome.Code = CodeFailure
		outcome.Err = err
	}
	r.finish(outcome)
}

func (r *Runner) failLaunch(err error) {
	r.closeLines.Do(func() { close(r.lines) })
	r.finish(Outcome{Code: CodeFailure, LaunchFailed: true, Err: err})
}

// finish emits the terminal outcome exactly once. A cancellation request
// observed here overrides whatever the underlying exit produced.
func (r *Runner) finish(outcome Outcome) {
	r.finishOnce.Do(func() {
		r.mu.Lock()
		r.st = stateTerminated
		if r.cancelWant && !outcome.LaunchFailed {
			outcome = Outcome{Code: CodeFailure, Cancelled: true}
		}
		r.mu.Unlock()

		close(r.terminated)
		r.done <- outcome
		close(r.done)
	})
}

// splitByNewlineOrCR treats both newlines and carriage returns as line
// boundaries; downloaders repaint progress lines with bare CRs.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
