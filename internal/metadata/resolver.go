// Package metadata resolves a display title for a URL before the job is
// committed to the queue.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"ytqueue/internal/command"
	"ytqueue/internal/config"
	"ytqueue/internal/logging"
	"ytqueue/internal/runner"
)

// FallbackTitle is substituted when the metadata record carries no title.
const FallbackTitle = "Unknown Title"

// ResolveError describes why a URL could not be resolved. Callers must not
// enqueue the URL when resolution fails.
type ResolveError struct {
	URL    string
	Reason string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %s", e.URL, e.Reason)
}

// Resolver probes a URL with a one-shot metadata-only process invocation.
type Resolver struct {
	cfg     *config.Config
	builder *command.Builder
	launch  runner.Launcher
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLauncher injects a custom process launcher (primarily for tests).
func WithLauncher(launch runner.Launcher) Option {
	return func(r *Resolver) {
		if launch != nil {
			r.launch = launch
		}
	}
}

// NewResolver constructs a Resolver over a configuration snapshot.
func NewResolver(cfg *config.Config, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:     cfg,
		builder: command.NewBuilder(cfg),
		launch:  runner.Launch,
		logger:  logging.WithComponent(logger, "metadata"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type record struct {
	Title         string  `json:"title"`
	PlaylistTitle *string `json:"playlist_title"`
}

// Resolve fetches the display title for url. A playlist emits one record per
// item; only the first record is consulted and the title gets a playlist
// marker. The probe is bounded by the configured metadata timeout.
func (r *Resolver) Resolve(ctx context.Context, url string) (string, error) {
	timeout := time.Duration(r.cfg.Workflow.MetadataTimeout) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := r.builder.Metadata(url)
	proc := r.launch(r.cfg.Tools.YtDlp, args,
		runner.WithStartTimeout(time.Duration(r.cfg.Workflow.StartTimeout)*time.Second),
		runner.WithStopGrace(time.Duration(r.cfg.Workflow.StopGrace)*time.Second),
	)

	r.logger.Debug("fetching metadata", logging.Args(logging.String(logging.FieldURL, url))...)

	if err := proc.Start(ctx); err != nil {
		<-proc.Done()
		return "", &ResolveError{URL: url, Reason: err.Error()}
	}

	// Cancel the probe if the deadline fires before the process exits.
	watchdog := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			proc.Cancel()
		case <-watchdog:
		}
	}()

	var firstLine string
	var diagnostics []string
	for line := range proc.Lines() {
		if firstLine == "" && strings.HasPrefix(strings.TrimSpace(line.Text), "{") {
			firstLine = strings.TrimSpace(line.Text)
		}
		if line.Class == runner.ClassError {
			diagnostics = append(diagnostics, line.Text)
		}
	}
	outcome := <-proc.Done()
	close(watchdog)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &ResolveError{URL: url, Reason: fmt.Sprintf("timeout while fetching metadata (%s)", timeout)}
	}
	if outcome.LaunchFailed {
		return "", &ResolveError{URL: url, Reason: launchReason(outcome)}
	}
	if outcome.Cancelled {
		return "", &ResolveError{URL: url, Reason: "metadata fetch cancelled"}
	}
	if outcome.Code != 0 {
		reason := strings.Join(diagnostics, "; ")
		if reason == "" {
			reason = fmt.Sprintf("metadata probe exited with code %d", outcome.Code)
		}
		return "", &ResolveError{URL: url, Reason: reason}
	}
	if firstLine == "" {
		return "", &ResolveError{URL: url, Reason: "no metadata received"}
	}

	var rec record
	if err := json.Unmarshal([]byte(firstLine), &rec); err != nil {
		return "", &ResolveError{URL: url, Reason: fmt.Sprintf("failed to parse metadata: %v", err)}
	}

	title := rec.Title
	if rec.PlaylistTitle != nil && *rec.PlaylistTitle != "" {
		title = *rec.PlaylistTitle
	}
	if strings.TrimSpace(title) == "" {
		title = FallbackTitle
	}
	title = norm.NFC.String(title)
	if rec.PlaylistTitle != nil {
		title += " [Playlist]"
	}

	r.logger.Debug("metadata resolved",
		logging.Args(logging.String(logging.FieldURL, url), logging.String("title", title))...)
	return title, nil
}

func launchReason(outcome runner.Outcome) string {
	if outcome.Err != nil {
		return outcome.Err.Error()
	}
	return "failed to start metadata probe"
}
