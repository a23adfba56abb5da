package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"ytqueue/internal/deps"
	"ytqueue/internal/logging"
	"ytqueue/internal/orchestrator"
	"ytqueue/internal/queue"
)

var errDownloadsFailed = errors.New("downloads failed")

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue until it drains or is interrupted",
		Long: `Run works through the persisted queue one download at a time, streaming
yt-dlp output to the terminal. A first interrupt cancels the current
download and stops after it winds down; a second interrupt exits
immediately. The queue state is saved after every download, so an
interrupted run picks up where it left off.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			if missing := deps.Missing(deps.CheckBinaries(deps.FromConfig(cfg))); len(missing) > 0 {
				for _, status := range missing {
					cmd.PrintErrf("Missing dependency %s: %s\n", status.Name, status.Detail)
				}
				return fmt.Errorf("required tools are missing (see 'ytqueue doctor')")
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire queue lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another ytqueue run owns %s", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("load queue: %w", err)
			}
			jobs = resetForRun(jobs)
			if len(jobs) == 0 {
				cmd.Println("Queue is empty. Add items to start.")
				return nil
			}

			sink := newConsoleSink(cmd.OutOrStdout(), colorEnabled())
			orch := orchestrator.New(cfg, logger, sink)
			if err := orch.Replace(jobs); err != nil {
				return err
			}

			return runQueue(cmd.Context(), cmd, orch, sink, store, logger)
		},
	}
}

// resetForRun drops already completed entries and returns everything else to
// the pending state so an interrupted or failed run restarts cleanly.
func resetForRun(jobs []queue.Job) []queue.Job {
	pending := jobs[:0]
	for _, job := range jobs {
		if job.Status == queue.StatusCompleted {
			continue
		}
		job.Status = queue.StatusPending
		job.ErrorMessage = ""
		pending = append(pending, job)
	}
	return pending
}

func runQueue(ctx context.Context, cmd *cobra.Command, orch *orchestrator.Orchestrator, sink *consoleSink, store *queue.Store, logger *slog.Logger) error {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	if err := orch.Start(); err != nil {
		return err
	}

	interrupted := false
	for {
		select {
		case sig := <-signals:
			if interrupted {
				logger.Warn("second signal received, exiting immediately",
					logging.Args(logging.String("signal", sig.String()))...)
				return fmt.Errorf("interrupted")
			}
			interrupted = true
			cmd.Println("Stopping after the current download cancels...")
			// Pause can race the instant between two jobs; a second
			// interrupt still exits immediately.
			_ = orch.Pause()

		case ev := <-sink.terminals:
			if err := store.Replace(ctx, orch.Jobs()); err != nil {
				logger.Warn("failed to persist queue state",
					logging.Args(logging.Error(err))...)
			}
			switch {
			case ev.outcome.Success():
				// The orchestrator starts the next job or drains the queue.
			case ev.outcome.Cancelled:
				orch.Wait()
				cmd.Println("Queue stopped. Run again to resume.")
				return nil
			default:
				orch.Wait()
				return fmt.Errorf("%w: %s", errDownloadsFailed, ev.job.ShortTitle())
			}

		case <-sink.drained:
			if err := store.Replace(ctx, orch.Jobs()); err != nil {
				logger.Warn("failed to persist queue state",
					logging.Args(logging.Error(err))...)
			}
			orch.Wait()
			return nil
		}
	}
}
