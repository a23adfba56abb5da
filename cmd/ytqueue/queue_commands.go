package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ytqueue/internal/queue"
)

func newMoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move POSITION up|down",
		Short: "Move a queue item up or down one position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			var step int
			switch args[1] {
			case "up":
				step = -1
			case "down":
				step = 1
			default:
				return fmt.Errorf("direction must be up or down, got %q", args[1])
			}

			store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list queue: %w", err)
			}
			if index >= len(jobs) {
				return fmt.Errorf("position %d out of range (queue has %d items)", index+1, len(jobs))
			}
			target := index + step
			if target < 0 || target >= len(jobs) {
				return fmt.Errorf("cannot move item %d %s", index+1, args[1])
			}

			jobs[index], jobs[target] = jobs[target], jobs[index]
			if err := store.Replace(cmd.Context(), jobs); err != nil {
				return fmt.Errorf("save queue: %w", err)
			}
			cmd.Printf("Moved %q to position %d\n", jobs[target].ShortTitle(), target+1)
			return nil
		},
	}
}

func newRemoveCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove POSITION",
		Aliases: []string{"rm"},
		Short:   "Remove an item from the queue",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}

			store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list queue: %w", err)
			}
			if index >= len(jobs) {
				return fmt.Errorf("position %d out of range (queue has %d items)", index+1, len(jobs))
			}

			removed := jobs[index]
			jobs = append(jobs[:index], jobs[index+1:]...)
			if err := store.Replace(cmd.Context(), jobs); err != nil {
				return fmt.Errorf("save queue: %w", err)
			}
			cmd.Printf("Removed %q from the queue\n", removed.ShortTitle())
			return nil
		},
	}
}

func newClearCommand(cmdCtx *commandContext) *cobra.Command {
	var keepFinished bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the download queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if !keepFinished {
				if err := store.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear queue: %w", err)
				}
				cmd.Println("Queue cleared.")
				return nil
			}

			jobs, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list queue: %w", err)
			}
			kept := jobs[:0]
			for _, job := range jobs {
				if job.Status == queue.StatusCompleted {
					kept = append(kept, job)
				}
			}
			if err := store.Replace(cmd.Context(), kept); err != nil {
				return fmt.Errorf("save queue: %w", err)
			}
			cmd.Printf("Removed %d unfinished item(s).\n", len(jobs)-len(kept))
			return nil
		},
	}
	cmd.Flags().BoolVar(&keepFinished, "keep-finished", false, "keep completed items in place")
	return cmd
}

func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a positive number, got %q", arg)
	}
	return n - 1, nil
}
