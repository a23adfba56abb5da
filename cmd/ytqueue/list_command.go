package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytqueue/internal/queue"
)

func newListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "status"},
		Short:   "Show the download queue",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cmdCtx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			jobs, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list queue: %w", err)
			}
			if len(jobs) == 0 {
				cmd.Println("Queue is empty.")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for i, job := range jobs {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					job.ShortTitle(),
					job.Selector.Label(),
					formatStatus(job),
				})
			}
			cmd.Println(renderTable([]string{"#", "Title", "Format", "Status"}, rows))
			return nil
		},
	}
}

func formatStatus(job queue.Job) string {
	if job.Status == "" {
		return ""
	}
	label := strings.ToUpper(string(job.Status[:1])) + string(job.Status[1:])
	if job.Status == queue.StatusFailed && job.ErrorMessage != "" {
		return label + ": " + job.ErrorMessage
	}
	return label
}
