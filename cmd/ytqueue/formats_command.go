package main

import (
	"github.com/spf13/cobra"

	"ytqueue/internal/format"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available format selectors",
		Args:  cobra.NoArgs,
		Annotations: map[string]string{
			"skipConfigLoad": "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(format.All()))
			for _, sel := range format.All() {
				rows = append(rows, []string{string(sel), sel.Label(), sel.Expression()})
			}
			cmd.Println(renderTable([]string{"Name", "Label", "yt-dlp format"}, rows))
			return nil
		},
	}
}
