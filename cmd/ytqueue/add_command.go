package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytqueue/internal/format"
	"ytqueue/internal/metadata"
	"ytqueue/internal/queue"
	"ytqueue/internal/urlcheck"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var noResolve bool

	cmd := &cobra.Command{
		Use:   "add URL [URL...]",
		Short: "Resolve titles and append download jobs to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			sel, ok := format.Parse(formatFlag)
			if !ok {
				return fmt.Errorf("unknown format %q (see 'ytqueue formats')", formatFlag)
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			resolver := metadata.NewResolver(cfg, logger)
			out := cmd.OutOrStdout()

			var failed []string
			for _, url := range args {
				url = strings.TrimSpace(url)
				if !urlcheck.IsSourceURL(url) {
					fmt.Fprintf(out, "Invalid source URL: %s\n", url)
					failed = append(failed, url)
					continue
				}

				title := queue.TitlePlaceholder
				if noResolve {
					title = metadata.FallbackTitle
				} else {
					fmt.Fprintf(out, "Fetching title for %s ...\n", shorten(url, 60))
					resolved, err := resolver.Resolve(cmd.Context(), url)
					if err != nil {
						fmt.Fprintf(out, "Error fetching title: %v\n", err)
						failed = append(failed, url)
						continue
					}
					title = resolved
				}

				job := queue.NewJob(url, title, sel)
				if err := store.Append(cmd.Context(), job); err != nil {
					return err
				}
				fmt.Fprintf(out, "Added to queue: %s\n", job.ShortTitle())
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d URLs were not enqueued", len(failed), len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", string(format.Best), "Format selector (see 'ytqueue formats')")
	cmd.Flags().BoolVar(&noResolve, "no-resolve", false, "Skip the metadata probe and enqueue with a placeholder title")
	return cmd
}

func shorten(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max]) + "..."
}
