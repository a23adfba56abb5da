package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytqueue/internal/deps"
)

func newDoctorCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.FromConfig(cfg))
			statuses = append(statuses, deps.CheckCookieJar(cfg.Paths.CookiesPath))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = status.Detail
					if status.Optional {
						state = "optional: " + state
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state})
			}
			cmd.Println(renderTable([]string{"Dependency", "Command", "Status"}, rows))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies are missing", len(missing))
			}
			return nil
		},
	}
}
