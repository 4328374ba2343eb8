package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"contentanalyzer/internal/deps"
	"contentanalyzer/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external tools, directories and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Path
				}
				rows = append(rows, []string{status.Name, status.Command, yesNo(status.Available), yesNo(status.Optional), detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Command", "Available", "Optional", "Detail"}, rows, nil))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, ctx.credentials())
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if len(deps.Missing(statuses)) > 0 || preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
