package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crmagent/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check paths and daemon reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, "Paths")
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				fmt.Fprintln(out, renderStatusLine(r.Name, r.Passed, r.Detail, colorize))
			}

			fmt.Fprintln(out, "Daemon")
			reach := preflight.CheckAPIReachable(cmd.Context(), ctx.apiAddress())
			fmt.Fprintln(out, renderStatusLine(reach.Name, reach.Passed, reach.Detail, colorize))
			if !reach.Passed {
				return nil
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Health", false, err.Error(), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Health", health.Status == "ok",
				fmt.Sprintf("pid %d, %d client(s), %d session(s)", health.PID, health.Clients, health.Sessions), colorize))
			return nil
		},
	}
}
