package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"crmagent/internal/api"
	"crmagent/internal/clients"
)

func newClientsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List the configured client directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			directory, err := clients.Load(cmd.Context(), cfg.Paths.ClientsPath)
			if err != nil {
				return err
			}
			list := api.FromClients(directory.List())
			if jsonOutput {
				return writeJSON(cmd, api.ClientsResponse{Clients: list, Total: len(list)})
			}
			rows := make([][]string, 0, len(list))
			for _, c := range list {
				rows = append(rows, []string{
					c.ID,
					c.Name,
					c.Sector,
					strconv.FormatFloat(c.AverageSpend, 'f', 2, 64),
					c.Risk,
					c.SocialChannel,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Sector", "Avg spend", "Risk", "Channel"},
				rows, []int{3}, []string{"", fmt.Sprintf("%d client(s)", len(list))},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.AddCommand(newClientsImportCommand())
	return cmd
}

func newClientsImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import SOURCE DEST.db",
		Short: "Copy a client list into a SQLite database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory, err := clients.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := clients.SaveSQLite(cmd.Context(), args[1], directory.List()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d client(s) into %s\n", directory.Len(), args[1])
			return nil
		},
	}
}
