package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"crmagent/internal/api"
	"crmagent/internal/campaign"
	"crmagent/internal/clients"
	"crmagent/internal/export"
	"crmagent/internal/logstream"
	"crmagent/internal/session"
	"crmagent/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var exportFormat string
	var outputPath string
	var verbose bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run CLIENT_ID...",
		Short: "Process clients in this process and print the session log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var format export.Format
			if exportFormat != "" {
				if format, err = export.ParseFormat(exportFormat); err != nil {
					return err
				}
			}

			logger, err := ctx.cliLogger(verbose)
			if err != nil {
				return err
			}
			directory, err := clients.Load(cmd.Context(), cfg.Paths.ClientsPath)
			if err != nil {
				return err
			}

			registry := session.NewRegistry()
			runner := workflow.NewRunner(registry, directory, nil, logger)
			defer runner.Close()

			id, err := runner.Submit(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			opts := logstream.Options{
				PollInterval: 50 * time.Millisecond,
				SessionWait:  cfg.SessionWait(),
				MaxDuration:  cfg.MaxStreamDuration(),
			}
			var entries []campaign.LogEntry
			err = logstream.Follow(cmd.Context(), logstream.RegistrySource(registry), id, opts, func(entry campaign.LogEntry) error {
				if jsonOutput {
					entries = append(entries, entry)
					return nil
				}
				_, werr := fmt.Fprintln(out, formatLogEntry(entry, colorize))
				return werr
			})
			if err != nil {
				return err
			}

			results, _ := registry.Results(id)
			if jsonOutput {
				return writeJSON(cmd, api.ResultsResponse{
					SessionID: id,
					Status:    string(session.StatusCompleted),
					Results:   api.FromResults(results),
				})
			}

			fmt.Fprintln(out)
			if len(results) == 0 {
				fmt.Fprintln(out, "No results produced.")
			} else {
				fmt.Fprintln(out, resultsTable(api.FromResults(results)))
			}

			if format != "" && len(results) > 0 {
				target := outputPath
				if target == "" {
					target = format.Filename(id)
				}
				data, err := export.Render(format, results)
				if err != nil {
					return err
				}
				if dir := filepath.Dir(target); dir != "." {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						return fmt.Errorf("create export directory: %w", err)
					}
				}
				if err := os.WriteFile(target, data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(out, "Exported %d result(s) to %s\n", len(results), target)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&exportFormat, "export", "", "Also export results (json, csv, html)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Export destination (default campaigns_<session>.<format>)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on stderr")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON instead of the log and table")
	return cmd
}
