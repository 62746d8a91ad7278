package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"crmagent/internal/api"
	"crmagent/internal/campaign"
	"crmagent/internal/config"
	"crmagent/internal/export"
	"crmagent/internal/logs"
	"crmagent/internal/logstream"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "submit CLIENT_ID...",
		Short: "Submit a batch to the running daemon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Submit(cmd.Context(), args)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s: %s\n", resp.SessionID, resp.Message)
			if !follow {
				return nil
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return followRemote(cmd, ctx, client, cfg, resp.SessionID, 0)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the session log until it completes")
	return cmd
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions held by the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			sessions, err := client.Sessions(cmd.Context())
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, api.SessionList{Sessions: sessions})
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					s.SessionID,
					s.Status,
					strconv.Itoa(len(s.ClientIDs)),
					strconv.Itoa(s.LogCount),
					strconv.Itoa(s.ResultCount),
					s.CreatedAt,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Session", "Status", "Clients", "Logs", "Results", "Created"},
				rows, []int{2, 3, 4}, nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var since int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "logs SESSION_ID",
		Short: "Print a session log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if follow {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				return followRemote(cmd, ctx, client, cfg, args[0], since)
			}
			resp, err := client.Logs(cmd.Context(), args[0], since)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, e := range resp.Entries {
				fmt.Fprintln(out, formatLogEntry(api.ToLogEntry(e), colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing entries until the session completes")
	cmd.Flags().IntVar(&since, "since", 0, "Skip entries before this position")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func followRemote(cmd *cobra.Command, ctx *commandContext, client *logs.Client, cfg *config.Config, sessionID string, since int) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	opts := logstream.Options{
		PollInterval: cfg.PollInterval(),
		SessionWait:  cfg.SessionWait(),
		MaxDuration:  cfg.MaxStreamDuration(),
		Offset:       since,
	}
	err := logstream.Follow(cmd.Context(), client, sessionID, opts, func(entry campaign.LogEntry) error {
		_, werr := fmt.Fprintln(out, formatLogEntry(entry, colorize))
		return werr
	})
	return ctx.wrapAPIError(err)
}

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showMessage bool

	cmd := &cobra.Command{
		Use:   "results SESSION_ID",
		Short: "Show rendered campaigns for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Results(cmd.Context(), args[0])
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resultsTable(resp.Results))
			if showMessage {
				for _, r := range resp.Results {
					fmt.Fprintf(out, "\n== %s (%s) ==\n%s\n", r.ClientName, r.ClientID, r.Message)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&showMessage, "messages", "m", false, "Print each personalized message")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export SESSION_ID FORMAT",
		Short: "Download session results as json, csv or html",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(args[1])
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			data, err := client.Export(cmd.Context(), args[0], string(format))
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if outputPath == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			target := outputPath
			if target == "" {
				target = format.Filename(args[0])
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file, or - for stdout")
	return cmd
}
