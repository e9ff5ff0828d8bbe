package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// timeFormat is used for all log and metric timestamps printed by the CLI.
const timeFormat = "2006-01-02 15:04:05"

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect the query log, admin log, and ingestion metrics",
}

var logsQueriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the query audit trail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.Activity.Queries()
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no query log entries)")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSESSION\tQUERY\tRESPONSE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				e.Timestamp.Format(timeFormat), e.SessionID,
				truncate(e.Query, 60), truncate(e.Response, 80))
		}
		return w.Flush()
	},
}

var logsAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Print the admin audit trail",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.Activity.Admin()
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no admin log entries)")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tUSER\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				e.Timestamp.Format(timeFormat), e.Action, e.Username,
				truncate(e.Details, 80))
		}
		return w.Flush()
	},
}

var logsMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print the ingestion metrics series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rows := a.Activity.Metrics()
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no ingestion runs recorded)")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tCHUNKS\tAVG CHARS\tMAX CHARS\tFILES")
		for _, m := range rows {
			fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\t%d\n",
				m.Timestamp.Format(timeFormat), m.TotalChunks,
				m.AvgChunkSizeChars, m.MaxChunkSizeChars, m.FilesProcessed)
		}
		return w.Flush()
	},
}

func init() {
	logsCmd.AddCommand(logsQueriesCmd, logsAdminCmd, logsMetricsCmd)
	rootCmd.AddCommand(logsCmd)
}

// truncate shortens s for single-line table display.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
