package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/document"
)

var ingestUsername string

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Index the documents folder into the vector store",
	Long: fmt.Sprintf(`Reads every supported file in the documents folder, chunks the text, and
writes the chunks into the local vector index. Re-running on an unchanged
folder overwrites existing entries instead of duplicating them.

Supported extensions: %v`, document.SupportedExtensions()),
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUsername, "username", "admin", "identity recorded in the admin audit log")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.Config.DocumentsDir
	if len(args) == 1 {
		dir = args[0]
	}

	report, err := a.Ingestor.Ingest(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	if err := a.Activity.LogAdmin(activity.ActionIngestDocuments, ingestUsername, report.Summary); err != nil {
		a.Logger.Error("admin log append failed", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, report.Summary)
	for _, f := range report.Files {
		switch f.Status {
		case document.StatusLoaded:
			fmt.Fprintf(out, "  loaded  %s\n", f.Path)
		case document.StatusSkipped:
			fmt.Fprintf(out, "  skipped %s\n", f.Path)
		case document.StatusFailed:
			fmt.Fprintf(out, "  failed  %s: %s\n", f.Path, f.Error)
		}
	}
	return nil
}
