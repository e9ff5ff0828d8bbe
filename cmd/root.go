// Package cmd implements the docsage command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docsage",
	Short: "docsage - question answering over your documents",
	Long: `docsage answers questions about a local document collection.

Documents are ingested into a local vector index and questions are answered
by a local Ollama model grounded on the most relevant passages. Everything
runs on your machine; no data leaves it.

Typical flow:

  docsage ingest                  index the documents folder
  docsage ask "what is X?"        ask a question
  docsage serve                   expose the same operations over HTTP`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
