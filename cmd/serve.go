package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP REST API server",
	Long: `Starts the docsage HTTP server. The server exposes the query pipeline,
ingestion, and the admin surfaces (blocklist, models, audit logs, metrics).
It shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default "+api.DefaultAddr+")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := api.NewServer(api.Config{
		Logger:       a.Logger,
		Service:      a.Service,
		Ingestor:     a.Ingestor,
		Blocklist:    a.Blocklist,
		Models:       a.Models,
		Activity:     a.Activity,
		DocumentsDir: a.Config.DocumentsDir,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Config.HTTPAddr
	}
	return srv.Run(ctx, addr)
}
