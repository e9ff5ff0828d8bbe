package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/activity"
	"github.com/docsage/docsage/internal/config"
)

var (
	modelsUsername string
	setGeneration  string
	setEmbedding   string
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show or change the Ollama model selection",
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current model selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		mc, err := a.Models.Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "generation model: %s\n", mc.GenerationModel)
		fmt.Fprintf(cmd.OutOrStdout(), "embedding model:  %s\n", mc.EmbeddingModel)
		return nil
	},
}

var modelsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the model selection",
	Long: `Updates the persisted model selection. A new generation model applies to
the next query; a new embedding model applies after a restart and the
existing index should be rebuilt with "docsage ingest".`,
	Args: cobra.NoArgs,
	RunE: runModelsSet,
}

func init() {
	modelsCmd.PersistentFlags().StringVar(&modelsUsername, "username", "admin", "identity recorded in the admin audit log")
	modelsSetCmd.Flags().StringVar(&setGeneration, "generation", "", "generation model name")
	modelsSetCmd.Flags().StringVar(&setEmbedding, "embedding", "", "embedding model name")
	modelsCmd.AddCommand(modelsShowCmd, modelsSetCmd)
	rootCmd.AddCommand(modelsCmd)
}

func runModelsSet(cmd *cobra.Command, _ []string) error {
	if setGeneration == "" && setEmbedding == "" {
		return fmt.Errorf("nothing to update: pass --generation and/or --embedding")
	}

	a, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var upd config.ModelUpdate
	if setGeneration != "" {
		upd.GenerationModel = &setGeneration
	}
	if setEmbedding != "" {
		upd.EmbeddingModel = &setEmbedding
	}
	if err := a.Models.Update(upd); err != nil {
		return err
	}

	mc, err := a.Models.Load()
	if err != nil {
		return err
	}

	details := strings.Join([]string{
		"generation_model=" + mc.GenerationModel,
		"embedding_model=" + mc.EmbeddingModel,
	}, " ")
	if err := a.Activity.LogAdmin(activity.ActionUpdateModels, modelsUsername, details); err != nil {
		a.Logger.Error("admin log append failed", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Models updated: %s\n", details)
	return nil
}
