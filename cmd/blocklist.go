package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/activity"
)

var blocklistUsername string

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Manage the blocked-term query filter",
}

var blocklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current blocked terms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setupApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		terms := a.Blocklist.Terms()
		if len(terms) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "(no blocked terms)")
			return nil
		}
		for _, term := range terms {
			fmt.Fprintln(cmd.OutOrStdout(), term)
		}
		return nil
	},
}

var blocklistSetCmd = &cobra.Command{
	Use:   "set [term]...",
	Short: "Replace the blocklist with the given terms",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateBlocklist(cmd, args)
	},
}

var blocklistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all blocked terms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return updateBlocklist(cmd, nil)
	},
}

func init() {
	blocklistCmd.PersistentFlags().StringVar(&blocklistUsername, "username", "admin", "identity recorded in the admin audit log")
	blocklistCmd.AddCommand(blocklistListCmd, blocklistSetCmd, blocklistClearCmd)
	rootCmd.AddCommand(blocklistCmd)
}

func updateBlocklist(cmd *cobra.Command, terms []string) error {
	a, err := setupApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Blocklist.SetTerms(terms); err != nil {
		return err
	}

	current := a.Blocklist.Terms()
	details := fmt.Sprintf("%d terms", len(current))
	if err := a.Activity.LogAdmin(activity.ActionUpdateBlockedTerms, blocklistUsername, details); err != nil {
		a.Logger.Error("admin log append failed", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Blocklist updated: %s\n", details)
	return nil
}
