package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptvc/promptvc/cmd/promptvc/commands"
	"github.com/promptvc/promptvc/logger"
)

var rootCmd = &cobra.Command{
	Use:   "promptvc",
	Short: "promptvc - Prompt version tracking and diffing",
	Long: `promptvc - Version tracking for prompt records.

Commit snapshots of a prompt's live state, roll back to earlier versions,
tag and pin versions, and inspect line-level and structural diffs between
any two snapshots.

Examples:
  promptvc serve            # Start the HTTP server
  promptvc db migrate       # Apply pending schema migrations
  promptvc db stats         # Show database statistics
  promptvc config show      # Show effective configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
