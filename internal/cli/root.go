// Package cli implements the gainhour CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gainhour",
	Short: "Track where your screen time goes",
	Long: `Gainhour talks to the gainhourd daemon, which watches window focus
and accounts time per application, alongside manually tracked activities.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(activitiesCmd)
	rootCmd.AddCommand(ignoreCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(reconnectCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(unpinCmd)
	rootCmd.AddCommand(versionCmd)
}
