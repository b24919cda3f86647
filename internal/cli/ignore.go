package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ignoreRemove bool

var ignoreCmd = &cobra.Command{
	Use:   "ignore <process-name>",
	Short: "Exclude a process from tracking",
	Long: `Exclude a process (e.g. "explorer.exe") from focus tracking. Any
running auto session for it is stopped. Use --remove to track it again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		req := map[string]any{"name": args[0], "ignored": !ignoreRemove}
		if err := c.post("/api/ignore", req, nil); err != nil {
			return err
		}
		if ignoreRemove {
			fmt.Printf("%s %s\n", styleSuccess.Render("Tracking again"), styleValue.Render(args[0]))
		} else {
			fmt.Printf("%s %s\n", styleSuccess.Render("Ignoring"), styleValue.Render(args[0]))
		}
		return nil
	},
}

func init() {
	ignoreCmd.Flags().BoolVar(&ignoreRemove, "remove", false, "Remove the process from the ignore list")
}
