package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/models"
)

var startKind string

var startCmd = &cobra.Command{
	Use:   "start <activity> [note]",
	Short: "Start a manual tracking session",
	Long: `Start tracking an activity by hand, independent of window focus.
Manual sessions run until stopped and may overlap each other.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}

		req := map[string]string{
			"name":        args[0],
			"kind":        startKind,
			"description": strings.Join(args[1:], " "),
		}
		var act models.Activity
		if err := c.post("/api/sessions", req, &act); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Tracking"), styleValue.Render(act.Name))
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <activity>",
	Short: "Stop a manual tracking session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		if err := c.post("/api/sessions/stop", map[string]string{"name": args[0]}, nil); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Stopped"), styleValue.Render(args[0]))
		return nil
	},
}

var noteCmd = &cobra.Command{
	Use:   "note <activity> <text...>",
	Short: "Replace the note on a running manual session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		req := map[string]string{
			"name":        args[0],
			"description": strings.Join(args[1:], " "),
		}
		if err := c.post("/api/sessions/description", req, nil); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("Note updated"))
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&startKind, "kind", string(models.KindIRL), "Activity kind (irl or app)")
}
