package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show daemon settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		var settings []models.Setting
		if err := c.get("/api/settings", &settings); err != nil {
			return err
		}
		if len(settings) == 0 {
			fmt.Println(styleHint.Render("All settings at defaults."))
			return nil
		}
		for _, s := range settings {
			fmt.Printf("%s %s\n",
				styleLabel.Render(fmt.Sprintf("%-20s", s.Key)),
				styleValue.Render(s.Value))
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a daemon setting",
	Long: `Change a daemon setting. Boolean settings take the values
"True" and "False". Known keys: discord_enabled, daily_logs_only,
run_on_startup, ignored_processes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		req := map[string]string{"key": args[0], "value": args[1]}
		if err := c.post("/api/settings", req, nil); err != nil {
			return err
		}
		fmt.Printf("%s %s = %s\n", styleSuccess.Render("Set"),
			styleValue.Render(args[0]), styleValue.Render(args[1]))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}
