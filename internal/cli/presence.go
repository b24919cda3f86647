package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pinCmd = &cobra.Command{
	Use:   "pin <activity>",
	Short: "Pin an activity as the broadcast presence target",
	Long: `Pin an activity so the presence broadcast shows it regardless of
focus. The pin drops automatically once the activity is no longer
tracked or open.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		if err := c.post("/api/presence/pin", map[string]string{"name": args[0]}, nil); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Pinned"), styleValue.Render(args[0]))
		return nil
	},
}

var unpinCmd = &cobra.Command{
	Use:   "unpin",
	Short: "Clear the presence pin",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		if err := c.post("/api/presence/unpin", struct{}{}, nil); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("Unpinned"))
		return nil
	},
}

var reconnectCmd = &cobra.Command{
	Use:   "reconnect",
	Short: "Reconnect the presence broadcast",
	Long: `Reconnect to Discord. After a broadcast failure the daemon stays
disconnected until this is run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		if err := c.post("/api/presence/reconnect", struct{}{}, nil); err != nil {
			return fmt.Errorf("reconnect failed: %w", err)
		}
		fmt.Println(styleSuccess.Render("Presence connected"))
		return nil
	},
}
