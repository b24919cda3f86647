package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is being tracked right now",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}

		var st tracker.Status
		if err := c.get("/api/status", &st); err != nil {
			return err
		}

		fmt.Println(styleBrand.Render("Gainhour"))

		if st.Auto != nil {
			fmt.Printf("%s %s",
				styleLabel.Render("Tracking:"),
				badgeFocused.Render(st.Auto.Name))
			if st.Auto.Title != "" {
				fmt.Printf(" %s", styleHint.Render("("+st.Auto.Title+")"))
			}
			fmt.Println()
		} else {
			fmt.Printf("%s %s\n", styleLabel.Render("Tracking:"), badgeIdle.Render("idle"))
		}

		for _, m := range st.Manual {
			elapsed := time.Since(time.Unix(m.StartedAt, 0)).Round(time.Second)
			fmt.Printf("%s %s %s %s\n",
				styleLabel.Render("Manual:"),
				badgeManual.Render(m.Name),
				styleHint.Render(m.Description),
				styleValue.Render(formatDuration(elapsed)))
		}

		if len(st.Open) > 0 {
			fmt.Println(styleLabel.Render("Open windows:"))
			for _, o := range st.Open {
				marker := "  "
				if o.Focused {
					marker = badgeFocused.Render("● ")
				}
				fmt.Printf("  %s%s %s\n",
					marker,
					styleValue.Render(o.Name),
					styleHint.Render(formatDuration(time.Duration(o.FocusedSecs)*time.Second)))
			}
		}

		if st.Pinned != "" {
			fmt.Printf("%s %s\n", styleLabel.Render("Pinned:"), styleValue.Render(st.Pinned))
		}

		presence := styleError.Render("disconnected")
		if st.PresenceConnected {
			presence = styleSuccess.Render("connected")
		}
		fmt.Printf("%s %s\n", styleLabel.Render("Presence:"), presence)
		return nil
	},
}

// formatDuration renders a duration as "1h 2m 3s", dropping leading zero
// units.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
