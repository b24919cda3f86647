package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/models"
)

var (
	statsToday        bool
	statsDaily        int64
	statsDescriptions int64
	statsLimit        int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show time totals",
	Long: `Show accumulated tracked time. By default totals over all time;
--today restricts to the current day, --daily and --descriptions drill
into a single activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}

		if statsDaily != 0 {
			return printDaily(c, statsDaily)
		}
		if statsDescriptions != 0 {
			return printDescriptions(c, statsDescriptions, statsLimit)
		}

		path := "/api/stats/summary"
		if statsToday {
			path = "/api/stats/today"
		}
		var totals []models.ActivityTotal
		if err := c.get(path, &totals); err != nil {
			return err
		}
		if len(totals) == 0 {
			fmt.Println(styleHint.Render("Nothing tracked yet."))
			return nil
		}

		for _, t := range totals {
			if t.TotalSeconds == 0 {
				continue
			}
			fmt.Printf("%s %s %s\n",
				styleValue.Render(fmt.Sprintf("%-30s", t.Name)),
				styleHint.Render("("+string(t.Kind)+")"),
				styleSuccess.Render(formatDuration(time.Duration(t.TotalSeconds)*time.Second)))
		}
		return nil
	},
}

func printDaily(c *client, activityID int64) error {
	var days []models.DailyTotal
	if err := c.get(fmt.Sprintf("/api/stats/daily?activity_id=%d", activityID), &days); err != nil {
		return err
	}
	for _, d := range days {
		fmt.Printf("%s  %s\n",
			styleLabel.Render(d.Day),
			styleValue.Render(formatDuration(time.Duration(d.TotalSeconds)*time.Second)))
	}
	return nil
}

func printDescriptions(c *client, activityID int64, limit int) error {
	var entries []models.DescriptionLogEntry
	path := fmt.Sprintf("/api/stats/descriptions?activity_id=%d&limit=%d", activityID, limit)
	if err := c.get(path, &entries); err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s  %s %s\n",
			styleValue.Render(e.Description),
			styleSuccess.Render(formatDuration(time.Duration(e.TotalSeconds)*time.Second)),
			styleHint.Render(fmt.Sprintf("(%d sessions)", e.Count)))
	}
	return nil
}

func init() {
	statsCmd.Flags().BoolVar(&statsToday, "today", false, "Only count today's logs")
	statsCmd.Flags().Int64Var(&statsDaily, "daily", 0, "Per-day breakdown for an activity id")
	statsCmd.Flags().Int64Var(&statsDescriptions, "descriptions", 0, "Per-title breakdown for an activity id")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "Max description rows")
}
