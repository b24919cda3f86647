package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/models"
)

var activitiesCmd = &cobra.Command{
	Use:     "activities",
	Aliases: []string{"ls"},
	Short:   "List and manage tracked activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}

		var acts []models.Activity
		if err := c.get("/api/activities", &acts); err != nil {
			return err
		}
		if len(acts) == 0 {
			fmt.Println(styleHint.Render("No activities tracked yet."))
			return nil
		}

		for _, a := range acts {
			visibility := ""
			if !a.BroadcastVisible {
				visibility = " " + styleWarning.Render("[hidden]")
			}
			fmt.Printf("%4d  %s %s%s\n",
				a.ID,
				styleValue.Render(a.Name),
				styleHint.Render("("+string(a.Kind)+")"),
				visibility)
		}
		return nil
	},
}

var activitiesHideCmd = &cobra.Command{
	Use:   "hide <id>",
	Short: "Hide an activity from the presence broadcast",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisibility(args[0], false)
	},
}

var activitiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a hidden activity in the presence broadcast",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVisibility(args[0], true)
	},
}

var activitiesIconCmd = &cobra.Command{
	Use:   "icon <id> <image-path>",
	Short: "Set an activity's icon from an image file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid activity id %q", args[0])
		}
		c, err := dial()
		if err != nil {
			return err
		}
		req := map[string]any{"activity_id": id, "source_path": args[1]}
		if err := c.post("/api/activities/icon", req, nil); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("Icon updated"))
		return nil
	},
}

var activitiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an activity and all of its logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid activity id %q", args[0])
		}
		c, err := dial()
		if err != nil {
			return err
		}
		var resp struct {
			Deleted string `json:"deleted"`
		}
		if err := c.delete(fmt.Sprintf("/api/activities/%d", id), &resp); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Deleted"), styleValue.Render(resp.Deleted))
		return nil
	},
}

func setVisibility(idArg string, visible bool) error {
	id, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid activity id %q", idArg)
	}
	c, err := dial()
	if err != nil {
		return err
	}
	req := map[string]any{"activity_id": id, "visible": visible}
	if err := c.post("/api/activities/visibility", req, nil); err != nil {
		return err
	}
	if visible {
		fmt.Println(styleSuccess.Render("Activity visible"))
	} else {
		fmt.Println(styleSuccess.Render("Activity hidden"))
	}
	return nil
}

func init() {
	activitiesCmd.AddCommand(activitiesHideCmd)
	activitiesCmd.AddCommand(activitiesShowCmd)
	activitiesCmd.AddCommand(activitiesIconCmd)
	activitiesCmd.AddCommand(activitiesDeleteCmd)
}
