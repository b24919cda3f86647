package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all tracked data",
	Long:  `Delete every activity, log and setting. This cannot be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			fmt.Print(styleWarning.Render("This deletes ALL tracked data.") + " Type 'yes' to continue: ")
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.TrimSpace(line) != "yes" {
				fmt.Println(styleHint.Render("Aborted."))
				return nil
			}
		}

		c, err := dial()
		if err != nil {
			return err
		}
		if err := c.post("/api/reset", map[string]bool{"confirm": true}, nil); err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("All data wiped"))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
}
