package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/updater"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update gainhour to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := updater.CheckForUpdate()
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}

		if !result.Available {
			fmt.Printf("%s %s\n", styleSuccess.Render("Up to date:"), styleValue.Render(result.CurrentVersion))
			return nil
		}

		fmt.Printf("%s %s → %s\n",
			styleWarning.Render("Update available:"),
			styleValue.Render(result.CurrentVersion),
			styleValue.Render(result.LatestVersion))
		if updateCheckOnly {
			fmt.Println(styleHint.Render(result.ReleaseURL))
			return nil
		}

		if err := installBinary(updater.CLIAssetName(), result); err != nil {
			return err
		}
		fmt.Printf("%s %s\n", styleSuccess.Render("Updated to"), styleValue.Render(result.LatestVersion))
		fmt.Println(styleHint.Render("Restart gainhourd to update the daemon."))
		return nil
	},
}

func installBinary(asset string, result *updater.UpdateResult) error {
	a := updater.FindAsset(result.Release, asset)
	if a == nil {
		return fmt.Errorf("release has no asset %q; download manually: %s", asset, result.ReleaseURL)
	}

	tmp, err := updater.DownloadAsset(a)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate current binary: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("locate current binary: %w", err)
	}
	return updater.ReplaceBinary(execPath, tmp)
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Only check, do not install")
	rootCmd.AddCommand(updateCmd)
}
