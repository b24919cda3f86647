package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gainhour/gainhour/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Gainhour %s\n", buildinfo.Version)
		fmt.Printf("  Commit: %s (%s)\n", buildinfo.CommitHash, buildinfo.BuildDate)
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Go: %s\n", runtime.Version())

		// Daemon version too, when one is running.
		if c, err := dial(); err == nil {
			var resp struct {
				Version string `json:"version"`
			}
			if err := c.get("/api/version", &resp); err == nil {
				fmt.Printf("  Daemon: %s\n", resp.Version)
			}
		}
		return nil
	},
}
