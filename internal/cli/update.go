package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"termcal/config"
	"termcal/internal/updater"
	"termcal/internal/version"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update termcal to the latest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exe, err := os.Executable(); err == nil && installedViaHomebrew(exe) {
			fmt.Println("This termcal is managed by Homebrew; run 'brew upgrade termcal'.")
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		configureLogging(cfg, appLogName)

		// The running daemon holds the old binary open, so it is
		// restarted around the swap.
		restart := isDaemonRunning()
		if restart {
			stopDaemon()
		}

		fmt.Printf("Checking %s for updates...\n", cfg.Update.Repository)
		res, err := updater.Update(cmd.Context(), cfg.Update.Repository, version.Version)

		if restart {
			if _, serr := startDaemonBackground(); serr != nil {
				fmt.Printf("Warning: daemon not restarted: %v\n", serr)
			}
		}

		if err != nil {
			return err
		}
		if !res.Updated {
			fmt.Printf("Already up to date (%s)\n", res.Current)
			return nil
		}
		fmt.Printf("✓ Updated %s -> %s\n", res.Current, res.Latest)
		if res.URL != "" {
			fmt.Println("Release notes:", res.URL)
		}
		return nil
	},
}

// installedViaHomebrew resolves symlinks (Homebrew links into Cellar)
func installedViaHomebrew(executable string) bool {
	resolved, err := filepath.EvalSymlinks(executable)
	if err != nil {
		resolved = executable
	}
	return strings.Contains(resolved, "/Cellar/")
}
