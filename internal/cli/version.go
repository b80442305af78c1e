package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"termcal/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("termcal %s (%s/%s)\n", version.Version, runtime.GOOS, runtime.GOARCH)
	},
}
