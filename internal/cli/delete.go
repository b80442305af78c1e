package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an event",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx, appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		runDelete(ctx, e, args[0], deleteYes)
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking for confirmation")
}

func runDelete(ctx context.Context, e *env, ref string, yes bool) {
	ev, err := e.manager.Resolve(ref)
	if err != nil {
		fmt.Printf("Error finding event: %v\n", err)
		os.Exit(1)
	}

	if !yes {
		printEventBox(os.Stdout, "Delete Event", ev, e.cfg)
		fmt.Println()

		if !confirm(fmt.Sprintf("Delete %q?", ev.Title), "Yes, delete event", "No, keep it", true) {
			fmt.Println("Cancelled.")
			return
		}
	}

	if err := e.manager.Delete(ctx, ev.ID); err != nil {
		fmt.Printf("Error deleting event: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Deleted %q (ID: %s)\n", ev.Title, ev.ShortID())
}
