package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"termcal/internal/ai"
	"termcal/internal/log"
	"termcal/internal/ui"
	"termcal/internal/ui/components"
	"termcal/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:   "termcal",
	Short: "A calendar in your terminal",
	Long:  "termcal - A calendar in your terminal",
	Run: func(cmd *cobra.Command, args []string) {
		runTUI(cmd.Context())
	},
}

func Execute() error {
	defer log.Close()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

func runTUI(ctx context.Context) {
	e, err := openEnv(ctx, appLogName)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	components.ApplyTheme(e.cfg.Theme)
	logger := log.WithComponent("tui")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Follow edits made by other termcal processes
	changes := make(chan struct{}, 1)
	if w, err := watch.New(e.store.Path(), watch.DefaultDebounce); err != nil {
		// Non-fatal: the TUI works without live reload
		logger.Warn().Err(err).Msg("store watcher unavailable")
	} else {
		go func() {
			err := w.Run(ctx, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			if err != nil {
				logger.Error().Err(err).Msg("store watcher failed")
			}
		}()
	}

	p := tea.NewProgram(
		ui.NewCalendarApp(e.manager, e.cfg, ui.Options{
			AI:      ai.NewClient(e.cfg),
			Changes: changes,
		}),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
