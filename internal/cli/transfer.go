package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"termcal/internal/events"
	"termcal/internal/export"
)

var (
	exportFormat string
	exportFrom   string
	exportTo     string
	importFormat string
	importDryRun bool
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export events as CSV or JSON",
	Long: `Export events to a file, or to stdout when no file is given.

The format comes from --format or the file extension (.csv, .json).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEnv(cmd.Context(), appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		n, err := runExport(e, path, exportFormat, exportFrom, exportTo)
		if err != nil {
			fmt.Printf("Error exporting events: %v\n", err)
			os.Exit(1)
		}
		if path != "" {
			fmt.Printf("✓ Exported %d event(s) to %s\n", n, path)
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import events from CSV or JSON",
	Long: `Import events from a file written by 'termcal export' or by hand.

Events whose ID already exists are updated in place; the rest are added.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx, appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		added, updated, err := runImport(ctx, e, args[0], importFormat, importDryRun)
		if err != nil {
			fmt.Printf("Error importing events: %v\n", err)
			os.Exit(1)
		}
		if importDryRun {
			fmt.Printf("Would add %d and update %d event(s)\n", added, updated)
			return
		}
		fmt.Printf("✓ Added %d, updated %d event(s)\n", added, updated)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "csv or json (default from file extension, json for stdout)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Only events ending after this date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Only events starting on or before this date (YYYY-MM-DD)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "csv or json (default from file extension)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate the file without saving")
}

// runExport writes the selected events to path, or stdout when path is
// empty, and returns how many were written
func runExport(e *env, path, format, from, to string) (int, error) {
	f, err := export.ParseFormat(format, path)
	if err != nil {
		return 0, err
	}
	filter, err := listOptions{from: from, to: to, sort: events.SortStart}.filter(time.Now())
	if err != nil {
		return 0, err
	}
	list := e.manager.Query(filter)

	if path == "" {
		return len(list), export.Write(os.Stdout, f, list)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0600))
	if err != nil {
		return 0, err
	}
	defer pending.Cleanup()

	if err := export.Write(pending, f, list); err != nil {
		return 0, err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return 0, err
	}
	return len(list), nil
}

// runImport reads path and adds or updates each event. The whole file is
// validated before anything is saved.
func runImport(ctx context.Context, e *env, path, format string, dryRun bool) (added, updated int, err error) {
	f, err := export.ParseFormat(format, path)
	if err != nil {
		return 0, 0, err
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	list, err := readEvents(file, f)
	if err != nil {
		return 0, 0, err
	}

	for _, ev := range list {
		if err := checkCalendar(e.cfg, ev.Calendar); err != nil {
			return 0, 0, fmt.Errorf("%s: %w", ev.Title, err)
		}
	}

	for _, ev := range list {
		_, exists := e.manager.Get(ev.ID)
		if dryRun {
			if exists {
				updated++
			} else {
				added++
			}
			continue
		}

		if exists {
			if err := e.manager.Edit(ctx, ev.ID, ev); err != nil {
				return added, updated, err
			}
			updated++
			continue
		}
		if _, err := e.manager.Add(ctx, ev); err != nil {
			return added, updated, err
		}
		added++
	}
	return added, updated, nil
}

func readEvents(r io.Reader, f export.Format) ([]events.Event, error) {
	list, err := export.Read(r, f)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("file contains no events")
	}
	return list, nil
}
