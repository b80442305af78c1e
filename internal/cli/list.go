package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"termcal/config"
	"termcal/internal/calendar"
	"termcal/internal/events"
	"termcal/internal/export"
	"termcal/internal/ui/components"
	"termcal/internal/ui/utils"
)

type listOptions struct {
	from     string
	to       string
	today    bool
	week     bool
	search   string
	calendar string
	sort     string
	desc     bool
	limit    int
	json     bool
}

var listOpts listOptions

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List events",
	Long: `List events, optionally filtered by date range, text or calendar.

Output is a table on a terminal, tab-separated when piped, or JSON with --json.`,
	Example: `  termcal list --today
  termcal list --week --calendar work
  termcal list --from 2025-03-01 --to 2025-03-31 --sort title
  termcal list --search dentist --json`,
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEnv(cmd.Context(), appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		styled := !listOpts.json && term.IsTerminal(int(os.Stdout.Fd()))
		if err := runList(os.Stdout, e, listOpts, time.Now(), styled); err != nil {
			fmt.Printf("Error listing events: %v\n", err)
			os.Exit(1)
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one event in full",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, err := openEnv(cmd.Context(), appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		ev, err := e.manager.Resolve(args[0])
		if err != nil {
			fmt.Printf("Error finding event: %v\n", err)
			os.Exit(1)
		}
		printEvent(os.Stdout, ev, e.cfg)
	},
}

func init() {
	listCmd.Flags().StringVar(&listOpts.from, "from", "", "Only events ending after this date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listOpts.to, "to", "", "Only events starting on or before this date (YYYY-MM-DD)")
	listCmd.Flags().BoolVar(&listOpts.today, "today", false, "Only today's events")
	listCmd.Flags().BoolVar(&listOpts.week, "week", false, "Events in the next 7 days")
	listCmd.Flags().StringVarP(&listOpts.search, "search", "s", "", "Match text in title, description or location")
	listCmd.Flags().StringVarP(&listOpts.calendar, "calendar", "c", "", "Only events in this calendar")
	listCmd.Flags().StringVar(&listOpts.sort, "sort", events.SortStart, "Sort by start, end, title or created")
	listCmd.Flags().BoolVar(&listOpts.desc, "desc", false, "Reverse the sort order")
	listCmd.Flags().IntVarP(&listOpts.limit, "limit", "n", 0, "Max events to show (0 for all)")
	listCmd.Flags().BoolVar(&listOpts.json, "json", false, "Output JSON")
}

// filter turns the options into an events.Filter. --to is inclusive of the
// whole day.
func (o listOptions) filter(now time.Time) (events.Filter, error) {
	if !events.ValidSortKey(o.sort) {
		return events.Filter{}, fmt.Errorf("invalid sort key %q (use start, end, title or created)", o.sort)
	}
	if o.limit < 0 {
		return events.Filter{}, fmt.Errorf("limit must not be negative")
	}

	f := events.Filter{
		Text:     o.search,
		Calendar: o.calendar,
		Sort:     o.sort,
		Desc:     o.desc,
		Limit:    o.limit,
	}

	today := calendar.DateOnly(now)
	switch {
	case o.today:
		f.From, f.To = today, today.AddDate(0, 0, 1)
	case o.week:
		f.From, f.To = today, today.AddDate(0, 0, 7)
	}

	if o.from != "" {
		from, err := parseDate(o.from, now)
		if err != nil {
			return events.Filter{}, err
		}
		f.From = from
	}
	if o.to != "" {
		to, err := parseDate(o.to, now)
		if err != nil {
			return events.Filter{}, err
		}
		f.To = to.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return events.Filter{}, fmt.Errorf("--to must not be before --from")
	}
	return f, nil
}

func runList(w io.Writer, e *env, o listOptions, now time.Time, styled bool) error {
	f, err := o.filter(now)
	if err != nil {
		return err
	}
	list := e.manager.Query(f)

	if o.json {
		return export.WriteJSON(w, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}
	if styled {
		writeTable(w, list, e.cfg, now)
		return nil
	}
	writePlain(w, list)
	return nil
}

// writePlain emits one tab-separated line per event for scripts
func writePlain(w io.Writer, list []events.Event) {
	for _, ev := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.ShortID(),
			ev.Start.Format(time.RFC3339),
			ev.End.Format(time.RFC3339),
			ev.Title,
			ev.Location,
			ev.Calendar,
		)
	}
}

func writeTable(w io.Writer, list []events.Event, cfg config.Config, now time.Time) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(components.Primary)
	idStyle := lipgloss.NewStyle().Foreground(components.Muted)
	whenStyle := lipgloss.NewStyle().Foreground(components.Secondary)

	const (
		idWidth    = 10
		whenWidth  = 28
		titleWidth = 36
	)

	fmt.Fprintln(w, headerStyle.Render(
		utils.PadRight("ID", idWidth)+utils.PadRight("WHEN", whenWidth)+utils.PadRight("TITLE", titleWidth)+"LOCATION"))

	layout := cfg.TimeLayout()
	for _, ev := range list {
		when := utils.FormatEventDate(ev.Start, now)
		if ev.AllDay {
			when += " (all day)"
		} else {
			when += " " + ev.Start.Format(layout) + "-" + ev.End.Format(layout)
		}
		title := ev.Title
		if ev.Calendar != "" {
			title += " [" + cfg.CalendarTitle(ev.Calendar) + "]"
		}

		fmt.Fprintln(w,
			idStyle.Render(utils.PadRight(ev.ShortID(), idWidth))+
				whenStyle.Render(utils.PadRight(when, whenWidth))+
				utils.PadRight(utils.TruncateStr(title, titleWidth-2), titleWidth)+
				ev.Location)
	}
	fmt.Fprintf(w, "\n%d event(s)\n", len(list))
}

func printEvent(w io.Writer, ev events.Event, cfg config.Config) {
	layout := cfg.TimeLayout()
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "%-12s%s\n", name+":", value)
		}
	}

	field("ID", ev.ID.String())
	field("Title", ev.Title)
	if ev.AllDay {
		field("Date", ev.Start.Format("Monday, Jan 2, 2006"))
		field("All day", fmt.Sprintf("%d day(s)", ev.Days()))
	} else {
		field("Start", ev.Start.Format("Mon Jan 2 2006 "+layout))
		field("End", ev.End.Format("Mon Jan 2 2006 "+layout))
	}
	field("Location", ev.Location)
	if ev.Calendar != "" {
		field("Calendar", cfg.CalendarTitle(ev.Calendar))
	}
	if ev.ReminderMinutes > 0 {
		field("Reminder", fmt.Sprintf("%d minutes before", ev.ReminderMinutes))
	}
	if ev.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimSpace(ev.Description))
	}
}
