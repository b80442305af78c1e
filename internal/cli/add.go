package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"termcal/config"
	"termcal/internal/ai"
	"termcal/internal/events"
)

const aiTimeout = 90 * time.Second

// eventFlags are the flags shared by add and edit
type eventFlags struct {
	title       string
	description string
	location    string
	calendar    string
	date        string
	start       string
	end         string
	reminder    int
	allDay      bool
	days        int
	yes         bool
	debug       bool
}

var (
	addFlags  eventFlags
	editFlags eventFlags
)

var addCmd = &cobra.Command{
	Use:   "add [natural language description]",
	Short: "Add an event",
	Long: `Add a calendar event, either from flags or from natural language.

Examples:
  termcal add --title "Dentist" --date 2025-03-14 --start 15:00 --end 16:00
  termcal add --title "Conference" --date 2025-04-02 --all-day --days 3
  termcal add "tomorrow 9am meeting with Jerry"
  termcal add "lunch with Sarah next Friday at noon"`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx, appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		if len(args) > 0 {
			runAddNatural(ctx, e, strings.Join(args, " "), addFlags)
			return
		}
		if addFlags.title == "" {
			input := promptForEventDescription()
			if input == "" {
				fmt.Println("Cancelled.")
				return
			}
			runAddNatural(ctx, e, input, addFlags)
			return
		}

		ev, err := addFromFlags(ctx, e, addFlags, cmd.Flags().Changed, time.Now())
		if err != nil {
			fmt.Printf("Error adding event: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Event created (ID: %s)\n", ev.ShortID())
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Modify an event; only the given flags change",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		e, err := openEnv(ctx, appLogName)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		ev, err := editFromFlags(ctx, e, args[0], editFlags, cmd.Flags().Changed)
		if err != nil {
			fmt.Printf("Error editing event: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Event updated (ID: %s)\n", ev.ShortID())
	},
}

func registerEventFlags(cmd *cobra.Command, f *eventFlags) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Event title")
	cmd.Flags().StringVar(&f.description, "description", "", "Event description")
	cmd.Flags().StringVarP(&f.location, "location", "l", "", "Event location")
	cmd.Flags().StringVarP(&f.calendar, "calendar", "c", "", "Calendar ID")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "Date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time (HH:MM or 3:04pm)")
	cmd.Flags().StringVar(&f.end, "end", "", "End time (HH:MM or 3:04pm)")
	cmd.Flags().IntVar(&f.reminder, "reminder", 0, "Reminder in minutes before start (0 for none)")
	cmd.Flags().BoolVar(&f.allDay, "all-day", false, "All-day event")
	cmd.Flags().IntVar(&f.days, "days", 1, "Number of days for all-day events")
}

func init() {
	registerEventFlags(addCmd, &addFlags)
	addCmd.Flags().BoolVarP(&addFlags.yes, "yes", "y", false, "Skip confirmation for natural language input")
	addCmd.Flags().BoolVar(&addFlags.debug, "debug", false, "Show raw AI response")
	registerEventFlags(editCmd, &editFlags)
}

// addFromFlags builds an event from flags and stores it. Unset start
// defaults to 09:00, unset end to start plus the configured duration.
func addFromFlags(ctx context.Context, e *env, f eventFlags, changed func(string) bool, now time.Time) (events.Event, error) {
	day, err := parseDate(f.date, now)
	if err != nil {
		return events.Event{}, err
	}

	var ev events.Event
	if f.allDay {
		ev, err = events.NewAllDay(f.title, day, f.days)
	} else {
		start := atClock(day, 9, 0)
		if f.start != "" {
			h, m, err := parseClock(f.start)
			if err != nil {
				return events.Event{}, err
			}
			start = atClock(day, h, m)
		}
		end := start.Add(e.cfg.DefaultDuration())
		if f.end != "" {
			h, m, err := parseClock(f.end)
			if err != nil {
				return events.Event{}, err
			}
			end = atClock(day, h, m)
		}
		ev, err = events.New(f.title, "", start, end)
	}
	if err != nil {
		return events.Event{}, err
	}

	ev.Description = f.description
	ev.Location = f.location
	ev.Calendar = f.calendar
	ev.ReminderMinutes = e.cfg.DefaultReminderMinutes
	if changed("reminder") {
		ev.ReminderMinutes = max(f.reminder, 0)
	}

	if err := checkCalendar(e.cfg, ev.Calendar); err != nil {
		return events.Event{}, err
	}

	if _, err := e.manager.Add(ctx, ev); err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

// editFromFlags applies only the flags that were set to the event ref
// resolves to. Changing the date keeps the time of day and duration.
func editFromFlags(ctx context.Context, e *env, ref string, f eventFlags, changed func(string) bool) (events.Event, error) {
	ev, err := e.manager.Resolve(ref)
	if err != nil {
		return events.Event{}, err
	}
	duration := ev.Duration()
	days := ev.Days()

	if changed("title") {
		ev.Title = f.title
	}
	if changed("description") {
		ev.Description = f.description
	}
	if changed("location") {
		ev.Location = f.location
	}
	if changed("calendar") {
		if err := checkCalendar(e.cfg, f.calendar); err != nil {
			return events.Event{}, err
		}
		ev.Calendar = f.calendar
	}
	if changed("reminder") {
		ev.ReminderMinutes = max(f.reminder, 0)
	}

	if changed("date") {
		day, err := parseDate(f.date, time.Now().In(ev.Start.Location()))
		if err != nil {
			return events.Event{}, err
		}
		ev.Start = atClock(day, ev.Start.Hour(), ev.Start.Minute())
		ev.End = ev.Start.Add(duration)
	}

	if changed("all-day") {
		ev.AllDay = f.allDay
	}
	if ev.AllDay {
		if changed("days") {
			days = f.days
		}
		ev.Start = atClock(ev.Start, 0, 0)
		ev.End = ev.Start.AddDate(0, 0, max(days, 1))
	} else {
		if changed("start") {
			h, m, err := parseClock(f.start)
			if err != nil {
				return events.Event{}, err
			}
			ev.Start = atClock(ev.Start, h, m)
			if !changed("end") {
				ev.End = ev.Start.Add(duration)
			}
		}
		if changed("end") {
			h, m, err := parseClock(f.end)
			if err != nil {
				return events.Event{}, err
			}
			ev.End = atClock(ev.Start, h, m)
		}
	}

	if err := e.manager.Edit(ctx, ev.ID, ev); err != nil {
		return events.Event{}, err
	}
	updated, _ := e.manager.Get(ev.ID)
	return updated, nil
}

// checkCalendar rejects calendar IDs that are not configured
func checkCalendar(cfg config.Config, id string) error {
	if id == "" {
		return nil
	}
	for _, c := range cfg.Calendars {
		if c.ID == id {
			return nil
		}
	}
	return fmt.Errorf("unknown calendar %q (see 'termcal config')", id)
}

// aiCompleter is the part of ai.Client used by the natural-language add
type aiCompleter interface {
	Available() bool
	Provider() string
	Call(ctx context.Context, prompt string) (string, error)
}

// newAIClient is swapped in tests
var newAIClient = func(cfg config.Config) aiCompleter { return ai.NewClient(cfg) }

// naturalEvent asks the model to turn input into an event. reminderSet
// reports whether the text named a reminder; otherwise the configured
// default is applied.
func naturalEvent(ctx context.Context, e *env, client aiCompleter, input string, f eventFlags, now time.Time) (ev events.Event, reminderSet bool, err error) {
	callCtx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()

	response, err := client.Call(callCtx, ai.ParseEventPrompt(input, now))
	if err != nil {
		return events.Event{}, false, err
	}
	if f.debug {
		fmt.Printf("AI response:\n%s\n\n", response)
	}

	parsed, err := ai.ParseEventResponse(response)
	if err != nil {
		return events.Event{}, false, err
	}
	ev, err = parsed.ToEvent(e.cfg.DefaultDuration())
	if err != nil {
		return events.Event{}, false, fmt.Errorf("invalid event from AI: %w", err)
	}

	ev.Calendar = f.calendar
	if !parsed.ReminderSpecified {
		ev.ReminderMinutes = e.cfg.DefaultReminderMinutes
	}
	return ev, parsed.ReminderSpecified, nil
}

func runAddNatural(ctx context.Context, e *env, input string, f eventFlags) {
	if err := addNatural(ctx, e, newAIClient(e.cfg), input, f); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// addNatural parses input, asks for whatever the text left open unless
// f.yes is set, and stores the event
func addNatural(ctx context.Context, e *env, client aiCompleter, input string, f eventFlags) error {
	if err := checkCalendar(e.cfg, f.calendar); err != nil {
		return err
	}
	if !client.Available() {
		return fmt.Errorf("%w\n\nInstall claude, codex, gemini or ollama, or add an API provider with 'termcal config edit'", ai.ErrUnavailable)
	}

	fmt.Printf("Using %s to parse: %q\n\n", client.Provider(), input)
	ev, reminderSet, err := naturalEvent(ctx, e, client, input, f, time.Now())
	if err != nil {
		return err
	}
	printEventBox(os.Stdout, "Parsed Event", ev, e.cfg)

	if !f.yes {
		if ev.Calendar == "" && len(e.cfg.Calendars) > 0 {
			fmt.Println()
			id, cancelled := promptForCalendar(e.cfg)
			if cancelled {
				fmt.Println("Cancelled.")
				return nil
			}
			ev.Calendar = id
		}
		if !reminderSet {
			fmt.Println()
			minutes, cancelled := promptForReminder()
			if cancelled {
				fmt.Println("Cancelled.")
				return nil
			}
			ev.ReminderMinutes = minutes
		}

		fmt.Println()
		printEventBox(os.Stdout, "Confirm Event", ev, e.cfg)
		if !confirm("Create this event?", "Yes, create event", "No, cancel", false) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if _, err := e.manager.Add(ctx, ev); err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	fmt.Printf("\n✓ Event created (ID: %s)\n", ev.ShortID())
	return nil
}

// printEventBox draws the boxed event summary used by add and delete
func printEventBox(w io.Writer, heading string, ev events.Event, cfg config.Config) {
	layout := cfg.TimeLayout()
	timeRange := fmt.Sprintf("%s - %s", ev.Start.Format(layout), ev.End.Format(layout))
	if ev.AllDay {
		timeRange = "All day"
	}

	rule := strings.Repeat("─", max(0, 46-len([]rune(heading))))
	fmt.Fprintf(w, "  ┌─ %s %s┐\n", heading, rule)
	fmt.Fprintf(w, "  │  Title:    %-37s│\n", truncate(ev.Title, 37))
	fmt.Fprintf(w, "  │  Date:     %-37s│\n", ev.Start.Format("Monday, Jan 2, 2006"))
	fmt.Fprintf(w, "  │  Time:     %-37s│\n", timeRange)
	if ev.Location != "" {
		fmt.Fprintf(w, "  │  Location: %-37s│\n", truncate(ev.Location, 37))
	}
	if ev.Calendar != "" {
		fmt.Fprintf(w, "  │  Calendar: %-37s│\n", truncate(cfg.CalendarTitle(ev.Calendar), 37))
	}
	if ev.ReminderMinutes > 0 {
		fmt.Fprintf(w, "  │  Reminder: %-37s│\n", fmt.Sprintf("%d minutes before", ev.ReminderMinutes))
	} else {
		fmt.Fprintf(w, "  │  Reminder: %-37s│\n", "None")
	}
	fmt.Fprintln(w, "  └────────────────────────────────────────────────┘")
}

func promptForEventDescription() string {
	fmt.Print("Describe your event (e.g., 'tomorrow 9am meeting with Jerry'): ")
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptForCalendar(cfg config.Config) (string, bool) {
	options := []choice{{"", "Default"}}
	for _, cal := range cfg.Calendars {
		options = append(options, choice{value: cal.ID, label: cal.Title})
	}

	id, ok := choose("Select Calendar", options)
	return id, !ok
}

func promptForReminder() (int, bool) {
	options := []choice{
		{"0", "No reminder"},
		{"5", "5 minutes before"},
		{"10", "10 minutes before"},
		{"15", "15 minutes before"},
		{"30", "30 minutes before"},
		{"60", "1 hour before"},
		{"1440", "1 day before"},
	}

	id, ok := choose("Reminder", options)
	if !ok {
		return 0, true
	}

	minutes, _ := strconv.Atoi(id)
	return minutes, false
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
