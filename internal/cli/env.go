package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"termcal/config"
	"termcal/internal/calendar"
	"termcal/internal/events"
	"termcal/internal/i18n"
	"termcal/internal/log"
	"termcal/internal/store"
)

const (
	appLogName = "termcal.log"
	maxLogSize = 10 * 1024 * 1024 // 10MB
	dateLayout = "2006-01-02"
)

// env is the state shared by commands that work on events
type env struct {
	cfg     config.Config
	store   store.Store
	manager *events.Manager
}

// openEnv loads config, configures logging into logName and opens the
// configured store. An empty logName leaves logging as it is.
func openEnv(ctx context.Context, logName string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logName != "" {
		configureLogging(cfg, logName)
	}

	if err := i18n.Init(cfg.Language); err != nil {
		// Non-fatal: fall back to message IDs
		fmt.Printf("Warning: i18n initialization failed: %v\n", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	manager, err := events.NewManager(ctx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{cfg: cfg, store: st, manager: manager}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func configPath(name string) string {
	dir, err := config.GetConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, name)
}

// configureLogging points the global logger at a file in the config dir
func configureLogging(cfg config.Config, logName string) {
	logFile := configPath(logName)
	if logFile == "" {
		return
	}
	rotateLog(logFile)
	if err := log.Configure(log.Config{Level: cfg.LogLevel, File: logFile}); err != nil {
		fmt.Printf("Warning: failed to open log file: %v\n", err)
	}
}

// parseDate accepts YYYY-MM-DD, today, tomorrow and yesterday
func parseDate(s string, now time.Time) (time.Time, error) {
	today := calendar.DateOnly(now)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, today or tomorrow)", s)
	}
	return t, nil
}

var clockLayouts = []string{"15:04", "3:04pm", "3:04 pm", "3pm", "3 pm"}

// parseClock accepts 24h "15:04" and 12h "3:04pm" / "3pm" times
func parseClock(s string) (hour, minute int, err error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("invalid time %q (use HH:MM or 3:04pm)", s)
}

func atClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// rotateLog moves logFile aside once it grows past maxLogSize
func rotateLog(logFile string) {
	if info, err := os.Stat(logFile); err == nil && info.Size() > maxLogSize {
		os.Rename(logFile, logFile+".old")
	}
}
