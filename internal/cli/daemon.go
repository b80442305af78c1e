package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"termcal/config"
	"termcal/internal/log"
	"termcal/internal/notify"
	"termcal/internal/proc"
	"termcal/internal/reminder"
	"termcal/internal/version"
	"termcal/internal/watch"
)

const (
	stopTimeout  = 5 * time.Second
	startTimeout = 3 * time.Second
	statusLines  = 10
)

var daemonBackground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Background reminder daemon",
	Long:  "The daemon sends event reminders in the background and follows changes to the event store.",
}

func init() {
	start := &cobra.Command{
		Use:   "start",
		Short: "Run the daemon (in the foreground unless --background)",
		Run: func(cmd *cobra.Command, args []string) {
			if !daemonBackground {
				runDaemon(cmd.Context())
				return
			}
			pid, err := startDaemonBackground()
			if err != nil {
				fmt.Printf("Error starting daemon: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Daemon running in the background (PID %d).\n", pid)
		},
	}
	start.Flags().BoolVar(&daemonBackground, "background", false, "Detach and run in the background")

	daemonCmd.AddCommand(
		start,
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the daemon runs, plus its latest log lines",
			Run: func(cmd *cobra.Command, args []string) {
				printDaemonStatus(os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the daemon",
			Run: func(cmd *cobra.Command, args []string) {
				stopDaemon()
			},
		},
	)
}

// daemonFiles locates the daemon's lock and log inside the config directory
func daemonFiles() (pid, logFile string) {
	return configPath("daemon.pid"), configPath("daemon.log")
}

// runningDaemon returns the daemon's lock if its process is alive. Stale and
// unreadable PID files are removed.
func runningDaemon() (proc.LockInfo, bool) {
	pidFile, _ := daemonFiles()
	info, err := proc.ReadLock(pidFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return proc.LockInfo{}, false
	case err != nil || !info.Alive():
		os.Remove(pidFile)
		return proc.LockInfo{}, false
	}
	return info, true
}

func isDaemonRunning() bool {
	_, ok := runningDaemon()
	return ok
}

// startDaemonBackground re-executes termcal as a detached daemon and waits
// until it holds the lock. A daemon that is already running is reused.
func startDaemonBackground() (int, error) {
	if info, ok := runningDaemon(); ok {
		return info.PID, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}
	child := exec.Command(exe, "daemon", "start")
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := child.Start(); err != nil {
		return 0, err
	}
	pid := child.Process.Pid
	child.Process.Release()

	for deadline := time.Now().Add(startTimeout); time.Now().Before(deadline); time.Sleep(100 * time.Millisecond) {
		if info, ok := runningDaemon(); ok && info.PID == pid {
			return pid, nil
		}
	}
	_, logFile := daemonFiles()
	return 0, fmt.Errorf("daemon did not start within %s, see %s", startTimeout, logFile)
}

func stopDaemon() {
	info, ok := runningDaemon()
	if !ok {
		fmt.Println("Daemon is not running.")
		return
	}
	if err := proc.Terminate(info.PID, stopTimeout); err != nil {
		fmt.Printf("Error stopping daemon: %v\n", err)
		os.Exit(1)
	}
	pidFile, _ := daemonFiles()
	os.Remove(pidFile)
	fmt.Printf("Daemon stopped (PID %d).\n", info.PID)
}

func printDaemonStatus(w io.Writer) {
	if info, ok := runningDaemon(); ok {
		fmt.Fprintf(w, "Daemon is running (PID %d)\n", info.PID)
	} else {
		fmt.Fprintln(w, "Daemon is not running")
	}

	_, logFile := daemonFiles()
	fmt.Fprintln(w, "Log file:", logFile)

	data, err := os.ReadFile(logFile)
	if err != nil {
		fmt.Fprintln(w, "\nNo logs yet. Start it with 'termcal daemon start --background'")
		return
	}
	lines := tailLines(string(data), statusLines)
	if len(lines) == 0 {
		fmt.Fprintln(w, "\nLog file is empty")
		return
	}
	fmt.Fprintln(w, "\nRecent logs:")
	for _, line := range lines {
		fmt.Fprintln(w, " ", line)
	}
}

// tailLines returns the last n non-empty lines of s
func tailLines(s string, n int) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// setupDaemonLogging writes JSON logs to the daemon log file, mirrored to
// the terminal in console format when running interactively
func setupDaemonLogging(cfg config.Config, alsoToTerminal bool) (io.Closer, error) {
	_, logFile := daemonFiles()
	if err := os.MkdirAll(configPath(""), 0700); err != nil {
		return nil, err
	}
	rotateLog(logFile)

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	var w io.Writer = f
	if alsoToTerminal {
		w = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	if err := log.Configure(log.Config{Level: cfg.LogLevel, Output: w}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func runDaemon(ctx context.Context) {
	isTerminal := term.IsTerminal(int(os.Stdin.Fd()))

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	if closer, err := setupDaemonLogging(cfg, isTerminal); err == nil {
		defer closer.Close()
	}
	logger := log.WithComponent("daemon")

	pidFile, _ := daemonFiles()
	if err := proc.AcquireLock(pidFile); err != nil {
		if errors.Is(err, proc.ErrLocked) {
			fmt.Println("Daemon is already running.")
		} else {
			fmt.Println("Error writing PID file:", err)
		}
		os.Exit(1)
	}
	defer proc.ReleaseLock(pidFile)

	e, err := openEnv(ctx, "")
	if err != nil {
		logger.Error().Err(err).Msg("failed to open event store")
		if isTerminal {
			fmt.Println("Error:", err)
		}
		return
	}
	defer e.Close()

	notifier, err := notify.FromConfig(e.cfg.Notifications)
	if err != nil {
		logger.Error().Err(err).Msg("invalid notification config")
		return
	}

	// Handle shutdown signals
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Int("pid", os.Getpid()).
		Str("version", version.Version).
		Str("store", e.store.Path()).
		Int("events", e.manager.Len()).
		Msg("daemon started")

	if err := serveDaemon(ctx, e, notifier, reminder.DefaultSpec); err != nil {
		logger.Error().Err(err).Msg("daemon stopped with error")
		return
	}
	logger.Info().Msg("daemon stopped")
}

// serveDaemon runs the reminder scheduler and the store watcher until ctx
// is cancelled or one of them fails
func serveDaemon(ctx context.Context, e *env, notifier notify.Notifier, spec string) error {
	logger := log.WithComponent("daemon")
	scheduler := reminder.New(e.manager, notifier, e.cfg.TimeLayout())

	watcher, err := watch.New(e.store.Path(), watch.DefaultDebounce)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Run(gctx, spec)
	})
	g.Go(func() error {
		return watcher.Run(gctx, func() {
			if err := e.manager.Reload(gctx); err != nil {
				logger.Error().Err(err).Msg("failed to reload events")
				return
			}
			logger.Info().Int("events", e.manager.Len()).Msg("events reloaded")
		})
	})
	return g.Wait()
}
