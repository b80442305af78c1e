package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"termcal/config"
)

// Notifier delivers a reminder to the user
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Native sends desktop notifications.
// On macOS, uses osascript. On Linux, uses notify-send if available.
type Native struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
}

// NewNative returns a notifier for the running platform
func NewNative() *Native {
	return &Native{goos: runtime.GOOS, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Notify sends a system notification with the given title and message
func (n *Native) Notify(ctx context.Context, title, message string) error {
	switch n.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return n.run(ctx, "osascript", "-e", script)
	case "linux":
		return n.run(ctx, "notify-send", title, message)
	default:
		// Unsupported platform, silently ignore
		return nil
	}
}

// Send sends a system notification using the native notifier
func Send(title, message string) error {
	return NewNative().Notify(context.Background(), title, message)
}

// Multi fans a notification out to every notifier
type Multi []Notifier

// Notify delivers to all notifiers and joins their errors
func (m Multi) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the notifier described by cfg. A nil cfg means native
// notifications; a config with nothing enabled returns nil.
func FromConfig(cfg *config.NotificationConfig) (Notifier, error) {
	if cfg == nil {
		return NewNative(), nil
	}

	var out Multi
	if cfg.Native.Enabled {
		out = append(out, NewNative())
	}
	if len(cfg.URLs) > 0 {
		s, err := NewShoutrrr(cfg.URLs, defaultTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
