// Package proc tracks the daemon's process through a PID lock file.
//
// A lock file holds "PID" or "PID:START", where START is the process start
// time reported by ps. Recording the start time lets a reader tell the
// original owner apart from an unrelated process that reused its PID.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/renameio/v2"
)

// ErrLocked is returned when another live process holds the lock
var ErrLocked = errors.New("lock held by another process")

const pollInterval = 50 * time.Millisecond

// LockInfo is the decoded content of a lock file
type LockInfo struct {
	PID   int
	Start string // empty when ps was unavailable to the writer
}

func (l LockInfo) String() string {
	if l.Start == "" {
		return strconv.Itoa(l.PID)
	}
	return strconv.Itoa(l.PID) + ":" + l.Start
}

// ParseLock decodes lock file content
func ParseLock(data []byte) (LockInfo, error) {
	pidText, start, _ := strings.Cut(strings.TrimSpace(string(data)), ":")
	if pidText == "" {
		return LockInfo{}, errors.New("empty lock file")
	}
	pid, err := strconv.Atoi(strings.TrimSpace(pidText))
	if err != nil || pid <= 0 {
		return LockInfo{}, fmt.Errorf("invalid PID %q", pidText)
	}
	return LockInfo{PID: pid, Start: strings.TrimSpace(start)}, nil
}

// Alive reports whether the recorded process still runs. With a recorded
// start time the live process must match it.
func (l LockInfo) Alive() bool {
	if l.PID <= 0 {
		return false
	}
	if l.Start != "" {
		if now, err := StartTime(l.PID); err == nil && now != "" {
			return now == l.Start
		}
	} else if IsTermcalProcess(l.PID) {
		return true
	}
	return Exists(l.PID)
}

// The process lookups below are variables so tests can replace them.
var (
	StartTime        = func(pid int) (string, error) { return ps(pid, "lstart") }
	IsTermcalProcess = isTermcal
	Exists           = signalZero

	getpid = os.Getpid
)

// ps returns one output column for pid
func ps(pid int, column string) (string, error) {
	out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", column+"=").Output()
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(string(out))
	if v == "" {
		return "", fmt.Errorf("ps: no %s for pid %d", column, pid)
	}
	return v, nil
}

func isTermcal(pid int) bool {
	comm, err := ps(pid, "comm")
	if err != nil {
		return false
	}
	return filepath.Base(comm) == "termcal"
}

func signalZero(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

// ReadLock reads and decodes the lock at path
func ReadLock(path string) (LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LockInfo{}, err
	}
	return ParseLock(data)
}

// AcquireLock records the current process at path. It fails with ErrLocked
// while another live process holds the lock; a stale or corrupt lock is
// replaced once. The lock is written in full to a pending file and linked
// into place, so two processes racing for it cannot both succeed.
func AcquireLock(path string) error {
	self := getpid()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	info := LockInfo{PID: self}
	if start, err := StartTime(self); err == nil {
		info.Start = start
	}

	for attempt := 0; ; attempt++ {
		err := linkLock(path, []byte(info.String()))
		if !errors.Is(err, os.ErrExist) {
			return err
		}

		held, rerr := ReadLock(path)
		switch {
		case rerr == nil && held.PID == self:
			return nil
		case rerr == nil && held.Alive():
			return fmt.Errorf("%w (PID %d)", ErrLocked, held.PID)
		case attempt > 0:
			return fmt.Errorf("%w: %s was recreated while replacing it", ErrLocked, path)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
}

// linkLock hard-links a fully written file holding data to path. It fails
// with os.ErrExist when path is already present.
func linkLock(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithStaticPermissions(0600))
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return err
	}
	if err := pending.Sync(); err != nil {
		return err
	}
	return os.Link(pending.Name(), path)
}

// ReleaseLock removes the lock at path unless a different process owns it.
// A missing lock is not an error.
func ReleaseLock(path string) error {
	info, err := ReadLock(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err == nil && info.PID != getpid():
		return nil
	}
	return os.Remove(path)
}

// Terminate sends SIGTERM to pid and waits until it exits or timeout passes
func Terminate(pid int, timeout time.Duration) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		return err
	}

	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(pollInterval) {
		if !Exists(pid) {
			return nil
		}
	}
	return fmt.Errorf("process %d still running after %s", pid, timeout)
}
