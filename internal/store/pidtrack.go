package store

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/workmux/workmux/internal/paths"
)

// pidStartTimeFunc is overridden in tests.
var pidStartTimeFunc = processStartTime

type trackedPID struct {
	PID       int
	StartTime string
}

func pidsDir() (string, error) {
	state, err := paths.StateDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(state, "pids")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating pids dir: %w", err)
	}
	return dir, nil
}

func pidFile(dir, handle string) string {
	return filepath.Join(dir, handle+".pid")
}

// TrackPID writes a pane's shell PID to a tracking file, recording its
// start time when available so a later cleanup pass can detect PID reuse
// before killing an unrelated process. This is defense-in-depth alongside
// the multiplexer's own window-kill: it catches processes reparented after
// a crash that escape the backend's bookkeeping entirely.
func TrackPID(handle string, pid int) error {
	dir, err := pidsDir()
	if err != nil {
		return err
	}
	record := strconv.Itoa(pid)
	if start, err := pidStartTimeFunc(pid); err == nil && start != "" {
		record = fmt.Sprintf("%d|%s", pid, start)
	}
	return os.WriteFile(pidFile(dir, handle), []byte(record+"\n"), 0644)
}

// UntrackPID removes the tracking file for handle.
func UntrackPID(handle string) {
	if dir, err := pidsDir(); err == nil {
		_ = os.Remove(pidFile(dir, handle))
	}
}

// KillTrackedPIDs kills any processes still alive in the pid-tracking
// directory, verifying each against its recorded start time to avoid
// terminating a reused PID, and returns how many were killed.
func KillTrackedPIDs() (killed int, errHandles []string) {
	dir, err := pidsDir()
	if err != nil {
		return 0, []string{fmt.Sprintf("resolving pids dir: %v", err)}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, []string{fmt.Sprintf("reading pids dir: %v", err)}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pid") {
			continue
		}
		handle := strings.TrimSuffix(entry.Name(), ".pid")
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			errHandles = append(errHandles, fmt.Sprintf("%s: read error: %v", handle, err))
			continue
		}
		record, err := parseTrackedPID(strings.TrimSpace(string(data)))
		if err != nil {
			_ = os.Remove(path)
			continue
		}

		proc, err := os.FindProcess(record.PID)
		if err != nil {
			_ = os.Remove(path)
			continue
		}
		if err := proc.Signal(syscall.Signal(0)); err != nil {
			_ = os.Remove(path)
			continue
		}

		if record.StartTime != "" {
			currentStart, startErr := pidStartTimeFunc(record.PID)
			if startErr != nil {
				errHandles = append(errHandles, fmt.Sprintf("%s (pid %d): cannot verify start time: %v — preserving tracking file", handle, record.PID, startErr))
				continue
			}
			if currentStart != record.StartTime {
				_ = os.Remove(path)
				continue
			}
		}

		if err := proc.Signal(syscall.SIGTERM); err != nil {
			errHandles = append(errHandles, fmt.Sprintf("%s (pid %d): SIGTERM failed: %v", handle, record.PID, err))
		} else {
			killed++
		}
		_ = os.Remove(path)
	}
	return killed, errHandles
}

func parseTrackedPID(value string) (trackedPID, error) {
	if value == "" {
		return trackedPID{}, fmt.Errorf("empty pid record")
	}
	parts := strings.SplitN(value, "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil {
		return trackedPID{}, err
	}
	record := trackedPID{PID: pid}
	if len(parts) == 2 {
		record.StartTime = parts[1]
	}
	return record, nil
}

func processStartTime(pid int) (string, error) {
	cmd := exec.Command("ps", "-o", "lstart=", "-p", strconv.Itoa(pid))
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
