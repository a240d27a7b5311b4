// Package store is the filesystem-backed agent state store: one JSON
// record per known pane, always reconciled against live multiplexer state
// before being trusted (spec §4.C). Grounded on the teacher's
// internal/session/registry.go for the registry shape and its atomic
// temp-file-then-rename write pattern used throughout the corpus.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/workmux/workmux/internal/lock"
	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/paths"
)

// Status is the reconciled liveness state of an agent pane.
type Status string

const (
	StatusRunning Status = "running"
	StatusIdle    Status = "idle"
	StatusStalled Status = "stalled"
	StatusCrashed Status = "crashed"
	StatusUnknown Status = "unknown"
)

// AgentRecord is the persisted + reconciled state of one agent pane.
type AgentRecord struct {
	Handle    string       `json:"handle"`
	Key       mux.PaneKey  `json:"pane_key"`
	Branch    string       `json:"branch"`
	Path      string       `json:"path"`
	Status    Status       `json:"status"`
	ContentHash uint64     `json:"content_hash"`
	LastChange time.Time   `json:"last_change"`
	LastSeen  time.Time    `json:"last_seen"`
	ShellPID  int          `json:"shell_pid,omitempty"`
}

// Store reads and writes AgentRecord files under AgentsDir, one file per
// handle, each write protected by a per-file advisory lock so two workmux
// invocations never interleave a read-modify-write.
type Store struct {
	mu  sync.Mutex
	dir string
}

func Open() (*Store, error) {
	dir, err := paths.AgentsDir()
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) recordPath(handle string) string {
	return filepath.Join(s.dir, handle+".json")
}

func (s *Store) lockPath(handle string) string {
	return filepath.Join(s.dir, "."+handle+".lock")
}

// Get reads the stored record for handle, or (nil, nil) if none exists.
func (s *Store) Get(handle string) (*AgentRecord, error) {
	data, err := os.ReadFile(s.recordPath(handle))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading agent record %s: %w", handle, err)
	}
	var rec AgentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing agent record %s: %w", handle, err)
	}
	return &rec, nil
}

// Put writes rec atomically: write to a temp file in the same directory,
// then rename over the target, so a reader never observes a partial write.
func (s *Store) Put(rec AgentRecord) error {
	release, err := lock.Acquire(s.lockPath(rec.Handle))
	if err != nil {
		return fmt.Errorf("locking agent record %s: %w", rec.Handle, err)
	}
	defer release()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding agent record %s: %w", rec.Handle, err)
	}
	tmp, err := os.CreateTemp(s.dir, rec.Handle+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", rec.Handle, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing agent record %s: %w", rec.Handle, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file for %s: %w", rec.Handle, err)
	}
	if err := os.Rename(tmpPath, s.recordPath(rec.Handle)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming agent record %s: %w", rec.Handle, err)
	}
	return nil
}

// Delete removes the stored record for handle, if any.
func (s *Store) Delete(handle string) error {
	err := os.Remove(s.recordPath(handle))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting agent record %s: %w", handle, err)
	}
	os.Remove(s.lockPath(handle))
	return nil
}

// List returns all stored records, sorted by handle.
func (s *Store) List() ([]AgentRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing agent records: %w", err)
	}
	var records []AgentRecord
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		handle := e.Name()[:len(e.Name())-len(".json")]
		rec, err := s.Get(handle)
		if err != nil || rec == nil {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Handle < records[j].Handle })
	return records, nil
}
