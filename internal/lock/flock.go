// Package lock provides cross-process advisory locking for read-modify-write
// operations that must be serialized across separate workmux invocations
// (today, the state store's per-record writes).
package lock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Acquire opens a lock file and blocks until an exclusive advisory lock is
// held. Returns a release function that unlocks and closes the file.
func Acquire(path string) (func(), error) {
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	return func() {
		_ = fl.Unlock()
	}, nil
}

// TryAcquire attempts to acquire the lock without blocking. ok is false if
// another process already holds it.
func TryAcquire(path string) (release func(), ok bool, err error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	if !locked {
		return nil, false, nil
	}
	return func() { _ = fl.Unlock() }, true, nil
}
