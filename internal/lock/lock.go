package lock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Acquire takes an exclusive non-blocking flock on path, so only one
// schedule daemon runs per host. Returns a release function which should
// be called (deferred) when work is done.
func Acquire(path string) (func() error, error) {
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("another instance holds the lock: %s", path)
	}

	return fl.Unlock, nil
}
