// pattern: Imperative Shell
package instance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".rosdex.lock"

// Lock acquires an exclusive file lock inside targetDir so that two
// concurrent runs never interleave symlink creation or index writes on the
// same output target. Returns the flock handle (caller must defer Unlock)
// or an error if another run already holds the lock.
func Lock(targetDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	lockPath := filepath.Join(targetDir, lockFileName)
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another rosdex run is already writing to %s", targetDir)
	}
	return fl, nil
}

// Unlock releases the lock. The lock file itself is left in place; removing
// it would let a third process lock a fresh inode while a waiter still
// holds the old one.
func Unlock(fl *flock.Flock) {
	if fl != nil {
		_ = fl.Unlock()
	}
}
