//go:build !windows

package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jmagar/tunefetch/internal/model"
)

// FileLock is an advisory lock held next to a manifest.
type FileLock struct {
	lockFile *os.File
	path     string
}

// AcquireLock takes an exclusive lock on lockPath, retrying up to maxRetries
// times with a 100ms pause. A lock held by another process ends in
// model.ErrManifestLocked.
func AcquireLock(lockPath string, maxRetries int) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open lock file: %w", err)
		}

		err = unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &FileLock{lockFile: lockFile, path: lockPath}, nil
		}

		lockFile.Close()
		lastErr = err
		if !errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
		}
		if i < maxRetries {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("%w: %s (%v)", model.ErrManifestLocked, lockPath, lastErr)
}

// Release drops the lock. The lock file itself is left in place.
func (fl *FileLock) Release() error {
	if fl == nil || fl.lockFile == nil {
		return nil
	}

	err := unix.Flock(int(fl.lockFile.Fd()), unix.LOCK_UN)
	if err != nil {
		fl.lockFile.Close()
		fl.lockFile = nil
		return fmt.Errorf("failed to release lock: %w", err)
	}

	err = fl.lockFile.Close()
	fl.lockFile = nil
	if err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	return nil
}
