//go:build windows

package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmagar/tunefetch/internal/model"
)

// FileLock is a lock file next to a manifest.
type FileLock struct {
	lockFile *os.File
	path     string
}

// AcquireLock creates lockPath exclusively. Existence of the file is the lock.
func AcquireLock(lockPath string, maxRetries int) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			return &FileLock{lockFile: f, path: lockPath}, nil
		}
		lastErr = err
		if i < maxRetries {
			time.Sleep(100 * time.Millisecond)
		}
	}
	return nil, fmt.Errorf("%w: %s (%v)", model.ErrManifestLocked, lockPath, lastErr)
}

// Release closes and removes the lock file.
func (fl *FileLock) Release() error {
	if fl == nil || fl.lockFile == nil {
		return nil
	}
	fl.lockFile.Close()
	fl.lockFile = nil
	_ = os.Remove(fl.path)
	return nil
}
