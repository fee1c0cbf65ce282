// Package filelock provides the advisory lock that serializes mutating
// commands on one workbook.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lockFileMode = 0o600
	// FileName is the lock file created inside the workbook directory.
	FileName = ".lock"

	retryInterval = 20 * time.Millisecond
)

// ErrTimeout is returned when the lock could not be taken before the
// context expired.
var ErrTimeout = errors.New("workbook is locked by another plantrack process")

// Lock acquires an exclusive advisory lock on the file at path, creating
// it if it does not exist. It polls until the lock is free or ctx is done.
// The returned function releases the lock.
func Lock(ctx context.Context, path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

// LockDir locks the workbook rooted at dir.
func LockDir(ctx context.Context, dir string) (unlock func() error, err error) {
	return Lock(ctx, filepath.Join(dir, FileName))
}
