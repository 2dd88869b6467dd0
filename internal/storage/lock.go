package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultLockTimeout bounds how long an invocation waits for another one to
// release the task store.
const DefaultLockTimeout = 5 * time.Second

const lockPollInterval = 20 * time.Millisecond

// ErrLockTimeout means the store lock was held by another process for longer
// than the timeout.
var ErrLockTimeout = errors.New("lock timeout")

// lockFile acquires an exclusive flock(2) on path, creating it if needed. It
// returns an unlock function that must be called to release the lock.
func lockFile(path string, timeout time.Duration) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	fd := int(f.Fd())
	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, fmt.Errorf("acquiring file lock: %w", err)
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		time.Sleep(lockPollInterval)
	}

	return func() error {
		defer f.Close()
		return unix.Flock(fd, unix.LOCK_UN)
	}, nil
}
