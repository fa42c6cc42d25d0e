// Package renewlock implements the shared renewal lock.
//
// Every certificate-renewal hook on a host takes the same advisory file
// lock before touching services, so renewal-triggered restarts never run
// concurrently with other renewal work. The lock path is the contract:
// anything else holding it is another renewal hook.
package renewlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultPath is where renewal hooks on this host agree to lock.
const DefaultPath = "/run/renewhook/renewal.lock"

// ErrBusy is returned by TryAcquire when another renewal hook holds the lock.
var ErrBusy = errors.New("renewal lock held by another process")

// Lock is a held renewal lock. Release it when the renewal work is done;
// the kernel drops it anyway if the process dies.
type Lock struct {
	f    *os.File
	path string
}

// Acquire blocks until the exclusive lock at path is held. An empty path
// means DefaultPath. The lock directory is created if missing.
func Acquire(path string) (*Lock, error) {
	return acquire(path, 0)
}

// TryAcquire is the non-blocking variant. It returns ErrBusy if the lock
// is currently held.
func TryAcquire(path string) (*Lock, error) {
	return acquire(path, unix.LOCK_NB)
}

func acquire(path string, flags int) (*Lock, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|flags); err != nil {
		f.Close()
		if flags&unix.LOCK_NB != 0 && errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &Lock{f: f, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. Calling it more than once is harmless.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return f.Close()
}
