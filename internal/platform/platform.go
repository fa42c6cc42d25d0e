// Package platform abstracts the host's init system for the renewal hooks.
package platform

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// ErrUnsupported marks an operation the active init system cannot answer.
var ErrUnsupported = errors.New("operation not supported by this init system")

// Manager controls services through the host's init system.
type Manager interface {
	// Name returns the init system name (e.g. "systemd").
	Name() string
	// IsActive reports whether the unit is currently running.
	IsActive(ctx context.Context, unit string) (bool, error)
	// IsEnabled reports whether the unit starts at boot.
	IsEnabled(ctx context.Context, unit string) (bool, error)
	// Start starts the unit.
	Start(ctx context.Context, unit string) error
	// Stop stops the unit.
	Stop(ctx context.Context, unit string) error
	// Restart restarts the unit.
	Restart(ctx context.Context, unit string) error
	// MainPID returns the PID of the unit's main process, 0 if none.
	MainPID(ctx context.Context, unit string) (int, error)
}

// runner executes a service-management command and returns its combined
// output. Backends take one so tests can fake the init system.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// supported maps init system names to backend constructors. Backends
// register themselves from init().
var supported = map[string]func() Manager{}

// Detect returns the Manager for this host's init system.
func Detect() Manager {
	// systemd leaves its marker directory on any booted systemd host.
	if _, err := os.Stat("/run/systemd/system"); err == nil {
		return supported["systemd"]()
	}
	return supported["sysvinit"]()
}

// ForName returns the named backend, for hosts where detection is wrong.
func ForName(name string) (Manager, bool) {
	ctor, ok := supported[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
