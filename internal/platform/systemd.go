package platform

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// systemd drives units through systemctl.
type systemd struct {
	run runner
}

func newSystemd() Manager {
	return &systemd{run: execRunner}
}

func init() {
	supported["systemd"] = newSystemd
}

func (s *systemd) Name() string {
	return "systemd"
}

// activationStates are the answers systemctl is-active can give about a
// unit. Anything else in the output is systemctl itself failing, e.g.
// "Failed to connect to bus: No such file or directory".
var activationStates = map[string]bool{
	"active":       true,
	"activating":   true,
	"deactivating": true,
	"inactive":     true,
	"failed":       true,
	"reloading":    true,
	"refreshing":   true,
	"maintenance":  true,
	"unknown":      true,
}

// enablementStates are the answers systemctl is-enabled can give.
var enablementStates = map[string]bool{
	"enabled":         true,
	"enabled-runtime": true,
	"disabled":        true,
	"static":          true,
	"masked":          true,
	"masked-runtime":  true,
	"linked":          true,
	"linked-runtime":  true,
	"alias":           true,
	"indirect":        true,
	"generated":       true,
	"transient":       true,
	"bad":             true,
}

// IsActive asks systemctl for the unit's activation state. systemctl
// is-active exits non-zero for every state but "active", so an exit error
// paired with a recognized state string means "not running". An exit error
// with anything else in the output is a systemctl failure and is reported
// as one.
func (s *systemd) IsActive(ctx context.Context, unit string) (bool, error) {
	out, err := s.run(ctx, "systemctl", "is-active", unit)
	state := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && activationStates[state] {
			return false, nil
		}
		if state != "" {
			return false, fmt.Errorf("systemctl is-active %s: %v: %s", unit, err, state)
		}
		return false, fmt.Errorf("systemctl is-active %s: %w", unit, err)
	}
	return state == "active", nil
}

func (s *systemd) IsEnabled(ctx context.Context, unit string) (bool, error) {
	out, err := s.run(ctx, "systemctl", "is-enabled", unit)
	state := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && enablementStates[state] {
			return false, nil
		}
		if state != "" {
			return false, fmt.Errorf("systemctl is-enabled %s: %v: %s", unit, err, state)
		}
		return false, fmt.Errorf("systemctl is-enabled %s: %w", unit, err)
	}
	return state == "enabled" || state == "enabled-runtime", nil
}

func (s *systemd) Start(ctx context.Context, unit string) error {
	return s.ctl(ctx, "start", unit)
}

func (s *systemd) Stop(ctx context.Context, unit string) error {
	return s.ctl(ctx, "stop", unit)
}

func (s *systemd) Restart(ctx context.Context, unit string) error {
	return s.ctl(ctx, "restart", unit)
}

func (s *systemd) ctl(ctx context.Context, verb, unit string) error {
	out, err := s.run(ctx, "systemctl", verb, unit)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("systemctl %s %s: %v: %s", verb, unit, err, msg)
		}
		return fmt.Errorf("systemctl %s %s: %w", verb, unit, err)
	}
	return nil
}

// MainPID reads the unit's MainPID property. 0 means no main process.
func (s *systemd) MainPID(ctx context.Context, unit string) (int, error) {
	out, err := s.run(ctx, "systemctl", "show", "--property", "MainPID", "--value", unit)
	if err != nil {
		return 0, fmt.Errorf("systemctl show %s: %w", unit, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("parse MainPID for %s: %w", unit, err)
	}
	return pid, nil
}
