package platform

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// sysvinit is the fallback backend for hosts without systemd. It drives
// services through the service(8) wrapper and the chkconfig tool.
type sysvinit struct {
	run runner
}

func newSysvinit() Manager {
	return &sysvinit{run: execRunner}
}

func init() {
	supported["sysvinit"] = newSysvinit
}

func (s *sysvinit) Name() string {
	return "sysvinit"
}

// IsActive runs "service <name> status". By LSB convention exit 0 means
// running and exit 3 means stopped; other exit codes are real failures.
func (s *sysvinit) IsActive(ctx context.Context, unit string) (bool, error) {
	_, err := s.run(ctx, "service", unit, "status")
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 3 {
		return false, nil
	}
	return false, fmt.Errorf("service %s status: %w", unit, err)
}

func (s *sysvinit) IsEnabled(ctx context.Context, unit string) (bool, error) {
	// chkconfig <name> exits 0 when the service is on for the current runlevel.
	_, err := s.run(ctx, "chkconfig", unit)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("chkconfig %s: %w", unit, err)
	}
	return true, nil
}

func (s *sysvinit) Start(ctx context.Context, unit string) error {
	return s.ctl(ctx, unit, "start")
}

func (s *sysvinit) Stop(ctx context.Context, unit string) error {
	return s.ctl(ctx, unit, "stop")
}

func (s *sysvinit) Restart(ctx context.Context, unit string) error {
	return s.ctl(ctx, unit, "restart")
}

func (s *sysvinit) ctl(ctx context.Context, unit, verb string) error {
	out, err := s.run(ctx, "service", unit, verb)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("service %s %s: %v: %s", unit, verb, err, msg)
		}
		return fmt.Errorf("service %s %s: %w", unit, verb, err)
	}
	return nil
}

// MainPID is not tracked by sysvinit.
func (s *sysvinit) MainPID(ctx context.Context, unit string) (int, error) {
	return 0, ErrUnsupported
}
