package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo describes the process behind a service unit.
type ProcessInfo struct {
	PID     int       `json:"pid" yaml:"pid"`
	Name    string    `json:"name" yaml:"name"`
	Started time.Time `json:"started" yaml:"started"`
	Running bool      `json:"running" yaml:"running"`
}

// Inspect looks up the process behind a unit's main PID. It confirms a
// live process actually sits behind the PID the init system reported,
// which matters right after a restart.
func Inspect(ctx context.Context, pid int) (*ProcessInfo, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("no main process")
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return &ProcessInfo{PID: pid}, nil
	}
	info := &ProcessInfo{PID: pid, Running: true}
	if name, err := p.NameWithContext(ctx); err == nil {
		info.Name = name
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil {
		info.Started = time.UnixMilli(ms)
	}
	return info, nil
}

// Uptime formats how long the process has been up, coarsely.
func (p *ProcessInfo) Uptime() string {
	if p == nil || !p.Running || p.Started.IsZero() {
		return "-"
	}
	d := time.Since(p.Started).Round(time.Second)
	return d.String()
}
