package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/krbops/renewhook/internal/platform"
	"github.com/krbops/renewhook/internal/renewlock"
	"github.com/krbops/renewhook/internal/telemetry"
)

// Result classifies what a hook run did.
type Result string

const (
	// ResultRestarted means the unit was running and was restarted.
	ResultRestarted Result = "restarted"
	// ResultSkipped means the unit was not running, so nothing was done.
	ResultSkipped Result = "skipped"
	// ResultError means the status check or the restart failed.
	ResultError Result = "error"
	// ResultLockFailed means the renewal lock could not be taken.
	ResultLockFailed Result = "lock_failed"
)

// Outcome is the record of a single hook run. Hooks are fire-and-forget
// renewal callbacks: failures land in the log and in the outcome, never
// in an error return.
type Outcome struct {
	Hook       string
	Unit       string
	Result     Result
	Err        error
	FinishedAt time.Time
}

// releaser is the slice of renewlock.Lock the runner needs.
type releaser interface {
	Release() error
}

// Runner executes hooks against the host's init system.
type Runner struct {
	mgr      platform.Manager
	lockPath string
	log      *slog.Logger

	acquire func(path string) (releaser, error)
}

// NewRunner returns a Runner that locks at lockPath and restarts services
// through mgr.
func NewRunner(mgr platform.Manager, lockPath string, log *slog.Logger) *Runner {
	return &Runner{
		mgr:      mgr,
		lockPath: lockPath,
		log:      log,
		acquire: func(path string) (releaser, error) {
			return renewlock.Acquire(path)
		},
	}
}

// Run executes one hook under the renewal lock.
//
// The whole sequence is guarded: a lock failure, a status-check or restart
// failure, or a panic is logged and swallowed here. Run never signals
// failure to its caller, because a renewal-completion callback that fails
// its invoker would abort the surrounding renewal.
func (r *Runner) Run(ctx context.Context, h Hook) (out Outcome) {
	out = Outcome{Hook: h.Name, Unit: h.Unit, Result: ResultSkipped}
	defer func() {
		out.FinishedAt = time.Now()
		if rec := recover(); rec != nil {
			out.Result = ResultError
			out.Err = fmt.Errorf("hook %s panicked: %v", h.Name, rec)
			r.log.Error("hook failed",
				"hook", h.Name, "unit", h.Unit,
				"error", out.Err, "stack", string(debug.Stack()))
		}
	}()

	lock, err := r.acquire(r.lockPath)
	if err != nil {
		out.Result = ResultLockFailed
		out.Err = err
		r.log.Error("cannot take renewal lock",
			"hook", h.Name, "lock", r.lockPath, "error", err)
		return out
	}
	defer lock.Release()

	active, err := r.mgr.IsActive(ctx, h.Unit)
	if err != nil {
		out.Result = ResultError
		out.Err = err
		r.log.Error("cannot restart service",
			"hook", h.Name, "unit", h.Unit, "error", err)
		return out
	}
	if !active {
		r.log.Debug("service not running, nothing to restart",
			"hook", h.Name, "unit", h.Unit)
		return out
	}

	if err := r.mgr.Restart(ctx, h.Unit); err != nil {
		out.Result = ResultError
		out.Err = err
		r.log.Error("cannot restart service",
			"hook", h.Name, "unit", h.Unit, "error", err)
		return out
	}

	out.Result = ResultRestarted
	r.log.Log(ctx, telemetry.LevelNotice, "restarted service after certificate renewal",
		"hook", h.Name, "unit", h.Unit)
	return out
}

// RunAll runs hooks in the given order, one lock cycle each, so other
// renewal work can interleave between restarts. A failing hook never
// stops the rest.
func (r *Runner) RunAll(ctx context.Context, list []Hook) []Outcome {
	outcomes := make([]Outcome, 0, len(list))
	for _, h := range list {
		outcomes = append(outcomes, r.Run(ctx, h))
	}
	return outcomes
}
