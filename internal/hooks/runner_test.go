package hooks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
)

// logRecorder captures slog records so tests can count log lines per level.
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

func (r *logRecorder) count(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// fakeManager scripts the init system's answers.
type fakeManager struct {
	active      bool
	activeErr   error
	activePanic bool
	restartErr  error

	activeCalls  int
	restartCalls int
}

func (m *fakeManager) Name() string { return "fake" }

func (m *fakeManager) IsActive(ctx context.Context, unit string) (bool, error) {
	m.activeCalls++
	if m.activePanic {
		panic("status check blew up")
	}
	return m.active, m.activeErr
}

func (m *fakeManager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	return false, nil
}

func (m *fakeManager) Start(ctx context.Context, unit string) error { return nil }
func (m *fakeManager) Stop(ctx context.Context, unit string) error  { return nil }

func (m *fakeManager) Restart(ctx context.Context, unit string) error {
	m.restartCalls++
	return m.restartErr
}

func (m *fakeManager) MainPID(ctx context.Context, unit string) (int, error) {
	return 0, nil
}

type fakeLock struct {
	released int
}

func (l *fakeLock) Release() error {
	l.released++
	return nil
}

func newTestRunner(mgr *fakeManager, rec *logRecorder) (*Runner, *fakeLock) {
	lock := &fakeLock{}
	r := NewRunner(mgr, "/tmp/unused.lock", slog.New(rec))
	r.acquire = func(string) (releaser, error) { return lock, nil }
	return r, lock
}

var kdcHook = Hook{Name: "kdc", Unit: "krb5kdc", Priority: 10}

func TestRunRestartsActiveService(t *testing.T) {
	mgr := &fakeManager{active: true}
	rec := &logRecorder{}
	r, lock := newTestRunner(mgr, rec)

	out := r.Run(context.Background(), kdcHook)

	if out.Result != ResultRestarted {
		t.Fatalf("result = %s, want %s", out.Result, ResultRestarted)
	}
	if mgr.restartCalls != 1 {
		t.Errorf("restart attempted %d times, want exactly 1", mgr.restartCalls)
	}
	if lock.released != 1 {
		t.Errorf("lock released %d times, want 1", lock.released)
	}
	if out.FinishedAt.IsZero() {
		t.Error("outcome has no finish time")
	}
}

func TestRunSkipsInactiveService(t *testing.T) {
	mgr := &fakeManager{active: false}
	rec := &logRecorder{}
	r, lock := newTestRunner(mgr, rec)

	out := r.Run(context.Background(), kdcHook)

	if out.Result != ResultSkipped {
		t.Fatalf("result = %s, want %s", out.Result, ResultSkipped)
	}
	if mgr.restartCalls != 0 {
		t.Errorf("restart attempted %d times, want 0", mgr.restartCalls)
	}
	if lock.released != 1 {
		t.Errorf("lock released %d times, want 1", lock.released)
	}
	if got := rec.count(slog.LevelError); got != 0 {
		t.Errorf("error log lines = %d, want 0", got)
	}
}

func TestRunSwallowsStatusCheckError(t *testing.T) {
	mgr := &fakeManager{activeErr: errors.New("dbus timeout")}
	rec := &logRecorder{}
	r, lock := newTestRunner(mgr, rec)

	out := r.Run(context.Background(), kdcHook)

	if out.Result != ResultError {
		t.Fatalf("result = %s, want %s", out.Result, ResultError)
	}
	if out.Err == nil {
		t.Error("outcome should retain the error")
	}
	if mgr.restartCalls != 0 {
		t.Errorf("restart attempted %d times, want 0", mgr.restartCalls)
	}
	if got := rec.count(slog.LevelError); got != 1 {
		t.Errorf("error log lines = %d, want exactly 1", got)
	}
	if lock.released != 1 {
		t.Errorf("lock released %d times, want 1", lock.released)
	}
}

func TestRunSwallowsRestartError(t *testing.T) {
	mgr := &fakeManager{active: true, restartErr: errors.New("job failed")}
	rec := &logRecorder{}
	r, lock := newTestRunner(mgr, rec)

	out := r.Run(context.Background(), kdcHook)

	if out.Result != ResultError {
		t.Fatalf("result = %s, want %s", out.Result, ResultError)
	}
	if mgr.restartCalls != 1 {
		t.Errorf("restart attempted %d times, want exactly 1", mgr.restartCalls)
	}
	if got := rec.count(slog.LevelError); got != 1 {
		t.Errorf("error log lines = %d, want exactly 1", got)
	}
	if lock.released != 1 {
		t.Errorf("lock released %d times, want 1", lock.released)
	}
}

func TestRunSwallowsLockFailure(t *testing.T) {
	mgr := &fakeManager{active: true}
	rec := &logRecorder{}
	r := NewRunner(mgr, "/tmp/unused.lock", slog.New(rec))
	r.acquire = func(string) (releaser, error) {
		return nil, errors.New("lock directory is read-only")
	}

	out := r.Run(context.Background(), kdcHook)

	if out.Result != ResultLockFailed {
		t.Fatalf("result = %s, want %s", out.Result, ResultLockFailed)
	}
	if mgr.activeCalls != 0 {
		t.Errorf("status checked %d times without the lock, want 0", mgr.activeCalls)
	}
	if mgr.restartCalls != 0 {
		t.Errorf("restart attempted %d times, want 0", mgr.restartCalls)
	}
	if got := rec.count(slog.LevelError); got != 1 {
		t.Errorf("error log lines = %d, want exactly 1", got)
	}
}

func TestRunRecoversPanicAndReleasesLock(t *testing.T) {
	mgr := &fakeManager{activePanic: true}
	rec := &logRecorder{}
	r, lock := newTestRunner(mgr, rec)

	out := r.Run(context.Background(), kdcHook)

	if out.Result != ResultError {
		t.Fatalf("result = %s, want %s", out.Result, ResultError)
	}
	if out.Err == nil {
		t.Error("outcome should retain the panic as an error")
	}
	if lock.released != 1 {
		t.Errorf("lock released %d times after panic, want 1", lock.released)
	}
	if got := rec.count(slog.LevelError); got != 1 {
		t.Errorf("error log lines = %d, want exactly 1", got)
	}
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	mgr := &fakeManager{activeErr: errors.New("broken")}
	rec := &logRecorder{}
	r, _ := newTestRunner(mgr, rec)

	list := []Hook{
		{Name: "kdc", Unit: "krb5kdc", Priority: 10},
		{Name: "httpd", Unit: "httpd", Priority: 40},
	}
	outcomes := r.RunAll(context.Background(), list)

	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if outcomes[0].Hook != "kdc" || outcomes[1].Hook != "httpd" {
		t.Errorf("outcomes out of order: %s, %s", outcomes[0].Hook, outcomes[1].Hook)
	}
	for _, o := range outcomes {
		if o.Result != ResultError {
			t.Errorf("hook %s result = %s, want %s", o.Hook, o.Result, ResultError)
		}
	}
}
