// Package telemetry configures structured logging for the renewal hooks.
//
// Hooks run unattended from renewal callbacks, so the log is their only
// output channel. The target is the system log facility by default on
// production hosts; stderr is for interactive use.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"log/syslog"
	"os"
)

// LevelNotice sits between INFO and WARN, matching the syslog notice
// priority used for the "service restarted" line.
const LevelNotice = slog.LevelInfo + 2

// Config selects log level, format and destination.
type Config struct {
	Level  string // debug, info, notice, warn, error
	Format string // text or json
	Target string // stderr or syslog
}

// Setup builds the logger and installs it as the slog default.
func Setup(cfg Config) (*slog.Logger, error) {
	var w io.Writer = os.Stderr
	if cfg.Target == "syslog" {
		sw, err := syslog.New(syslog.LOG_NOTICE|syslog.LOG_DAEMON, "renewhook")
		if err != nil {
			return nil, fmt.Errorf("open syslog: %w", err)
		}
		w = sw
	}
	logger := slog.New(newHandler(w, cfg))
	slog.SetDefault(logger)
	return logger, nil
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: renameNotice,
	}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "notice":
		return LevelNotice
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// renameNotice labels the custom level as NOTICE instead of slog's INFO+2.
func renameNotice(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelNotice {
			a.Value = slog.StringValue("NOTICE")
		}
	}
	return a
}
