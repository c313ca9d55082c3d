// Package logging provides structured logging for the chameneos tools.
//
// Logs go to stderr through log/slog. On a terminal the text handler is used,
// elsewhere JSON, unless Config.JSON forces a choice. The rendezvous hot loops
// never log; only setup, teardown, and per-run summaries do.
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug, Service: "chameneos"})
//	defer logger.Close()
//	logger.Info("run finished", "meetings", res.Meetings)
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps "debug", "info", "warn"/"warning" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Config configures a Logger.
type Config struct {
	// Level is the minimum level emitted.
	Level Level

	// Service, when set, is attached to every record.
	Service string

	// JSON forces the JSON handler. When false the handler follows the
	// output: text on a terminal, JSON otherwise.
	JSON bool

	// Quiet discards all output.
	Quiet bool

	// Output overrides stderr. Used by tests.
	Output io.Writer
}

// Logger wraps a slog.Logger with the config it was built from.
type Logger struct {
	slog   *slog.Logger
	config Config

	mu     sync.Mutex
	closer io.Closer
}

// New builds a Logger from config.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Quiet {
		out = io.Discard
	}

	var handler slog.Handler
	if config.JSON || !isTerminal(out) {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	l := &Logger{slog: slog.New(handler), config: config}
	if c, ok := config.Output.(io.Closer); ok && config.Output != os.Stderr && config.Output != os.Stdout {
		l.closer = c
	}
	return l
}

// Default returns an info-level stderr logger for the chameneos service.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "chameneos"})
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Config{Quiet: true})
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	return l.slog.Enabled(context.Background(), level.toSlogLevel())
}

// With returns a child logger carrying args on every record. The child
// shares the parent's output; only the parent should be closed.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), config: l.config}
}

// Slog exposes the underlying slog.Logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close releases a closable Output. Closing twice is a no-op.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	if err != nil {
		return fmt.Errorf("close log output: %w", err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
