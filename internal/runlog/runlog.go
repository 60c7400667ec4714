// Package runlog records terminal download outcomes in three append-only logs.
package runlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink names one of the outcome streams.
type Sink int

const (
	Success Sink = iota
	Failure
	Error
)

// Sinks lists every sink in file order.
var Sinks = []Sink{Success, Failure, Error}

func (s Sink) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("sink(%d)", int(s))
	}
}

// FileName is the log file backing the sink.
func (s Sink) FileName() string {
	switch s {
	case Success:
		return "success.log"
	case Failure:
		return "failed.log"
	default:
		return "error.log"
	}
}

func (s Sink) level() slog.Level {
	switch s {
	case Success:
		return slog.LevelInfo
	case Failure:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Logger is the capability components receive to report terminal outcomes.
// Implementations must not fail the caller when a write fails.
type Logger interface {
	Log(sink Sink, msg string, args ...any)
}

// FileLogger writes one slog text record per event to the file of each sink.
type FileLogger struct {
	mu     sync.Mutex
	files  map[Sink]*os.File
	sinks  map[Sink]*slog.Logger
	mirror *slog.Logger
	runID  string
}

// Option configures a FileLogger.
type Option func(*FileLogger)

// WithMirror copies every record to logger as well, e.g. a stderr console logger.
func WithMirror(logger *slog.Logger) Option {
	return func(l *FileLogger) {
		l.mirror = logger
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(l *FileLogger) {
		l.runID = id
	}
}

// Open creates dir if needed and opens the three sink files in append mode.
func Open(dir string, opts ...Option) (*FileLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("runlog: mkdir %s: %w", dir, err)
	}
	l := &FileLogger{
		files: make(map[Sink]*os.File, len(Sinks)),
		sinks: make(map[Sink]*slog.Logger, len(Sinks)),
		runID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, sink := range Sinks {
		path := filepath.Join(dir, sink.FileName())
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("runlog: open %s: %w", path, err)
		}
		l.files[sink] = f
		l.sinks[sink] = slog.New(newTextHandler(f, slog.LevelDebug)).With("run", l.runID)
	}
	return l, nil
}

// RunID identifies every record written by this logger.
func (l *FileLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Log appends one record to sink. A nil logger is a no-op.
func (l *FileLogger) Log(sink Sink, msg string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	logger := l.sinks[sink]
	l.mu.Unlock()
	if logger != nil {
		logger.Log(context.Background(), sink.level(), msg, args...)
	}
	if l.mirror != nil {
		l.mirror.Log(context.Background(), sink.level(), msg, append([]any{"sink", sink.String()}, args...)...)
	}
}

// Close closes every sink file.
func (l *FileLogger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for sink, f := range l.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(l.files, sink)
		delete(l.sinks, sink)
	}
	return errors.Join(errs...)
}

// NewConsole returns a stderr text logger whose level comes from
// TUNEFETCH_LOG_LEVEL.
func NewConsole(w io.Writer) *slog.Logger {
	return slog.New(newTextHandler(w, ParseLevel(os.Getenv("TUNEFETCH_LOG_LEVEL"))))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				if ts, ok := attr.Value.Any().(time.Time); ok {
					attr.Value = slog.StringValue(ts.UTC().Format(time.RFC3339))
				}
			}
			return attr
		},
	})
}
