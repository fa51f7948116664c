package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Levels lists all levels in ascending severity order.
var Levels = []Level{DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel}

// String returns the canonical lower-case name of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name to a Level. It accepts the canonical
// names in any case, plus the common aliases "warning" and "err".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error", "err":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Entry is a single log event handed to a Formatter.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Fields    []Field
}

// Formatter renders an Entry to bytes.
type Formatter interface {
	Format(e *Entry) ([]byte, error)
}

// Output receives formatted entries.
type Output interface {
	Write(e *Entry, formatted []byte) error
	Close() error
}

// Logger is the leveled, structured logger used throughout chute.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs the entry and terminates the process with exit code 1.
	Fatal(msg string, fields ...Field)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	// With returns a derived logger that attaches fields to every entry.
	With(fields ...Field) Logger
	// WithError is shorthand for With(Err(err)).
	WithError(err error) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// loggerState holds the configuration shared by a logger and everything
// derived from it via With.
type loggerState struct {
	level     atomic.Int32
	mu        sync.Mutex
	formatter Formatter
	outputs   []Output

	// exit is called by Fatal after the entry is written. Swapped out
	// in tests.
	exit func(code int)
}

func (s *loggerState) Level() Level { return Level(s.level.Load()) }

func (s *loggerState) write(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.formatter.Format(e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: format entry: %v\n", err)
		return
	}
	for _, out := range s.outputs {
		if err := out.Write(e, b); err != nil {
			fmt.Fprintf(os.Stderr, "log: write entry: %v\n", err)
		}
	}
}

// BaseLogger is the default Logger implementation. Entries flow through
// a slog.Logger backed by the bridge handler, so slog-aware libraries
// can share the same pipeline.
type BaseLogger struct {
	state *loggerState
	slog  *slog.Logger
}

// LoggerOption configures a logger at construction time.
type LoggerOption func(*loggerState)

// WithLevel sets the minimum level emitted by the logger.
func WithLevel(level Level) LoggerOption {
	return func(s *loggerState) { s.level.Store(int32(level)) }
}

// WithFormatter sets the entry formatter.
func WithFormatter(f Formatter) LoggerOption {
	return func(s *loggerState) { s.formatter = f }
}

// WithOutput appends an output destination.
func WithOutput(o Output) LoggerOption {
	return func(s *loggerState) { s.outputs = append(s.outputs, o) }
}

// NewLogger builds a BaseLogger. Without options it logs at InfoLevel
// in text format to stdout.
func NewLogger(opts ...LoggerOption) Logger {
	state := &loggerState{exit: os.Exit}
	state.level.Store(int32(InfoLevel))
	for _, opt := range opts {
		opt(state)
	}
	if state.formatter == nil {
		state.formatter = NewTextFormatter()
	}
	if len(state.outputs) == 0 {
		state.outputs = []Output{NewConsoleOutput()}
	}
	return &BaseLogger{
		state: state,
		slog:  slog.New(newBridgeHandler(state)),
	}
}

func (l *BaseLogger) log(level Level, msg string, fields ...Field) {
	l.slog.LogAttrs(context.Background(), toSlogLevel(level), msg, fieldsToAttrs(fields)...)
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields...) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields...) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields...) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields...) }

func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields...)
	l.state.exit(1)
}

func (l *BaseLogger) Debugf(format string, args ...any) { l.log(DebugLevel, fmt.Sprintf(format, args...)) }
func (l *BaseLogger) Infof(format string, args ...any)  { l.log(InfoLevel, fmt.Sprintf(format, args...)) }
func (l *BaseLogger) Warnf(format string, args ...any)  { l.log(WarnLevel, fmt.Sprintf(format, args...)) }
func (l *BaseLogger) Errorf(format string, args ...any) { l.log(ErrorLevel, fmt.Sprintf(format, args...)) }

func (l *BaseLogger) Fatalf(format string, args ...any) {
	l.log(FatalLevel, fmt.Sprintf(format, args...))
	l.state.exit(1)
}

func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &BaseLogger{
		state: l.state,
		slog:  slog.New(l.slog.Handler().WithAttrs(fieldsToAttrs(fields))),
	}
}

func (l *BaseLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.With(Err(err))
}

func (l *BaseLogger) SetLevel(level Level) { l.state.level.Store(int32(level)) }
func (l *BaseLogger) GetLevel() Level      { return l.state.Level() }
