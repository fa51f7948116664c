package log

import (
	"context"
	"log/slog"
	"time"
)

// slogLevelFatal extends slog's level space so Fatal survives the round
// trip through the bridge instead of collapsing into Error.
const slogLevelFatal = slog.LevelError + 4

func toSlogLevel(l Level) slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	case FatalLevel:
		return slogLevelFatal
	default:
		return slog.LevelInfo
	}
}

func fromSlogLevel(l slog.Level) Level {
	switch {
	case l >= slogLevelFatal:
		return FatalLevel
	case l >= slog.LevelError:
		return ErrorLevel
	case l >= slog.LevelWarn:
		return WarnLevel
	case l >= slog.LevelInfo:
		return InfoLevel
	default:
		return DebugLevel
	}
}

// bridgeHandler adapts the logger pipeline to slog.Handler so the
// facade methods and any slog-aware dependency share one sink.
type bridgeHandler struct {
	state *loggerState
	attrs []Field
	group string
}

func newBridgeHandler(state *loggerState) *bridgeHandler {
	return &bridgeHandler{state: state}
}

func (h *bridgeHandler) Enabled(_ context.Context, level slog.Level) bool {
	return fromSlogLevel(level) >= h.state.Level()
}

func (h *bridgeHandler) Handle(_ context.Context, record slog.Record) error {
	entry := &Entry{
		Timestamp: record.Time,
		Level:     fromSlogLevel(record.Level),
		Message:   record.Message,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Fields = make([]Field, 0, len(h.attrs)+record.NumAttrs())
	entry.Fields = append(entry.Fields, h.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		entry.Fields = append(entry.Fields, h.attrField(a))
		return true
	})
	h.state.write(entry)
	return nil
}

func (h *bridgeHandler) attrField(a slog.Attr) Field {
	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}
	return Field{Key: key, Value: a.Value.Resolve().Any()}
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]Field, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, h.attrField(a))
	}
	return &nh
}

func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		nh.group = nh.group + "." + name
	} else {
		nh.group = name
	}
	return &nh
}
