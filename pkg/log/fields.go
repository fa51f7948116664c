package log

import (
	"log/slog"
	"time"
)

// Field is one typed key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F builds a field from an arbitrary value.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

func Str(key, value string) Field       { return Field{Key: key, Value: value} }
func Int(key string, value int) Field   { return Field{Key: key, Value: value} }
func Int64(key string, v int64) Field   { return Field{Key: key, Value: v} }
func Uint64(key string, v uint64) Field { return Field{Key: key, Value: v} }
func Bool(key string, v bool) Field     { return Field{Key: key, Value: v} }

// Dur records a duration in its default Go string form.
func Dur(key string, d time.Duration) Field { return Field{Key: key, Value: d} }

// Err records an error under the conventional "error" key. A nil error
// yields an empty value rather than the string "<nil>".
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags entries with the subsystem that emitted them.
func Component(name string) Field { return Field{Key: "component", Value: name} }

func fieldsToAttrs(fields []Field) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}
