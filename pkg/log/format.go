package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// TextFormatter renders entries as a single human-readable line:
//
//	2026-08-25T09:30:00.000Z INFO  queue ready component=broker capacity=0
type TextFormatter struct{}

func NewTextFormatter() *TextFormatter { return &TextFormatter{} }

func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(e.Timestamp.Format(timestampLayout))
	buf.WriteByte(' ')
	buf.WriteString(fmt.Sprintf("%-5s", strings.ToUpper(e.Level.String())))
	buf.WriteByte(' ')
	buf.WriteString(e.Message)
	for _, field := range e.Fields {
		buf.WriteByte(' ')
		buf.WriteString(field.Key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(field.Value))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func formatValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// JSONFormatter renders entries as one JSON object per line with the
// reserved keys ts, level and msg. Fields with reserved names are
// prefixed with "field." rather than dropped.
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter { return &JSONFormatter{} }

func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+3)
	m["ts"] = e.Timestamp.Format(timestampLayout)
	m["level"] = e.Level.String()
	m["msg"] = e.Message
	for _, field := range e.Fields {
		key := field.Key
		if _, reserved := m[key]; reserved {
			key = "field." + key
		}
		m[key] = normalizeValue(field.Value)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// normalizeValue keeps JSON output stable for types whose default
// marshalling is surprising in a log line, such as time.Duration.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	default:
		return v
	}
}
