// Package log provides the structured logging facade used across chute.
//
// The package wraps log/slog behind a small Logger interface so that the
// rest of the codebase never imports slog directly. Loggers carry typed
// fields, support level filtering at runtime, and render through a
// pluggable Formatter/Output pair.
//
// Typical usage:
//
//	logger := log.NewLogger(log.WithLevel(log.InfoLevel))
//	logger = logger.With(log.Component("broker"))
//	logger.Info("queue ready", log.Int("capacity", 0))
//
// Derived loggers share level state with their root, so lowering the
// level on any member of the family takes effect everywhere.
package log
