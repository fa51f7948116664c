package log

import "fmt"

// Config is the serializable logging configuration embedded in the
// process config file.
type Config struct {
	// Level is the minimum severity to emit: debug, info, warn, error
	// or fatal. Empty means info.
	Level string `json:"level"`
	// Format selects the line encoding: "text" or "json". Empty means
	// text.
	Format string `json:"format"`
}

// ApplyConfig builds a console logger from a Config.
func ApplyConfig(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch cfg.Format {
	case "", "text":
		formatter = NewTextFormatter()
	case "json":
		formatter = NewJSONFormatter()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
	), nil
}
