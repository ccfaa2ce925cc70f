// Package logging installs the process-wide structured logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log lines go.  When File is empty logs are only
// written to stdout.
type Options struct {
	Service string
	Env     string
	Level   slog.Level
	File    string // optional path of a rotated log file
}

// Setup configures the standard library logger to emit structured JSON
// and returns the slog.Logger used throughout the service.  Every line
// carries the service name and environment.  When opts.File is set, the
// same lines are also appended to a size-rotated file.
func Setup(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, RotatingFile(opts.File))
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	h := handler.WithAttrs(attrs)
	base := slog.New(h)
	slog.SetDefault(base)

	// packages still using the log package end up in the same stream
	std := slog.NewLogLogger(h, slog.LevelInfo)
	log.SetOutput(std.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// RotatingFile returns a writer appending to path, rotated at 100 MB and
// keeping a week of compressed backups.
func RotatingFile(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
	}
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
