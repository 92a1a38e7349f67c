// Package slogx builds the service logger and carries request-scoped
// loggers through contexts.
package slogx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler and the fields stamped on every record.
type Config struct {
	Service string
	Version string
	Env     string // "dev" adds source locations
	Level   string // see ParseLevel
	Format  string // "json" (default) or "text"

	// Output defaults to stdout.
	Output io.Writer
}

// Formats lists the accepted values of Config.Format.
var Formats = []string{"json", "text"}

// New builds a logger from cfg and installs it as the slog default. An
// unparsable level falls back to info; run ParseLevel first to reject it.
func New(cfg Config) *slog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		AddSource: cfg.Env == "dev",
		Level:     level,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler).With(serviceAttrs(cfg)...)
	slog.SetDefault(logger)
	return logger
}

// serviceAttrs skips empty fields so local tools do not log blank versions.
func serviceAttrs(cfg Config) []any {
	var attrs []any
	for _, kv := range [][2]string{
		{"service", cfg.Service},
		{"version", cfg.Version},
		{"env", cfg.Env},
	} {
		if kv[1] != "" {
			attrs = append(attrs, slog.String(kv[0], kv[1]))
		}
	}
	return attrs
}

// ParseLevel accepts debug, info, warn/warning and error in any case, plus
// slog's offset form such as "info+2". Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("slogx: unknown log level %q", s)
	}
	return level, nil
}
