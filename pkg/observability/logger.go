// Package observability provides structured logging, metrics, health checks
// and tracing setup for spabook.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "spabook"

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel is the minimum level that is written.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger. Zero values give info-level text on
// stderr without source locations.
type LogConfig struct {
	Level          LogLevel
	Format         LogFormat
	Output         io.Writer
	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

// LogConfigFor returns the defaults for an APP_ENV value. Production logs
// JSON to stdout with source locations; every other environment logs text
// to stderr.
func LogConfigFor(env string) LogConfig {
	if env == "production" {
		return LogConfig{
			Level:          LogLevelInfo,
			Format:         LogFormatJSON,
			Output:         os.Stdout,
			AddSource:      true,
			ServiceName:    serviceName,
			ServiceVersion: "unknown",
		}
	}
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    serviceName,
		ServiceVersion: "dev",
	}
}

// LoggerFor builds the process logger from configuration values. Empty
// arguments keep the environment's defaults.
func LoggerFor(env, level, format, version string) *slog.Logger {
	cfg := LogConfigFor(env)
	if level != "" {
		cfg.Level = LogLevel(strings.ToLower(level))
	}
	if format != "" {
		cfg.Format = LogFormat(strings.ToLower(format))
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	return NewLogger(cfg)
}

// NewLogger creates a logger that stamps every record with the service
// identity and the request identifiers found on the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseSlogLevel(cfg.Level), AddSource: cfg.AddSource}

	var base slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == LogFormatJSON {
		base = slog.NewJSONHandler(out, opts)
	}

	var static []slog.Attr
	if cfg.ServiceName != "" {
		static = append(static, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		static = append(static, slog.String("version", cfg.ServiceVersion))
	}
	return slog.New(&contextHandler{next: base, static: static})
}

func parseSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// contextHandler appends static attributes and the context identifiers.
// The static attributes are added per record so they survive WithGroup.
type contextHandler struct {
	next   slog.Handler
	static []slog.Attr
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.static...)
	r.AddAttrs(contextAttrs(ctx)...)
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), static: h.static}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), static: h.static}
}
