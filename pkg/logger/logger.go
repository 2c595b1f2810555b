package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps slog.Logger with domain-specific helpers while staying thin
type Logger struct {
	*slog.Logger
	config Config
}

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OutputFormat represents the log output format
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// Config holds configuration for the logger
type Config struct {
	Level      LogLevel     `mapstructure:"level" yaml:"level"`
	Format     OutputFormat `mapstructure:"format" yaml:"format"`
	AddSource  bool         `mapstructure:"add_source" yaml:"add_source"`
	Component  string       `mapstructure:"component" yaml:"component"`
	TimeFormat string       `mapstructure:"time_format" yaml:"time_format"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     FormatText,
		AddSource:  false,
		Component:  "wg-manager",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new logger with the provided configuration
func New(config Config) *Logger {
	level := parseLogLevel(config.Level)
	handler := createHandler(config, level)

	return &Logger{
		Logger: slog.New(handler).With(slog.String("component", config.Component)),
		config: config,
	}
}

// NewDevelopment creates a logger optimized for interactive use
func NewDevelopment(component string) *Logger {
	return New(Config{
		Level:      LevelDebug,
		Format:     FormatText,
		AddSource:  true,
		Component:  component,
		TimeFormat: time.Kitchen,
	})
}

// NewProduction creates a logger optimized for non-interactive use
func NewProduction(component string) *Logger {
	return New(Config{
		Level:      LevelInfo,
		Format:     FormatJSON,
		AddSource:  false,
		Component:  component,
		TimeFormat: time.RFC3339,
	})
}

// With returns a new logger with additional attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
	}
}

// WithComponent returns a logger scoped to a sub-component
func (l *Logger) WithComponent(name string) *Logger {
	cfg := l.config
	cfg.Component = name
	return &Logger{
		Logger: l.Logger.With(slog.String("component", name)),
		config: cfg,
	}
}

// WithIdentity returns a logger carrying the peer identity attribute
func (l *Logger) WithIdentity(identity string) *Logger {
	return l.With(slog.String("identity", identity))
}

// WithInterface returns a logger carrying the tunnel interface attribute
func (l *Logger) WithInterface(iface string) *Logger {
	return l.With(slog.String("interface", iface))
}

// ErrorCtx logs an error with the error message attached as an attribute
func (l *Logger) ErrorCtx(ctx context.Context, msg string, err error, args ...any) {
	attrs := []any{slog.String("error", err.Error())}
	attrs = append(attrs, args...)
	l.Logger.ErrorContext(ctx, msg, attrs...)
}

// Unwrap returns the underlying slog.Logger for direct access
func (l *Logger) Unwrap() *slog.Logger {
	return l.Logger
}

func parseLogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func createHandler(config Config, level slog.Level) slog.Handler {
	switch config.Format {
	case FormatText:
		return tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: config.TimeFormat,
			AddSource:  config.AddSource,
		})
	default:
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     level,
			AddSource: config.AddSource,
		})
	}
}
