package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// defaultBase is the handler of the logger passed to SetDefault, before its
// component attribute.
var defaultBase atomic.Pointer[slog.Handler]

// Logger wraps slog.Logger and keeps the handler it was built on, so
// WithComponent can swap the component attribute.
type Logger struct {
	*slog.Logger
	base slog.Handler
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	// JSON selects the JSON handler; text otherwise.
	JSON   bool
	Writer io.Writer
	// Handler, when set, overrides Level, JSON and Writer.
	Handler slog.Handler
}

// DefaultConfig returns text output at Info level on stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Writer:    os.Stdout,
	}
}

// New creates a logger tagged with config.Component.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if config.JSON {
			handler = slog.NewJSONHandler(w, opts)
		} else {
			handler = slog.NewTextHandler(w, opts)
		}
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return &Logger{
		Logger: slog.New(handler).With(FieldComponent, component),
		base:   handler,
	}
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		base:   l.base,
	}
}

// WithComponent returns a logger for another component on the same handler.
// Attributes added with With are not carried over.
func (l *Logger) WithComponent(component string) *Logger {
	base := l.base
	if base == nil {
		base = l.Logger.Handler()
	}
	return &Logger{
		Logger: slog.New(base).With(FieldComponent, component),
		base:   base,
	}
}

// LogFields logs msg at level with the builder's fields.
func (l *Logger) LogFields(ctx context.Context, level slog.Level, msg string, f LogFields) {
	l.Logger.Log(ctx, level, msg, f.ToSlice()...)
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	if logger.base != nil {
		defaultBase.Store(&logger.base)
	}
	slog.SetDefault(logger.Logger)
}

// Default returns the application default logger tagged with component.
func Default(component string) *Logger {
	if base := defaultBase.Load(); base != nil {
		return &Logger{
			Logger: slog.New(*base).With(FieldComponent, component),
			base:   *base,
		}
	}
	h := slog.Default().Handler()
	return &Logger{
		Logger: slog.New(h).With(FieldComponent, component),
		base:   h,
	}
}
