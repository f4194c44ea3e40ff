// Package logging configures zerolog for the service and carries request
// scoped fields (request id, user id) through context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for the authenticated user id (int64)
	UserIDKey contextKey = "user_id"
)

// Config holds logging configuration
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json, text
	Service string
	Output  io.Writer
}

// Logger wraps zerolog for application logging
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "text") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(output).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return &Logger{logger: ctx.Logger()}
}

// SetGlobalLogger makes logger the target of the package-level helpers.
func SetGlobalLogger(logger *Logger) {
	log.Logger = logger.logger
}

// Zerolog exposes the underlying logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}

// WithContext returns a child logger carrying the request and user ids found in ctx.
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	return withContextFields(l.logger, ctx)
}

// HTTPRequest logs one served request. Server errors log at error level,
// client errors at warn.
func (l *Logger) HTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	logger := withContextFields(l.logger, ctx)
	event := logger.Info()
	switch {
	case status >= 500:
		event = logger.Error()
	case status >= 400:
		event = logger.Warn()
	}

	event.
		Str("method", method).
		Str("path", path).
		Int("status_code", status).
		Dur("duration_ms", duration).
		Msg("HTTP request")
}

// Info logs an info message using the global logger
func Info(msg string) {
	log.Info().Msg(msg)
}

// Warn logs a warning message using the global logger
func Warn(msg string) {
	log.Warn().Msg(msg)
}

// Error logs an error message using the global logger
func Error(err error, msg string) {
	log.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits using the global logger
func Fatal(err error, msg string) {
	log.Fatal().Err(err).Msg(msg)
}

// WithContext returns the global logger enriched with the ids found in ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	return withContextFields(log.Logger, ctx)
}

// ContextWithRequestID stores a request id in ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// ContextWithUserID stores the authenticated user id in ctx.
func ContextWithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// UserID returns the authenticated user id stored in ctx.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok && id > 0
}

func withContextFields(base zerolog.Logger, ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &base
	}
	fields := base.With()
	if id := RequestID(ctx); id != "" {
		fields = fields.Str("request_id", id)
	}
	if id, ok := UserID(ctx); ok {
		fields = fields.Int64("user_id", id)
	}
	logger := fields.Logger()
	return &logger
}
