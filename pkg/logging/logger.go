package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	sessionIDKey contextKey = "sessionID"
)

// LevelTrace is below debug and only meant for payload-level detail.
const LevelTrace = slog.LevelDebug - 4

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
	output io.Writer = os.Stdout
)

func init() {
	// Compact console output by default, see SetJSONOutput for production
	level.Set(slog.LevelInfo)
	logger = slog.New(NewCompactHandler(output, &slog.HandlerOptions{Level: level}))
}

// SetLevel changes the logging level of every logger, including ones already
// handed out by New.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects compact output, mainly for tests.
func SetOutput(w io.Writer) {
	output = w
	logger = slog.New(NewCompactHandler(output, &slog.HandlerOptions{Level: level}))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput() {
	logger = slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps a verbosity name or a -v count to a level.
// An explicit name wins over the count.
func ParseLevel(verbosity string, verboseCount int) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(verbosity)) {
	case "":
		switch {
		case verboseCount >= 2:
			return LevelTrace, nil
		case verboseCount == 1:
			return slog.LevelDebug, nil
		default:
			return slog.LevelInfo, nil
		}
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown verbosity %q", verbosity)
	}
}

// New returns a logger tagged with a component name. It follows later
// SetOutput and SetJSONOutput calls, so packages can create theirs at init.
func New(component string) *slog.Logger {
	return slog.New(&forwarder{ops: []handlerOp{{attrs: []slog.Attr{slog.String("component", component)}}}})
}

// handlerOp is one recorded WithAttrs or WithGroup call.
type handlerOp struct {
	attrs []slog.Attr
	group string
}

// forwarder replays its ops onto whatever the package logger's handler is at
// the time of each call.
type forwarder struct {
	ops []handlerOp
}

func (f *forwarder) handler() slog.Handler {
	h := logger.Handler()
	for _, op := range f.ops {
		if op.group != "" {
			h = h.WithGroup(op.group)
		} else {
			h = h.WithAttrs(op.attrs)
		}
	}
	return h
}

func (f *forwarder) Enabled(ctx context.Context, l slog.Level) bool {
	return level.Level() <= l
}

func (f *forwarder) Handle(ctx context.Context, r slog.Record) error {
	return f.handler().Handle(ctx, r)
}

func (f *forwarder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.with(handlerOp{attrs: attrs})
}

func (f *forwarder) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.with(handlerOp{group: name})
}

func (f *forwarder) with(op handlerOp) *forwarder {
	ops := make([]handlerOp, 0, len(f.ops)+1)
	ops = append(ops, f.ops...)
	return &forwarder{ops: append(ops, op)}
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithSessionID adds a view session ID to the context
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetSessionID retrieves the view session ID from context
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// contextAttrs prepends request and session IDs found in ctx.
func contextAttrs(ctx context.Context, args []any) []any {
	var prefix []any
	if id := GetRequestID(ctx); id != "" {
		prefix = append(prefix, "requestID", id)
	}
	if id := GetSessionID(ctx); id != "" {
		prefix = append(prefix, "sessionID", id)
	}
	if len(prefix) == 0 {
		return args
	}
	return append(prefix, args...)
}

// Trace logs at TRACE level (raw payload detail)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, contextAttrs(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, contextAttrs(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, contextAttrs(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, contextAttrs(ctx, args)...)
}

// Error logs at ERROR level (backend failures, broken invariants)
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, contextAttrs(ctx, args)...)
}

// Fatal logs at ERROR level and exits
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
