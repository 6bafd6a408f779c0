package logging

import (
	"context"
	"regexp"

	"go.uber.org/zap"
)

type runIDCtxKey struct{}
type loggerCtxKey struct{}

var runIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if id := RunIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("run_id", id))
	}
	return fields
}

// WithRunID tags ctx with the identifier of the current evaluation.
// Identifiers that are not short alphanumeric tokens are ignored.
func WithRunID(ctx context.Context, runID string) context.Context {
	if !runIDPattern.MatchString(runID) {
		return ctx
	}
	return context.WithValue(ctx, runIDCtxKey{}, runID)
}

// RunIDFromContext returns the run identifier, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return NewNop()
}
