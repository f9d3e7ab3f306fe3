// Package trace carries a per-update correlation id through contexts.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type traceKey struct{}

// NewID returns a random trace id.
func NewID() string {
	return uuid.NewString()
}

// WithID returns a child context carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// FromContext returns the trace id of ctx, or "" if absent.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}
