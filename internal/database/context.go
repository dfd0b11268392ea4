package database

import (
	"context"
	"time"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ContextKeyQueryTimeout overrides the default timeout for reads.
	ContextKeyQueryTimeout ContextKey = "db_query_timeout"
	// ContextKeyExecuteTimeout overrides the default timeout for writes.
	ContextKeyExecuteTimeout ContextKey = "db_execute_timeout"

	defaultQueryTimeout   = 5 * time.Second
	defaultExecuteTimeout = 10 * time.Second
)

// withTimeout applies the timeout stored under key, or def, to ctx.
func withTimeout(ctx context.Context, def time.Duration, key ContextKey) (context.Context, context.CancelFunc) {
	timeout := def
	if v, ok := ctx.Value(key).(time.Duration); ok && v > 0 {
		timeout = v
	}
	return context.WithTimeout(ctx, timeout)
}
