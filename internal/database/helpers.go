package database

import (
	"context"
	"time"
)

// withTimeout derives a bounded context, falling back to Background for a nil parent
func withTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
