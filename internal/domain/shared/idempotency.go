package shared

import (
	"context"
	"time"
)

// IdempotencyStore records processed message IDs (webhook events, etc.)
// so that redelivered messages are handled once.
type IdempotencyStore interface {
	// MarkProcessed marks an ID as processed with a TTL.
	// Returns true if the ID was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an ID has already been processed
	IsProcessed(ctx context.Context, id string) (bool, error)

	// Unmark removes an ID so the message can be retried
	Unmark(ctx context.Context, id string) error

	Close() error
}

// DefaultIdempotencyTTL is how long processed IDs are remembered
const DefaultIdempotencyTTL = 24 * time.Hour
