package store

import "context"

// Store is the shared state store every vmflow process synchronizes
// through. Implementations must degrade gracefully: when the backing
// store is unreachable, reads return zero values and writes are logged
// and dropped, so a store outage never crashes a caller. Orchestration
// then continues in a best-effort, possibly-stale-state mode.
type Store interface {
	// Get returns the value for key, or "" when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, creating it if necessary.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Append pushes values onto the tail of the list stored at key.
	Append(ctx context.Context, key string, values ...string) error

	// Range returns list elements between start and stop inclusive,
	// following Redis LRANGE semantics (negative indexes count from the
	// tail, -1 is the last element).
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Length returns the number of elements in the list stored at key.
	Length(ctx context.Context, key string) (int64, error)

	// Publish sends payload to subscribers of channel. Fire-and-forget:
	// delivery is not acknowledged and failures are best-effort logged.
	Publish(ctx context.Context, channel, payload string) error

	// Close releases the underlying connection resources.
	Close() error
}
