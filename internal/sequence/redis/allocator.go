// Package redis provides the Redis-backed daily sequence counter used for
// quote-number generation.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PCcoding666/LLM-QUOTATION/internal/observability"
)

const (
	keyPrefix = "quote_no:"

	// Counters expire two days after first use; by then the day has rolled
	// over and the key is never read again.
	counterTTL = 48 * time.Hour
)

// Allocator allocates strictly increasing per-day sequence numbers via
// Redis INCR. The counter is shared across processes, so concurrent
// allocations never collide.
type Allocator struct {
	client *redis.Client
}

// NewAllocator creates a Redis-backed sequence allocator.
func NewAllocator(client *redis.Client) *Allocator {
	return &Allocator{
		client: client,
	}
}

// Next returns the next sequence number for the given day (YYYYMMDD).
func (a *Allocator) Next(ctx context.Context, day string) (int64, error) {
	key := keyPrefix + day

	pipe := a.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", key, err)
	}

	seq := incr.Val()
	observability.FromContext(ctx).Debug("sequence allocated",
		observability.String("key", key),
		observability.Int64("seq", seq))

	return seq, nil
}
