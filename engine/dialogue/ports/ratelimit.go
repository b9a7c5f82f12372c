package dialogueports

import "context"

// RateLimiter coordinates throughput across agents sharing a provider.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
