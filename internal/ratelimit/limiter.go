package ratelimit

import "context"

// RateLimiter controls outbound relay throughput per middleware route.
type RateLimiter interface {
	Allow(ctx context.Context, route string) (bool, error)
	Wait(ctx context.Context, route string) error
}
