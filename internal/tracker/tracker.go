// Package tracker persists the last successful sync timestamp per middleware
// route. The timestamp is the middleware's own resultDt value, stored verbatim
// so subsequent delta queries can replay it unchanged.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openkra/etims-relay/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "etims:last_sync:"

// ResultDtLayout is the timestamp format the middleware uses in resultDt fields.
const ResultDtLayout = "20060102150405"

// RedisTracker stores per-route sync timestamps in Redis. Keys never expire:
// the latest accepted exchange always wins.
type RedisTracker struct {
	client *goredis.Client
}

func NewRedisTracker(client *goredis.Client) (*RedisTracker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisTracker{client: client}, nil
}

func (t *RedisTracker) UpdateLastSuccess(ctx context.Context, resultDt string, route string) error {
	if t == nil || t.client == nil {
		return fmt.Errorf("tracker is not initialized")
	}

	normalizedRoute := strings.TrimSpace(route)
	if normalizedRoute == "" {
		return fmt.Errorf("%w: route is required", domain.ErrValidation)
	}
	normalizedDt := strings.TrimSpace(resultDt)
	if normalizedDt == "" {
		return fmt.Errorf("%w: result timestamp is required", domain.ErrValidation)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if err := t.client.Set(ctx, keyPrefix+normalizedRoute, normalizedDt, 0).Err(); err != nil {
		return fmt.Errorf("failed to store last sync time for %s: %w", normalizedRoute, err)
	}
	return nil
}

func (t *RedisTracker) LastSuccess(ctx context.Context, route string) (string, error) {
	if t == nil || t.client == nil {
		return "", fmt.Errorf("tracker is not initialized")
	}

	normalizedRoute := strings.TrimSpace(route)
	if normalizedRoute == "" {
		return "", fmt.Errorf("%w: route is required", domain.ErrValidation)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	value, err := t.client.Get(ctx, keyPrefix+normalizedRoute).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", fmt.Errorf("%w: no sync recorded for %s", domain.ErrNotFound, normalizedRoute)
		}
		return "", fmt.Errorf("failed to load last sync time for %s: %w", normalizedRoute, err)
	}

	return value, nil
}

// ParseResultDt converts a middleware resultDt value into a time.Time.
func ParseResultDt(resultDt string) (time.Time, error) {
	parsed, err := time.Parse(ResultDtLayout, strings.TrimSpace(resultDt))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid result timestamp %q", domain.ErrValidation, resultDt)
	}
	return parsed, nil
}
