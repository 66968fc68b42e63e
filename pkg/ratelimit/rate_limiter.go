package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bucket identifies a traffic class with its own limit and window.
type Bucket string

const (
	BucketHold Bucket = "hold"
	BucketAuth Bucket = "auth"
)

// Limit is the token budget of one bucket.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Config holds the limiter settings. The limiter is a cooperative shaping
// layer keyed by a client-declared identity, not a security boundary.
type Config struct {
	Enabled bool
	Buckets map[Bucket]Limit
	Default Limit
}

// Result represents a rate limit check result
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime int64
}

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client *redis.Client
	config *Config
}

func NewRateLimiter(client *redis.Client, config *Config) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// Lua script for atomic sliding window rate limiting
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_seconds = tonumber(ARGV[4])

-- Remove old entries
redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

-- Count current requests
local current_count = redis.call('ZCARD', key)

-- Check if limit exceeded
if current_count >= limit then
    redis.call('EXPIRE', key, window_seconds)
    return {0, 0}
end

-- Add current request
redis.call('ZADD', key, now, now)
redis.call('EXPIRE', key, window_seconds)

return {1, limit - current_count - 1}
`)

// IsAllowed checks whether a request from the given source key fits inside
// the bucket's window.
func (r *RateLimiter) IsAllowed(ctx context.Context, sourceKey string, bucket Bucket) (*Result, error) {
	limit := r.getLimit(bucket)

	if !r.config.Enabled {
		return &Result{
			Allowed:   true,
			Limit:     limit.Requests,
			Remaining: limit.Requests,
			ResetTime: time.Now().Add(limit.Window).Unix(),
		}, nil
	}

	key := fmt.Sprintf("tkitmaster:ratelimit:%s:%s", sourceKey, bucket)
	return r.checkLimit(ctx, key, limit)
}

// checkLimit performs the actual rate limit check using a sliding window
func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit Limit) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-limit.Window)

	windowSeconds := int(limit.Window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	result, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart.UnixNano(),
		now.UnixNano(),
		limit.Requests,
		windowSeconds).Result()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	allowed, _ := strconv.Atoi(fmt.Sprintf("%v", values[0]))
	remaining, _ := strconv.Atoi(fmt.Sprintf("%v", values[1]))
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed == 1,
		Limit:     limit.Requests,
		Remaining: remaining,
		ResetTime: now.Add(limit.Window).Unix(),
	}, nil
}

func (r *RateLimiter) getLimit(bucket Bucket) Limit {
	if limit, ok := r.config.Buckets[bucket]; ok {
		return limit
	}
	return r.config.Default
}
