package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg *Config) *RateLimiter {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRateLimiter(client, cfg)
}

func holdOnlyConfig(requests int, window time.Duration) *Config {
	return &Config{
		Enabled: true,
		Buckets: map[Bucket]Limit{
			BucketHold: {Requests: requests, Window: window},
		},
		Default: Limit{Requests: 100, Window: time.Minute},
	}
}

func TestIsAllowed(t *testing.T) {
	ctx := context.Background()

	t.Run("admits up to the limit then rejects", func(t *testing.T) {
		limiter := newTestLimiter(t, holdOnlyConfig(3, time.Minute))

		for i := 0; i < 3; i++ {
			result, err := limiter.IsAllowed(ctx, "1.2.3.4", BucketHold)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, 3, result.Limit)
			assert.Equal(t, 2-i, result.Remaining)
		}

		result, err := limiter.IsAllowed(ctx, "1.2.3.4", BucketHold)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
	})

	t.Run("sources are isolated", func(t *testing.T) {
		limiter := newTestLimiter(t, holdOnlyConfig(1, time.Minute))

		result, err := limiter.IsAllowed(ctx, "1.2.3.4", BucketHold)
		require.NoError(t, err)
		require.True(t, result.Allowed)

		result, err = limiter.IsAllowed(ctx, "1.2.3.4", BucketHold)
		require.NoError(t, err)
		require.False(t, result.Allowed)

		result, err = limiter.IsAllowed(ctx, "5.6.7.8", BucketHold)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("buckets are isolated", func(t *testing.T) {
		limiter := newTestLimiter(t, &Config{
			Enabled: true,
			Buckets: map[Bucket]Limit{
				BucketHold: {Requests: 1, Window: time.Minute},
				BucketAuth: {Requests: 1, Window: time.Minute},
			},
			Default: Limit{Requests: 100, Window: time.Minute},
		})

		result, err := limiter.IsAllowed(ctx, "1.2.3.4", BucketHold)
		require.NoError(t, err)
		require.True(t, result.Allowed)

		result, err = limiter.IsAllowed(ctx, "1.2.3.4", BucketAuth)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("unknown bucket falls back to the default limit", func(t *testing.T) {
		limiter := newTestLimiter(t, &Config{
			Enabled: true,
			Buckets: map[Bucket]Limit{},
			Default: Limit{Requests: 2, Window: time.Minute},
		})

		result, err := limiter.IsAllowed(ctx, "1.2.3.4", Bucket("other"))
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2, result.Limit)
	})

	t.Run("disabled limiter admits everything", func(t *testing.T) {
		cfg := holdOnlyConfig(1, time.Minute)
		cfg.Enabled = false
		limiter := newTestLimiter(t, cfg)

		for i := 0; i < 10; i++ {
			result, err := limiter.IsAllowed(ctx, "1.2.3.4", BucketHold)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
		}
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newEngine := func(limiter *RateLimiter) *gin.Engine {
		engine := gin.New()
		engine.POST("/lock", Middleware(limiter, BucketHold), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		return engine
	}

	do := func(engine *gin.Engine, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/lock", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("returns 429 with limit headers when exhausted", func(t *testing.T) {
		engine := newEngine(newTestLimiter(t, holdOnlyConfig(2, time.Minute)))

		for i := 0; i < 2; i++ {
			w := do(engine, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		}

		w := do(engine, "")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
	})

	t.Run("keys on the first X-Forwarded-For entry", func(t *testing.T) {
		engine := newEngine(newTestLimiter(t, holdOnlyConfig(1, time.Minute)))

		w := do(engine, "203.0.113.7, 10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code)

		w = do(engine, "203.0.113.7, 10.0.0.2")
		require.Equal(t, http.StatusTooManyRequests, w.Code)

		// Different client behind the same proxy chain
		w = do(engine, "203.0.113.8, 10.0.0.1")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("falls back to the TCP peer without the header", func(t *testing.T) {
		engine := newEngine(newTestLimiter(t, holdOnlyConfig(1, time.Minute)))

		w := do(engine, "")
		require.Equal(t, http.StatusOK, w.Code)

		w = do(engine, "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})
}
