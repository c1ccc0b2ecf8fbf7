package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		withRedis     bool
		calls         int
		limit         int
		expectedAllow bool
		expectErr     bool
	}{
		{"Test Environment Bypass", "test", false, 5, 1, true, false},
		{"Development Environment Bypass", "development", false, 5, 1, true, false},
		{"Nil Redis Errors In Production", "production", false, 1, 1, false, true},
		{"Within Limit", "production", true, 2, 2, true, false},
		{"Over Limit", "production", true, 3, 2, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)

			var rdb *redis.Client
			if tt.withRedis {
				_, rdb = newTestRedis(t)
			}

			var allowed bool
			var err error
			for i := 0; i < tt.calls; i++ {
				allowed, err = CheckRateLimit(context.Background(), rdb, "signup", "ip:1.2.3.4", tt.limit, time.Minute)
			}

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedAllow, allowed)
		})
	}
}

func TestCheckRateLimit_SetsExpiry(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	mr, rdb := newTestRedis(t)

	_, err := CheckRateLimit(context.Background(), rdb, "login", "ip:9.9.9.9", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("rl:login:ip:9.9.9.9"))
}

func TestRateLimitWithPolicy(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	newApp := func(h fiber.Handler) *fiber.App {
		app := fiber.New()
		app.Post("/login", h, func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		return app
	}
	do := func(app *fiber.App) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode
	}

	t.Run("redis enforces limit", func(t *testing.T) {
		_, rdb := newTestRedis(t)
		app := newApp(RateLimit(rdb, 2, time.Minute, "login"))
		assert.Equal(t, http.StatusOK, do(app))
		assert.Equal(t, http.StatusOK, do(app))
		assert.Equal(t, http.StatusTooManyRequests, do(app))
	})

	t.Run("fail closed without redis", func(t *testing.T) {
		app := newApp(RateLimitWithPolicy(nil, 2, time.Minute, FailClosed, "login"))
		assert.Equal(t, http.StatusServiceUnavailable, do(app))
	})

	t.Run("fail open without redis", func(t *testing.T) {
		app := newApp(RateLimitWithPolicy(nil, 1, time.Minute, FailOpen, "login"))
		assert.Equal(t, http.StatusOK, do(app))
		assert.Equal(t, http.StatusOK, do(app))
	})

	t.Run("local fallback without redis", func(t *testing.T) {
		app := newApp(RateLimit(nil, 1, time.Hour, "login"))
		assert.Equal(t, http.StatusOK, do(app))
		assert.Equal(t, http.StatusTooManyRequests, do(app))
	})
}
