package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRateLimiter creates a rate limiter backed by miniredis
func setupTestRateLimiter(tb testing.TB, name string, maxRequests int, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	tb.Helper()
	mr := miniredis.RunT(tb)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, RateLimiterConfig{
		Name:        name,
		MaxRequests: maxRequests,
		Window:      window,
	})
	return rl, mr
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/api/items", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}

func hit(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsRequestsUnderLimit(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, "api", 5, time.Minute)
	router := limitedRouter(rl)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code, "Request %d should succeed", i+1)
	}
}

func TestRateLimiter_BlocksRequestsOverLimit(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, "api", 5, time.Minute)
	router := limitedRouter(rl)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code)
	}

	w := hit(router, "192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "6th request should be rate limited")
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, w.Body.String())

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)
	assert.LessOrEqual(t, retryAfter, 60)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, "api", 3, time.Minute)
	router := limitedRouter(rl)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code)
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "192.168.1.2").Code, "IP2 request %d should succeed", i+1)
	}

	assert.Equal(t, http.StatusTooManyRequests, hit(router, "192.168.1.1").Code)
}

func TestRateLimiter_NamesAreIndependent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	login := NewRateLimiter(client, RateLimiterConfig{Name: "login", MaxRequests: 1, Window: time.Minute})
	api := NewRateLimiter(client, RateLimiterConfig{MaxRequests: 1, Window: time.Minute})
	ctx := context.Background()

	ok, _, err := login.CheckLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = api.CheckLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "login hits must not count against the api window")

	ok, _, err = login.CheckLimit(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, "api", 2, time.Second)
	ctx := context.Background()
	ip := "192.168.1.100"

	for i := 0; i < 2; i++ {
		allowed, _, err := rl.CheckLimit(ctx, ip)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	mr.FastForward(2 * time.Second)

	allowed, _, err = rl.CheckLimit(ctx, ip)
	require.NoError(t, err)
	assert.True(t, allowed, "Request should be allowed after window expires")
}

func TestRateLimiter_ExactLimitUnderBurst(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, "api", 10, time.Minute)
	router := limitedRouter(rl)

	success, limited := 0, 0
	for i := 0; i < 20; i++ {
		switch hit(router, "192.168.1.1").Code {
		case http.StatusOK:
			success++
		case http.StatusTooManyRequests:
			limited++
		}
	}

	assert.Equal(t, 10, success)
	assert.Equal(t, 10, limited)
}

func TestRateLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, "api", 1, time.Minute)
	router := limitedRouter(rl)
	mr.Close()

	assert.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code)
	assert.Equal(t, http.StatusOK, hit(router, "192.168.1.1").Code)
}

func BenchmarkRateLimiter_CheckLimit(b *testing.B) {
	rl, _ := setupTestRateLimiter(b, "api", 1000000, time.Minute)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = rl.CheckLimit(ctx, "192.168.1.100")
	}
}
