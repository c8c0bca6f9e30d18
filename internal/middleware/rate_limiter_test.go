package middleware

import (
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

// setupTestRateLimiter creates a rate limiter with miniredis for testing
func setupTestRateLimiter(t *testing.T, maxRequests int, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	config := RateLimiterConfig{
		MaxRequests: maxRequests,
		Window:      window,
		BlockTime:   5 * time.Minute,
	}

	return NewRateLimiter(client, config), mr
}

// TestRateLimiter_AllowsRequestsUnderLimit tests that requests under the limit are allowed
func TestRateLimiter_AllowsRequestsUnderLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, 5, 1*time.Minute)
	defer mr.Close()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345" // Simulate same IP
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
}

// TestRateLimiter_BlocksRequestsOverLimit tests that requests over the limit are blocked
func TestRateLimiter_BlocksRequestsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, 5, 1*time.Minute)
	defer mr.Close()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	// 6th request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code, "6th request should be rate limited")
	assert.NotEmpty(t, w.Header().Get("Retry-After"), "Should have Retry-After header")
}

// TestRateLimiter_DifferentIPsIndependent tests that different IPs have independent limits
func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, 3, 1*time.Minute)
	defer mr.Close()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// IP 1: Make 3 requests (at limit)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "IP1 request %d should succeed", i+1)
	}

	// IP 2: Should still have full quota
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.2:12345"
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "IP2 request %d should succeed", i+1)
	}

	// IP 1: 4th request should be blocked
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code, "IP1 4th request should be rate limited")
}

// TestRateLimiter_CheckLimit tests the CheckLimit method directly
func TestRateLimiter_CheckLimit(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 3, 1*time.Minute)
	defer mr.Close()

	ip := "192.168.1.100"

	// First 3 requests should be allowed
	for i := 0; i < 3; i++ {
		allowed, _, err := rl.CheckLimit(ip)
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	// 4th request should be denied
	allowed, retryAfter, err := rl.CheckLimit(ip)
	require.NoError(t, err)
	assert.False(t, allowed, "4th request should be denied")
	assert.Greater(t, retryAfter, time.Duration(0), "Should have retry-after duration")
}

// TestRateLimiter_WindowExpiry tests that rate limit resets after window expires
func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, 2, 1*time.Second)
	defer mr.Close()

	ip := "192.168.1.100"

	for i := 0; i < 2; i++ {
		allowed, _, err := rl.CheckLimit(ip)
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	// 3rd request should be denied
	allowed, _, err := rl.CheckLimit(ip)
	require.NoError(t, err)
	assert.False(t, allowed, "3rd request should be denied")

	// Fast-forward time in miniredis
	mr.FastForward(2 * time.Second)

	// After window expires, requests should be allowed again
	allowed, _, err = rl.CheckLimit(ip)
	require.NoError(t, err)
	assert.True(t, allowed, "Request should be allowed after window expires")
}

// TestRateLimiter_FailsOpenOnRedisOutage tests that a Redis outage does not block requests
func TestRateLimiter_FailsOpenOnRedisOutage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, 1, 1*time.Minute)

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// Kill Redis
	mr.Close()

	// Requests still go through
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "Request %d should pass when Redis is down", i+1)
	}
}

// TestRateLimiter_RetryAfterHeader tests that Retry-After header is set correctly
func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, 1, 1*time.Minute)
	defer mr.Close()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// First request succeeds
	req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req1.RemoteAddr = "192.168.1.1:12345"
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)

	// Second request should be rate limited
	req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req2.RemoteAddr = "192.168.1.1:12345"
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.NotEmpty(t, w2.Header().Get("Retry-After"), "Retry-After header should be set")
}

// Benchmark tests

func BenchmarkRateLimiter_CheckLimit(b *testing.B) {
	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewRateLimiter(client, RateLimiterConfig{
		MaxRequests: 1000000,
		Window:      1 * time.Minute,
		BlockTime:   5 * time.Minute,
	})

	ip := "192.168.1.100"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = rl.CheckLimit(ip)
	}
}
