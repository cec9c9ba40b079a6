package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(cfg RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(cfg))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router
}

func doRequest(router *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	router := newLimitedRouter(RateLimitConfig{Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		w := doRequest(router)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	router := newLimitedRouter(RateLimitConfig{Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		doRequest(router)
	}

	w := doRequest(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	// 5 tokens per second so a short sleep buys another request
	router := newLimitedRouter(RateLimitConfig{Limit: 5, Window: time.Second})

	for i := 0; i < 5; i++ {
		doRequest(router)
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router).Code)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doRequest(router).Code)
}

func TestRateLimiterTracksIPsSeparately(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(RateLimitConfig{Limit: 1, Window: time.Minute}))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(addr string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1111"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2:2222"), "a different IP has its own bucket")
}

func TestTokenBucketRetryAfter(t *testing.T) {
	tb := NewTokenBucket(1, 0.5) // one token, refills every 2s

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
	assert.Greater(t, tb.GetRetryAfter(), 0)

	full := NewTokenBucket(10, 1)
	assert.Equal(t, 0, full.GetRetryAfter())
}
