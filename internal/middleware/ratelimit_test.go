package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows requests under limit", func(t *testing.T) {
		limiter := NewRateLimiter()

		for i := 0; i < 5; i++ {
			allowed, remaining, _ := limiter.Check(ctx, "session-1", 10)
			assert.True(t, allowed)
			assert.Equal(t, 10-i-1, remaining)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		limiter := NewRateLimiter()

		for i := 0; i < 5; i++ {
			limiter.Check(ctx, "session-2", 5)
		}

		allowed, remaining, _ := limiter.Check(ctx, "session-2", 5)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	})

	t.Run("tracks keys separately", func(t *testing.T) {
		limiter := NewRateLimiter()

		for i := 0; i < 5; i++ {
			limiter.Check(ctx, "ip:10.0.0.1", 5)
		}

		allowed, _, _ := limiter.Check(ctx, "ip:10.0.0.2", 5)
		assert.True(t, allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		limiter := NewRateLimiter()
		now := time.Now()
		limiter.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			limiter.Check(ctx, "k", 3)
		}
		allowed, _, _ := limiter.Check(ctx, "k", 3)
		assert.False(t, allowed)

		now = now.Add(windowDuration + time.Second)
		allowed, _, _ = limiter.Check(ctx, "k", 3)
		assert.True(t, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("sets rate limit headers", func(t *testing.T) {
		handler := NewRateLimitMiddleware(NewRateLimiter(), 100).Handler(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("returns 429 with json error", func(t *testing.T) {
		handler := NewRateLimitMiddleware(NewRateLimiter(), 1).Handler(okHandler())

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/user", nil))
		assert.Equal(t, http.StatusOK, first.Code)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, rec.Body.String())
	})

	t.Run("sessions are limited independently of address", func(t *testing.T) {
		handler := NewRateLimitMiddleware(NewRateLimiter(), 1).Handler(okHandler())

		for _, id := range []string{"session-a", "session-b"} {
			ctx := context.WithValue(context.Background(), SessionIDContextKey, id)
			req := httptest.NewRequest(http.MethodGet, "/api/user", nil).WithContext(ctx)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, id)
		}
	})

	t.Run("zero limit disables limiting", func(t *testing.T) {
		handler := NewRateLimitMiddleware(NewRateLimiter(), 0).Handler(okHandler())

		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		}
	})
}

func TestLoginRateLimiter(t *testing.T) {
	t.Run("blocks address after max attempts", func(t *testing.T) {
		handler := NewLoginRateLimiter(2).Handler(okHandler())

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/login", nil)
			req.RemoteAddr = "192.0.2.1:4000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("ports do not split an address", func(t *testing.T) {
		limiter := NewLoginRateLimiter(1)

		assert.True(t, limiter.isAllowed("192.0.2.1"))
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		assert.Equal(t, "192.0.2.1", clientIP(req))
		assert.False(t, limiter.isAllowed(clientIP(req)))
	})

	t.Run("window resets", func(t *testing.T) {
		limiter := NewLoginRateLimiter(1)
		now := time.Now()
		limiter.now = func() time.Time { return now }

		assert.True(t, limiter.isAllowed("ip"))
		assert.False(t, limiter.isAllowed("ip"))

		now = now.Add(loginWindowDuration + time.Second)
		assert.True(t, limiter.isAllowed("ip"))
	})
}
