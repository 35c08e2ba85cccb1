package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/songsmith-backend/internal/config"
)

func newTestRateLimiter(t *testing.T, perMinute, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: perMinute,
		Burst:             burst,
		CleanupInterval:   time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ai/rhymes/love", nil)
	req.RemoteAddr = remoteAddr
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 60, 10)
	handler := rl.Limit()(okHandler())

	for i := 0; i < 10; i++ {
		rec := doFrom(handler, "1.2.3.4:1234")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := newTestRateLimiter(t, 6, 5)
	handler := rl.Limit()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doFrom(handler, "1.2.3.4:1234").Code)
	}

	rec := doFrom(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 10)
}

func TestRateLimiter_RejectedRequestsDoNotConsumeTokens(t *testing.T) {
	rl := newTestRateLimiter(t, 60, 1)
	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(handler, "5.5.5.5:1").Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusTooManyRequests, doFrom(handler, "5.5.5.5:1").Code)
	}

	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doFrom(handler, "5.5.5.5:1").Code)
}

func TestRateLimiter_KeyedByHostNotPort(t *testing.T) {
	rl := newTestRateLimiter(t, 60, 2)
	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(handler, "1.1.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, doFrom(handler, "1.1.1.1:2000").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(handler, "1.1.1.1:3000").Code)

	assert.Equal(t, http.StatusOK, doFrom(handler, "2.2.2.2:5678").Code)
	assert.Equal(t, 2, rl.size())
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	// 60 per minute = 1 per second
	rl := newTestRateLimiter(t, 60, 60)
	handler := rl.Limit()(okHandler())

	for i := 0; i < 60; i++ {
		doFrom(handler, "3.3.3.3:1234")
	}
	require.Equal(t, http.StatusTooManyRequests, doFrom(handler, "3.3.3.3:1234").Code)

	time.Sleep(1100 * time.Millisecond)

	assert.Equal(t, http.StatusOK, doFrom(handler, "3.3.3.3:1234").Code)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := newTestRateLimiter(t, 60, 5)
	now := time.Now()

	rl.limiterFor("old", now.Add(-2*idleLimiterTTL))
	rl.limiterFor("fresh", now)

	rl.evictIdle(now)

	assert.Equal(t, 1, rl.size())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := newTestRateLimiter(t, 60, 5)
	rl.Stop()
	rl.Stop()
}

func TestClientKey(t *testing.T) {
	tests := map[string]string{
		"10.0.0.1:4321":  "10.0.0.1",
		"[::1]:8080":     "::1",
		"unix-socket":    "unix-socket",
		"192.168.1.1:80": "192.168.1.1",
	}
	for addr, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		assert.Equal(t, want, clientKey(req), addr)
	}
}
