package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestIPRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("Over Budget", func(t *testing.T) {
		h := NewIPRateLimiter(ctx, RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}).Handler(okHandler)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			req.Header.Set("X-Forwarded-For", "41.90.1.1")
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("Clients Are Independent", func(t *testing.T) {
		h := NewIPRateLimiter(ctx, RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}).Handler(okHandler)

		for _, ip := range []string{"41.90.1.1", "41.90.1.2"} {
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			req.Header.Set("X-Forwarded-For", ip)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusOK, rr.Code, ip)
		}
	})

	t.Run("Disabled", func(t *testing.T) {
		h := NewIPRateLimiter(ctx, RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}).Handler(okHandler)

		for i := 0; i < 5; i++ {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		}
	})
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := chimw.RequestID(NewStructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/payments", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"path":"/payments"`)
	assert.Contains(t, out, `"status":502`)
}
