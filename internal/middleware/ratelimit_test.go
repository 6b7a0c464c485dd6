package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiterMiddleware(rate.Limit(0.001), 2)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/subscriptions", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	t.Run("burst then limited", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("10.0.0.1:5000", ""))
		assert.Equal(t, http.StatusOK, do("10.0.0.1:5001", ""))
		assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:5002", ""))
	})

	t.Run("clients are limited separately", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("10.0.0.2:5000", ""))
	})

	t.Run("forwarded header wins", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("10.0.0.1:5000", "192.168.1.9, 10.0.0.1"))
		assert.Equal(t, http.StatusOK, do("10.0.0.1:5000", "192.168.1.9"))
		assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.3:5000", "192.168.1.9"))
	})
}
