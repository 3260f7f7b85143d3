package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(10, 5) // 10 per minute, burst of 5

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow("203.0.113.1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow("203.0.113.1") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentClients(t *testing.T) {
	rl := NewRateLimiter(10, 3)

	// Exhaust the first client's burst
	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.1") {
			t.Errorf("Client 1 request %d should be allowed", i+1)
		}
	}
	if rl.Allow("203.0.113.1") {
		t.Error("Client 1 should be rate limited")
	}

	// A different client still has its full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.2") {
			t.Errorf("Client 2 request %d should be allowed", i+1)
		}
	}
}

func TestRateLimitMiddleware_Returns429(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiter(1, 1)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}
	limited := rl.Limit()(handler)

	// First request passes
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := limited(c); err != nil {
		t.Fatalf("first request error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", rec.Code)
	}

	// Second request from the same address is rejected
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	if err := limited(c); err != nil {
		t.Fatalf("second request error = %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/problem+json" {
		t.Errorf("content type = %q, want application/problem+json", ct)
	}
	if retry := rec.Header().Get(echo.HeaderRetryAfter); retry == "" {
		t.Error("Retry-After header missing on 429 response")
	}
}
