package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rateLimitedHandler(limiter *IPRateLimiter) http.Handler {
	return RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doRequest(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	limiter := NewIPRateLimiter(3, time.Minute, testLog())
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter)

	for i := 0; i < 3; i++ {
		if code := doRequest(handler, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute, testLog())
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter)

	doRequest(handler, "10.0.0.1:1234")
	doRequest(handler, "10.0.0.1:1234")

	if code := doRequest(handler, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 over the limit, got %d", code)
	}
}

func TestRateLimitIsPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, testLog())
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter)

	if code := doRequest(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("expected first client to pass, got %d", code)
	}
	if code := doRequest(handler, "10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("expected a different client to pass, got %d", code)
	}
	if code := doRequest(handler, "10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("expected the same IP on a new port to be limited, got %d", code)
	}
}

func TestRateLimitWindowSlides(t *testing.T) {
	limiter := NewIPRateLimiter(1, 50*time.Millisecond, testLog())
	defer limiter.Stop()
	handler := rateLimitedHandler(limiter)

	if code := doRequest(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := doRequest(handler, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", code)
	}

	time.Sleep(60 * time.Millisecond)

	if code := doRequest(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("expected the window to have slid, got %d", code)
	}
}
