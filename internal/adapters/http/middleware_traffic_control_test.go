package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler, _ := newTestHandler(Options{RateLimitRPS: 1, RateLimitBurst: 1})

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if !strings.Contains(second.Body.String(), "error") {
		t.Fatalf("expected json error body, got %q", second.Body.String())
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	slow := httptest.NewRecorder()
	go func() {
		defer wg.Done()
		handler.ServeHTTP(slow, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	}()
	<-entered

	rejected := httptest.NewRecorder()
	handler.ServeHTTP(rejected, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rejected.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rejected.Code)
	}
	if !strings.Contains(rejected.Body.String(), "error") {
		t.Fatalf("expected json error body, got %q", rejected.Body.String())
	}

	close(release)
	wg.Wait()
	if slow.Code != http.StatusNoContent {
		t.Fatalf("expected queued request to complete with 204, got %d", slow.Code)
	}
}

func TestRequestIDMiddlewarePreservesIncomingID(t *testing.T) {
	handler, _ := newTestHandler(Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-abc" {
		t.Fatalf("expected incoming request id preserved, got %q", got)
	}
}
