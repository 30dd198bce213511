package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"spec-scraper/pkg/config"
	"spec-scraper/pkg/utils"
)

// testConfig returns an AppConfig with fast retry delays for testing
func testConfig(maxRetries int) *config.AppConfig {
	return &config.AppConfig{
		MaxRetries:        maxRetries,
		InitialRetryDelay: 10 * time.Millisecond,
		MaxRetryDelay:     50 * time.Millisecond,
	}
}

// testLogger returns a logger that discards output
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockServer creates an httptest.Server that returns status codes in sequence.
// Returns the server and an atomic counter tracking request attempts.
func mockServer(t *testing.T, statusCodes []int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attemptCount := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attemptCount.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1 // repeat last status
		}
		w.WriteHeader(statusCodes[idx])
		if statusCodes[idx] == http.StatusOK {
			io.WriteString(w, "<html><body>ok</body></html>")
		}
	}))
	t.Cleanup(server.Close)
	return server, attemptCount
}

func newTestFetcher(maxRetries int) *Fetcher {
	return NewFetcher(&http.Client{Timeout: 30 * time.Second}, testConfig(maxRetries), testLogger())
}

func TestFetchWithRetry_Success(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusOK})
	f := newTestFetcher(3)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := f.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ServerError_RetrySuccess(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusOK})
	f := newTestFetcher(3)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := f.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected eventual success, got error: %v", err)
	}
	defer resp.Body.Close()

	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ServerError_AllRetriesFail(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusInternalServerError})
	f := newTestFetcher(2)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := f.FetchWithRetry(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error after exhausted retries")
	}
	if !errors.Is(err, utils.ErrRetryFailed) {
		t.Errorf("Expected ErrRetryFailed, got: %v", err)
	}
	if !errors.Is(err, utils.ErrServerHTTPError) {
		t.Errorf("Expected wrapped ErrServerHTTPError, got: %v", err)
	}
	if attempts.Load() != 3 { // initial + 2 retries
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_RateLimit_RetrySuccess(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusTooManyRequests, http.StatusOK})
	f := newTestFetcher(3)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := f.FetchWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected eventual success, got error: %v", err)
	}
	defer resp.Body.Close()

	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ClientError_NoRetry(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusNotFound})
	f := newTestFetcher(3)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := f.FetchWithRetry(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if !errors.Is(err, utils.ErrClientHTTPError) {
		t.Errorf("Expected ErrClientHTTPError, got: %v", err)
	}
	if resp == nil {
		t.Fatal("Expected response alongside 4xx error")
	}
	resp.Body.Close()

	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt (no retry on 4xx), got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ContextCancelled_BeforeAttempt(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusOK})
	f := newTestFetcher(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := f.FetchWithRetry(ctx, req)
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if attempts.Load() != 0 {
		t.Errorf("Expected 0 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_ZeroRetries(t *testing.T) {
	server, attempts := mockServer(t, []int{http.StatusInternalServerError})
	f := newTestFetcher(0)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := f.FetchWithRetry(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected exactly 1 attempt with zero retries, got %d", attempts.Load())
	}
}

func TestFetchPage(t *testing.T) {
	server, _ := mockServer(t, []int{http.StatusOK})
	f := newTestFetcher(1)

	result, err := f.FetchPage(context.Background(), server.URL, "test-agent/1.0")
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if len(result.Body) == 0 {
		t.Error("Expected non-empty body")
	}
	if result.FinalURL == "" {
		t.Error("Expected final URL to be set")
	}
}

func TestFetchPage_FollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>final</body></html>")
	}))
	t.Cleanup(target.Close)

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusMovedPermanently)
	}))
	t.Cleanup(redirector.Close)

	f := newTestFetcher(1)
	result, err := f.FetchPage(context.Background(), redirector.URL, "test-agent/1.0")
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if result.FinalURL != target.URL {
		t.Errorf("Expected final URL %s, got %s", target.URL, result.FinalURL)
	}
}
