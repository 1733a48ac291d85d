package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSONSendsHeadersAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movies/popular" {
			t.Errorf("Expected path /movies/popular, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("years"); got != "2015" {
			t.Errorf("Expected years=2015, got %s", got)
		}
		if got := r.Header.Get("trakt-api-key"); got != "abc" {
			t.Errorf("Expected trakt-api-key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	c := New(server.URL+"/", Options{Headers: map[string]string{"trakt-api-key": "abc"}})

	var out struct {
		Name string `json:"name"`
	}
	err := c.GetJSON(context.Background(), "/movies/popular", url.Values{"years": {"2015"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != "ok" {
		t.Errorf("Expected name ok, got %q", out.Name)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL, Options{MaxRetries: 3, RetryDelayBase: time.Millisecond})

	var out map[string]interface{}
	if err := c.GetJSON(context.Background(), "/x", nil, &out); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 calls, got %d", got)
	}
}

func TestGetJSONNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	c := New(server.URL, Options{MaxRetries: 3, RetryDelayBase: time.Millisecond})

	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/x", nil, &out)
	if !IsNotFound(err) {
		t.Fatalf("Expected not found error, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Body != "missing" {
		t.Errorf("Expected body to be captured, got %+v", se)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 call, got %d", got)
	}
}

func TestGetJSONThrottles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	interval := 20 * time.Millisecond
	c := New(server.URL, Options{Interval: interval})

	start := time.Now()
	for i := 0; i < 4; i++ {
		var out map[string]interface{}
		if err := c.GetJSON(context.Background(), "/x", nil, &out); err != nil {
			t.Fatalf("GetJSON failed: %v", err)
		}
	}
	// first request uses the burst token, the remaining three wait
	if elapsed := time.Since(start); elapsed < 3*interval {
		t.Errorf("4 requests took %v, expected at least %v", elapsed, 3*interval)
	}
}

func TestGetJSONCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL, Options{Interval: time.Hour})
	var out map[string]interface{}
	// consume the burst token
	if err := c.GetJSON(context.Background(), "/x", nil, &out); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := c.GetJSON(ctx, "/x", nil, &out); err == nil {
		t.Fatal("expected limiter wait to fail on a short deadline")
	}
}
