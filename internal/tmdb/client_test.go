package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeywords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/27205/keywords" {
			t.Errorf("Expected path /movie/27205/keywords, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":27205,"keywords":[{"id":1014,"name":"dream"},{"id":2343,"name":"heist"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "token", ClientConfig{Timeout: 5 * time.Second})
	keywords, err := c.Keywords(context.Background(), 27205)
	if err != nil {
		t.Fatalf("Keywords failed: %v", err)
	}
	if len(keywords) != 2 {
		t.Fatalf("Expected 2 keywords, got %d", len(keywords))
	}
	if keywords[1].ID != 2343 || keywords[1].Name != "heist" {
		t.Errorf("Unexpected keyword: %+v", keywords[1])
	}
}

func TestKeywordsNotFound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"status_code":34}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "token", ClientConfig{MaxRetries: 3, RetryDelayBase: time.Millisecond})
	keywords, err := c.Keywords(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected 404 to yield no error, got %v", err)
	}
	if keywords == nil || len(keywords) != 0 {
		t.Errorf("Expected empty keyword list, got %v", keywords)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected a single request, got %d", calls)
	}
}

func TestKeywordsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL, "token", ClientConfig{MaxRetries: 2, RetryDelayBase: time.Millisecond})
	if _, err := c.Keywords(context.Background(), 1); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
}

func TestKeywordsNullList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5}`))
	}))
	defer server.Close()

	keywords, err := NewClient(server.URL, "token", ClientConfig{}).Keywords(context.Background(), 5)
	if err != nil {
		t.Fatalf("Keywords failed: %v", err)
	}
	if keywords == nil {
		t.Error("Expected non-nil empty slice")
	}
}
