package serp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ktanabe/askrag/internal/infrastructure/resilience"
)

func TestSearchParsesOrganicResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("engine"); got != "google" {
			t.Fatalf("unexpected engine %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "golang rag" {
			t.Fatalf("unexpected query %q", got)
		}
		_, _ = w.Write([]byte(`{"organic_results":[
			{"position":1,"title":"First","link":"https://a.example/one","snippet":"s1"},
			{"position":2,"title":"Second","link":"https://b.example/two","snippet":"s2"}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", nil)
	hits, err := client.Search(context.Background(), "golang rag", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Rank != 1 || hits[1].Rank != 2 {
		t.Fatalf("ranks not sequential: %+v", hits)
	}
	if hits[0].Title != "First" || hits[0].URL != "https://a.example/one" {
		t.Fatalf("result not mapped: %+v", hits[0])
	}
}

func TestSearchDeduplicatesAndCapsPerDomain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic_results":[
			{"position":1,"title":"A1","link":"https://a.example/page"},
			{"position":2,"title":"A1 again","link":"https://a.example/page?utm=x"},
			{"position":3,"title":"A2","link":"https://a.example/other"},
			{"position":4,"title":"A3","link":"https://a.example/third"},
			{"position":5,"title":"B1","link":"https://b.example/page"}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "key", nil)
	hits, err := client.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	// duplicate path dropped, third a.example result dropped by the cap
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].URL != "https://a.example/page" || hits[1].URL != "https://a.example/other" || hits[2].URL != "https://b.example/page" {
		t.Fatalf("unexpected survivors: %+v", hits)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"organic_results":[{"position":1,"title":"T","link":"https://a.example/p"}]}`))
	}))
	defer server.Close()

	runner := resilience.NewRunner(resilience.Policy{
		Retry: resilience.RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2.0,
		},
	})
	client := New(server.URL, "key", runner)

	hits, err := client.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}
