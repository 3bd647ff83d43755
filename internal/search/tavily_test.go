package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krishija/campusintel/internal/config"
	"github.com/krishija/campusintel/internal/metrics"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		TavilyAPIKey:   "test-key",
		TavilyEndpoint: srv.URL,
		SearchRPS:      1000,
		MaxResults:     5,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, metrics.NewCollector(), logger)
}

func TestClient_Search(t *testing.T) {
	var gotReq searchRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{
			Query:  gotReq.Query,
			Answer: "roughly 62% of students live on campus",
			Results: []Result{
				{Title: "Housing", URL: "https://housing.example.edu", Content: "62% on campus", Score: 0.93},
			},
		})
	})

	resp, err := client.Search(context.Background(), "Example University on-campus housing percentage")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotReq.APIKey != "test-key" {
		t.Errorf("api_key = %q", gotReq.APIKey)
	}
	if gotReq.SearchDepth != "basic" {
		t.Errorf("search_depth = %q, want basic", gotReq.SearchDepth)
	}
	if gotReq.MaxResults != 5 {
		t.Errorf("max_results = %d, want 5", gotReq.MaxResults)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://housing.example.edu" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := client.Search(context.Background(), "q")
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not *APIError", err)
			}
			if apiErr.Transient() != tt.wantTransient {
				t.Errorf("Transient() = %v, want %v", apiErr.Transient(), tt.wantTransient)
			}
		})
	}
}

func TestClient_SearchContextCanceled(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Search(ctx, "q"); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestBuildCorpus(t *testing.T) {
	a := &Response{
		Query:  "clubs",
		Answer: "many clubs",
		Results: []Result{
			{Title: "Club list", URL: "https://clubs.example.edu/list", Content: "Cheese Club, Squirrel Watching Society"},
			{Title: "Insta", URL: "https://instagram.com/exampleclubs", Content: "follow us"},
		},
	}
	b := &Response{
		Query: "events",
		Results: []Result{
			{Title: "Club list", URL: "https://clubs.example.edu/list", Content: "duplicate page"},
			{Title: "Calendar", URL: "https://events.example.edu", Content: "Spring Fling on May 2"},
		},
	}

	corpus := BuildCorpus(a, nil, b)
	if corpus.Empty() {
		t.Fatal("corpus should not be empty")
	}
	if len(corpus.Sources) != 2 {
		t.Errorf("sources = %v, want 2 deduped non-social URLs", corpus.Sources)
	}
	for _, s := range corpus.Sources {
		if Blacklisted(s) {
			t.Errorf("blacklisted source survived: %s", s)
		}
	}
}

func TestBuildCorpus_AllFailed(t *testing.T) {
	corpus := BuildCorpus(nil, nil)
	if !corpus.Empty() {
		t.Errorf("corpus from failed responses should be empty, got %q", corpus.Text)
	}
}

func TestRankURLs(t *testing.T) {
	results := []Result{
		{URL: "https://aggregator.com/page", Score: 0.99},
		{URL: "https://www.example.edu/clubs", Score: 0.40},
		{URL: "https://facebook.com/group", Score: 0.95},
		{URL: "https://athletics.example.edu/staff", Score: 0.80},
	}

	got := RankURLs(results)
	want := []string{
		"https://athletics.example.edu/staff",
		"https://www.example.edu/clubs",
		"https://aggregator.com/page",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGuessDomain(t *testing.T) {
	results := []Result{
		{URL: "https://www.example.edu/about"},
		{URL: "https://athletics.example.edu/staff"},
		{URL: "https://other.edu/x"},
		{URL: "https://aggregator.com/example"},
	}
	if got := GuessDomain(results); got != "example.edu" {
		t.Errorf("GuessDomain() = %q, want example.edu", got)
	}
	if got := GuessDomain(nil); got != "" {
		t.Errorf("GuessDomain(nil) = %q, want empty", got)
	}
}
