package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); !strings.Contains(got, "application/rss+xml") {
			t.Errorf("Accept = %q, want feed types", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	fetcher := NewFetcher(nil)
	items, err := fetcher.Fetch(context.Background(), Feed{ID: "blog", URL: srv.URL + "/feed"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	for _, item := range items {
		if item.FeedID != "blog" {
			t.Errorf("item %q FeedID = %q, want blog", item.URL, item.FeedID)
		}
	}
}

func TestFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewFetcher(nil)
	_, err := fetcher.Fetch(context.Background(), Feed{ID: "blog", URL: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("err = %v, want status 404", err)
	}
}

func TestFetcherParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not a feed</body></html>"))
	}))
	defer srv.Close()

	fetcher := NewFetcher(nil)
	_, err := fetcher.Fetch(context.Background(), Feed{ID: "blog", URL: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "parse feed") {
		t.Fatalf("err = %v, want parse failure", err)
	}
}

func TestFetcherEmptyURL(t *testing.T) {
	fetcher := NewFetcher(nil)
	if _, err := fetcher.Fetch(context.Background(), Feed{ID: "blog"}); err == nil {
		t.Fatal("Fetch accepted a feed without a URL")
	}
}
