package feeds

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDedupe(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour
	items := []Item{
		{FeedID: "a", URL: "https://site.example/fresh", Published: now.Add(-2 * 24 * time.Hour)},
		{FeedID: "a", URL: "https://site.example/stale", Published: now.Add(-45 * 24 * time.Hour)},
		{FeedID: "a", URL: "https://site.example/future", Published: now.Add(24 * time.Hour)},
		{FeedID: "a", URL: "https://site.example/undated"},
		{FeedID: "b", URL: "https://site.example/fresh/", Published: now.Add(-3 * 24 * time.Hour)},
		{FeedID: "b", URL: "https://site.example/other", Published: now.Add(-1 * 24 * time.Hour)},
	}

	kept, err := Dedupe(context.Background(), items, window, now, nil)
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}
	if len(kept) != 2 {
		t.Fatalf("kept %d items, want 2: %+v", len(kept), kept)
	}
	if kept[0].URL != "https://site.example/fresh" || kept[1].URL != "https://site.example/other" {
		t.Fatalf("kept = %+v", kept)
	}
}

func TestDedupeStaleExcludedEvenWhenUnseen(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	items := []Item{{URL: "https://site.example/old-news", Published: now.Add(-31 * 24 * time.Hour)}}
	member := func(ctx context.Context, u string) (bool, error) { return false, nil }

	kept, err := Dedupe(context.Background(), items, 30*24*time.Hour, now, member)
	if err != nil {
		t.Fatalf("Dedupe: %v", err)
	}
	if len(kept) != 0 {
		t.Fatalf("kept = %+v, want none outside the window", kept)
	}
}

func TestDedupeMembership(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-24 * time.Hour)
	items := []Item{
		{URL: "https://site.example/known", Published: fresh},
		{URL: "https://site.example/flaky", Published: fresh},
		{URL: "https://site.example/new", Published: fresh},
	}
	member := func(ctx context.Context, u string) (bool, error) {
		switch u {
		case "https://site.example/known":
			return true, nil
		case "https://site.example/flaky":
			return false, errors.New("membership backend down")
		default:
			return false, nil
		}
	}

	kept, err := Dedupe(context.Background(), items, 30*24*time.Hour, now, member)
	if err == nil {
		t.Fatal("Dedupe swallowed the membership failure")
	}
	if len(kept) != 1 || kept[0].URL != "https://site.example/new" {
		t.Fatalf("kept = %+v, want only the new item", kept)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://Site.Example:443/Path/", "https://site.example/Path"},
		{"http://site.example:80/a", "http://site.example/a"},
		{"https://site.example/a#section", "https://site.example/a"},
		{"https://site.example/a?id=7", "https://site.example/a?id=7"},
		{"  https://site.example/a  ", "https://site.example/a"},
		{"https://site.example/", "https://site.example"},
		{"not a url", ""},
		{"", ""},
		{"/relative/only", ""},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
