package triage

import (
	"errors"
	"testing"
	"time"

	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

func intp(v int) *int { return &v }

func TestExtract(t *testing.T) {
	entry := wallabag.Entry{
		ID:          12,
		URL:         "https://News.Example.com:8443/story?id=9",
		Title:       "  A story  ",
		CreatedAt:   "2026-03-01T08:30:00+0100",
		Pages:       intp(4),
		Size:        intp(20480),
		ReadingTime: intp(6),
		IsArchived:  1,
		Tags:        []wallabag.Tag{{ID: 1, Label: "keep"}, {ID: 2, Label: "old"}},
	}
	article, err := Extract(entry)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.ID != 12 {
		t.Errorf("ID = %d, want 12", article.ID)
	}
	if article.Host != "news.example.com" {
		t.Errorf("Host = %q, want lowercased host without port", article.Host)
	}
	if article.Title != "A story" {
		t.Errorf("Title = %q, want trimmed", article.Title)
	}
	want := time.Date(2026, 3, 1, 8, 30, 0, 0, time.FixedZone("", 3600))
	if !article.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", article.CreatedAt, want)
	}
	if !article.Archived {
		t.Errorf("Archived = false, want true")
	}
	if len(article.Tags) != 2 || article.Tags[1] != "old" {
		t.Errorf("Tags = %v", article.Tags)
	}
	if article.Pages == nil || *article.Pages != 4 {
		t.Errorf("Pages = %v, want 4", article.Pages)
	}
}

func TestExtractURLFallback(t *testing.T) {
	entry := wallabag.Entry{
		ID:        5,
		GivenURL:  "https://fallback.example/item",
		CreatedAt: "2026-01-02T10:00:00+0000",
	}
	article, err := Extract(entry)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.URL != "https://fallback.example/item" {
		t.Errorf("URL = %q, want given_url fallback", article.URL)
	}
	if article.Host != "fallback.example" {
		t.Errorf("Host = %q", article.Host)
	}
}

func TestExtractRFC3339Timestamp(t *testing.T) {
	entry := wallabag.Entry{
		ID:        6,
		URL:       "https://a.example/x",
		CreatedAt: "2026-01-02T10:00:00Z",
	}
	article, err := Extract(entry)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	if !article.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", article.CreatedAt, want)
	}
}

func TestExtractAbsentQualityFieldsStayNil(t *testing.T) {
	entry := wallabag.Entry{
		ID:        7,
		URL:       "https://a.example/x",
		CreatedAt: "2026-01-02T10:00:00+0000",
	}
	article, err := Extract(entry)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if article.Pages != nil || article.SizeBytes != nil || article.ReadingTime != nil {
		t.Errorf("absent quality fields decoded non-nil: %+v", article)
	}
}

func TestExtractMalformed(t *testing.T) {
	cases := []struct {
		name  string
		entry wallabag.Entry
	}{
		{"no id", wallabag.Entry{URL: "https://a.example/x", CreatedAt: "2026-01-02T10:00:00+0000"}},
		{"no url", wallabag.Entry{ID: 1, CreatedAt: "2026-01-02T10:00:00+0000"}},
		{"relative url", wallabag.Entry{ID: 1, URL: "/no-host", CreatedAt: "2026-01-02T10:00:00+0000"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Extract(tc.entry); !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("err = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestExtractBadTimestampDegradesToAbsent(t *testing.T) {
	for _, createdAt := range []string{"", "yesterday", "2026-13-99T99:99:99+0000"} {
		article, err := Extract(wallabag.Entry{ID: 1, URL: "https://a.example/x", CreatedAt: createdAt})
		if err != nil {
			t.Fatalf("Extract(created_at=%q): %v", createdAt, err)
		}
		if !article.CreatedAt.IsZero() {
			t.Errorf("CreatedAt for %q = %v, want zero", createdAt, article.CreatedAt)
		}
	}
}
