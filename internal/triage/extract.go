// Package triage turns raw wallabag entries into classifiable articles,
// decides which maintenance labels each one should carry, and computes
// the tag changes needed to get there.
package triage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/domain"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

// ErrMalformedRecord marks an entry missing a field classification cannot
// go on without. Callers skip the entry and keep the run alive.
var ErrMalformedRecord = errors.New("malformed entry")

// createdAtLayout matches wallabag timestamps, which carry a zone offset
// without a colon.
const createdAtLayout = "2006-01-02T15:04:05-0700"

// Extract builds an Article from a raw wallabag entry. Entries without an
// id or a usable URL fail with ErrMalformedRecord; every other field
// degrades to absent. Quality fields stay pointers so an absent field is
// never mistaken for a reported zero, and an unparseable creation time
// becomes the zero time rather than an error.
func Extract(entry wallabag.Entry) (domain.Article, error) {
	if entry.ID <= 0 {
		return domain.Article{}, fmt.Errorf("%w: entry has no id", ErrMalformedRecord)
	}
	rawURL := firstNonEmpty(entry.URL, entry.GivenURL, entry.OriginURL)
	if rawURL == "" {
		return domain.Article{}, fmt.Errorf("%w: entry %d has no URL", ErrMalformedRecord, entry.ID)
	}
	host, err := hostOf(rawURL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: entry %d URL %q: %v", ErrMalformedRecord, entry.ID, rawURL, err)
	}

	tags := make([]string, 0, len(entry.Tags))
	for _, t := range entry.Tags {
		tags = append(tags, t.Label)
	}
	return domain.Article{
		ID:          entry.ID,
		URL:         rawURL,
		Host:        host,
		Title:       strings.TrimSpace(entry.Title),
		CreatedAt:   parseCreatedAt(entry.CreatedAt),
		Pages:       entry.Pages,
		SizeBytes:   entry.Size,
		ReadingTime: entry.ReadingTime,
		Archived:    entry.IsArchived != 0,
		Tags:        tags,
	}, nil
}

func parseCreatedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(createdAtLayout, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", errors.New("URL has no host")
	}
	return host, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
