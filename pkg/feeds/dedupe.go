package feeds

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Membership reports whether a normalized URL was already imported.
type Membership func(ctx context.Context, normalizedURL string) (bool, error)

// Dedupe filters items down to the ones worth importing: published within
// the window, not dated in the future, not already imported, and unique
// across all input feeds. Items with no parseable published time are
// dropped outright; importing blind is worse than importing late. A
// failing membership check also drops its item, and the failures come
// back joined so the caller can report them without losing the rest of
// the batch.
func Dedupe(ctx context.Context, items []Item, window time.Duration, now time.Time, member Membership) ([]Item, error) {
	cutoff := now.Add(-window)
	seen := make(map[string]struct{}, len(items))
	var kept []Item
	var errs []error

	for _, item := range items {
		if item.Published.IsZero() {
			continue
		}
		if item.Published.Before(cutoff) || item.Published.After(now) {
			continue
		}
		key := NormalizeURL(item.URL)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if member != nil {
			imported, err := member(ctx, key)
			if err != nil {
				errs = append(errs, fmt.Errorf("membership check for %s: %w", item.URL, err))
				continue
			}
			if imported {
				continue
			}
		}
		kept = append(kept, item)
	}
	return kept, errors.Join(errs...)
}

// NormalizeURL produces the canonical form used for dedupe and membership
// checks: lowercased scheme and host, default ports, fragments and
// trailing slashes stripped. The query survives because plenty of sites
// key articles on it. Anything unparseable normalizes to "".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	switch {
	case parsed.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case parsed.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	parsed.Host = host
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}
