package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tm-robinson/wallabag-tools/pkg/httpclient"
)

const acceptFeeds = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

// Fetcher downloads and parses configured feeds over the shared HTTP client.
type Fetcher struct {
	client httpclient.Client
}

// NewFetcher builds a Fetcher. A nil client falls back to the default one.
func NewFetcher(client httpclient.Client) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	return &Fetcher{client: client}
}

// Fetch retrieves one feed and returns its parsed items, each stamped with
// the feed's id. Any failure here covers the whole feed; callers skip the
// feed and carry on with the rest.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]Item, error) {
	if strings.TrimSpace(feed.URL) == "" {
		return nil, fmt.Errorf("feed %q has no URL", feed.ID)
	}

	resp, err := f.client.Get(ctx, feed.URL, map[string]string{"Accept": acceptFeeds})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %q: %w", feed.ID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("feed %q returned status %d body: %s", feed.ID, resp.StatusCode(), responseSnippet(body))
	}

	items, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %q: %w", feed.ID, err)
	}
	for i := range items {
		items[i].FeedID = feed.ID
	}
	return items, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
