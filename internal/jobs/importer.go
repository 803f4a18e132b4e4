package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/domain"
	"github.com/tm-robinson/wallabag-tools/internal/logger"
	"github.com/tm-robinson/wallabag-tools/pkg/feeds"
)

// DefaultWindow is how far back feed entries are eligible for import.
const DefaultWindow = 30 * 24 * time.Hour

// Importer pulls fresh items from the configured feeds into wallabag.
type Importer struct {
	client  EntryClient
	fetcher FeedFetcher
	store   SeenStore
	feeds   []feeds.Feed
	window  time.Duration
	dryRun  bool
	log     logger.Logger
	now     func() time.Time
}

// ImporterConfig carries the knobs for an importer run.
type ImporterConfig struct {
	Feeds  []feeds.Feed
	Window time.Duration
	DryRun bool
}

// NewImporter wires an importer over the given collaborators.
func NewImporter(client EntryClient, fetcher FeedFetcher, store SeenStore, cfg ImporterConfig, log logger.Logger) *Importer {
	if log == nil {
		log = logger.NopLogger()
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Importer{
		client:  client,
		fetcher: fetcher,
		store:   store,
		feeds:   cfg.Feeds,
		window:  window,
		dryRun:  cfg.DryRun,
		log:     log,
		now:     time.Now,
	}
}

// Name implements Job.
func (im *Importer) Name() string { return NameImporter }

// Run fetches every configured feed, deduplicates the union, and creates a
// wallabag entry per surviving item. One feed failing never aborts the
// others.
func (im *Importer) Run(ctx context.Context) (Summary, error) {
	sum := Summary{Job: NameImporter, DryRun: im.dryRun, StartedAt: im.now()}

	if len(im.feeds) == 0 {
		sum.FinishedAt = im.now()
		return sum, errors.New("no feeds configured")
	}

	var collected []feeds.Item
	tagsByFeed := make(map[string][]string, len(im.feeds))
	for _, feed := range im.feeds {
		tagsByFeed[feed.ID] = feed.Tags

		items, err := im.fetcher.Fetch(ctx, feed)
		if err != nil {
			sum.Failed++
			sum.note("feed %s failed: %v", feed.ID, err)
			im.log.Errorw("feed fetch failed", "feed_id", feed.ID, "error", err)
			continue
		}
		im.log.Debugw("feed fetched", "feed_id", feed.ID, "items", len(items))
		collected = append(collected, items...)
	}

	sum.Processed = len(collected)

	fresh, err := feeds.Dedupe(ctx, collected, im.window, im.now(), im.member)
	if err != nil {
		// Failed membership lookups already excluded the affected items.
		sum.note("some membership checks failed, affected items not imported")
		im.log.Warnw("membership checks failed", "error", err)
	}
	sum.Skipped = sum.Processed - len(fresh)

	for _, item := range fresh {
		tags := withRSSTag(tagsByFeed[item.FeedID])

		if im.dryRun {
			sum.Changed++
			im.log.Infow("would import entry", "feed_id", item.FeedID, "url", item.URL)
			continue
		}

		if _, err := im.client.CreateEntry(ctx, item.URL, tags); err != nil {
			sum.Failed++
			im.log.Errorw("create entry", "feed_id", item.FeedID, "url", item.URL, "error", err)
			continue
		}
		if err := im.store.MarkURL(ctx, feeds.NormalizeURL(item.URL)); err != nil {
			im.log.Warnw("mark imported url", "url", item.URL, "error", err)
		}
		sum.Changed++
		im.log.Debugw("imported entry", "feed_id", item.FeedID, "url", item.URL)
	}

	sum.FinishedAt = im.now()
	return sum, nil
}

// member reports whether a URL was already imported, consulting the local
// store before asking wallabag.
func (im *Importer) member(ctx context.Context, normalizedURL string) (bool, error) {
	seen, err := im.store.SeenURL(ctx, normalizedURL)
	if err != nil {
		return false, fmt.Errorf("store lookup: %w", err)
	}
	if seen {
		return true, nil
	}

	exists, _, err := im.client.EntryExists(ctx, normalizedURL)
	if err != nil {
		return false, fmt.Errorf("exists lookup: %w", err)
	}
	return exists, nil
}

// withRSSTag prepends the rss label unless the feed tags already carry it.
func withRSSTag(tags []string) []string {
	for _, t := range tags {
		if t == string(domain.LabelRSS) {
			return tags
		}
	}
	return append([]string{string(domain.LabelRSS)}, tags...)
}
