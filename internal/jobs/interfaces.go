package jobs

import (
	"context"

	"github.com/tm-robinson/wallabag-tools/pkg/feeds"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

// EntryClient is the slice of the wallabag API the jobs depend on.
// *wallabag.Client satisfies it.
type EntryClient interface {
	ListEntries(ctx context.Context, opts wallabag.ListOptions) ([]wallabag.Entry, error)
	AddTags(ctx context.Context, id int, tags []string) error
	RemoveTag(ctx context.Context, id int, label string) error
	CreateEntry(ctx context.Context, rawURL string, tags []string) (*wallabag.Entry, error)
	DeleteEntry(ctx context.Context, id int) error
	EntryExists(ctx context.Context, rawURL string) (bool, int, error)
}

// FeedFetcher retrieves and parses one configured feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feed feeds.Feed) ([]feeds.Item, error)
}

// SnapshotFinder locates an archived copy of a page, if one can be had.
type SnapshotFinder interface {
	FindArchivedCopy(ctx context.Context, pageURL string) (string, bool, error)
}

// SeenStore remembers which normalized URLs have already been imported.
type SeenStore interface {
	SeenURL(ctx context.Context, url string) (bool, error)
	MarkURL(ctx context.Context, url string) error
}
