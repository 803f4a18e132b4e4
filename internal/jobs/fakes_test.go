package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/tm-robinson/wallabag-tools/pkg/feeds"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

// fakeEntryClient is an in-memory wallabag. Tag and entry mutations are
// applied to its state so re-run tests observe the updated remote.
type fakeEntryClient struct {
	entries []wallabag.Entry
	listErr error

	addCalls    map[int][][]string
	addErr      map[int]error
	removeCalls map[int][]string
	removeErr   map[int]error

	createdURLs []string
	createdTags map[string][]string
	createResp  map[string]*wallabag.Entry
	createErr   map[string]error

	deleted   []int
	deleteErr map[int]error

	exists    map[string]bool
	existsErr map[string]error

	// ops records mutating calls in order, as "verb:target".
	ops []string

	nextTagID int
	nextID    int
}

func newFakeEntryClient(entries ...wallabag.Entry) *fakeEntryClient {
	return &fakeEntryClient{
		entries:     entries,
		addCalls:    make(map[int][][]string),
		addErr:      make(map[int]error),
		removeCalls: make(map[int][]string),
		removeErr:   make(map[int]error),
		createdTags: make(map[string][]string),
		createResp:  make(map[string]*wallabag.Entry),
		createErr:   make(map[string]error),
		deleteErr:   make(map[int]error),
		exists:      make(map[string]bool),
		existsErr:   make(map[string]error),
		nextTagID:   100,
		nextID:      1000,
	}
}

func (f *fakeEntryClient) ListEntries(_ context.Context, opts wallabag.ListOptions) ([]wallabag.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if !opts.Unread {
		return append([]wallabag.Entry(nil), f.entries...), nil
	}
	out := make([]wallabag.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.IsArchived == 0 {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryClient) AddTags(_ context.Context, id int, tags []string) error {
	if err := f.addErr[id]; err != nil {
		return err
	}
	f.ops = append(f.ops, fmt.Sprintf("add:%d", id))
	f.addCalls[id] = append(f.addCalls[id], tags)
	for i := range f.entries {
		if f.entries[i].ID != id {
			continue
		}
		for _, tag := range tags {
			if entryHasTag(f.entries[i], tag) {
				continue
			}
			f.nextTagID++
			f.entries[i].Tags = append(f.entries[i].Tags, wallabag.Tag{ID: f.nextTagID, Label: tag})
		}
	}
	return nil
}

func (f *fakeEntryClient) RemoveTag(_ context.Context, id int, label string) error {
	if err := f.removeErr[id]; err != nil {
		return err
	}
	f.ops = append(f.ops, fmt.Sprintf("remove:%d", id))
	f.removeCalls[id] = append(f.removeCalls[id], label)
	for i := range f.entries {
		if f.entries[i].ID != id {
			continue
		}
		kept := f.entries[i].Tags[:0]
		for _, tag := range f.entries[i].Tags {
			if !strings.EqualFold(tag.Label, label) {
				kept = append(kept, tag)
			}
		}
		f.entries[i].Tags = kept
	}
	return nil
}

func (f *fakeEntryClient) CreateEntry(_ context.Context, rawURL string, tags []string) (*wallabag.Entry, error) {
	if err := f.createErr[rawURL]; err != nil {
		return nil, err
	}
	f.ops = append(f.ops, "create:"+rawURL)
	f.createdURLs = append(f.createdURLs, rawURL)
	f.createdTags[rawURL] = tags
	if resp, ok := f.createResp[rawURL]; ok {
		return resp, nil
	}
	f.nextID++
	return &wallabag.Entry{ID: f.nextID, URL: rawURL}, nil
}

func (f *fakeEntryClient) DeleteEntry(_ context.Context, id int) error {
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	f.ops = append(f.ops, fmt.Sprintf("delete:%d", id))
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEntryClient) EntryExists(_ context.Context, rawURL string) (bool, int, error) {
	if err := f.existsErr[rawURL]; err != nil {
		return false, 0, err
	}
	if f.exists[rawURL] {
		return true, 1, nil
	}
	return false, 0, nil
}

func entryHasTag(e wallabag.Entry, label string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t.Label, label) {
			return true
		}
	}
	return false
}

// fakeFetcher returns canned items per feed id.
type fakeFetcher struct {
	items map[string][]feeds.Item
	errs  map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, feed feeds.Feed) ([]feeds.Item, error) {
	if err := f.errs[feed.ID]; err != nil {
		return nil, err
	}
	items := f.items[feed.ID]
	out := make([]feeds.Item, len(items))
	for i, it := range items {
		it.FeedID = feed.ID
		out[i] = it
	}
	return out, nil
}

// fakeFinder returns canned snapshots per page URL.
type fakeFinder struct {
	snapshots map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeFinder) FindArchivedCopy(_ context.Context, pageURL string) (string, bool, error) {
	f.calls = append(f.calls, pageURL)
	if err := f.errs[pageURL]; err != nil {
		return "", false, err
	}
	snap, ok := f.snapshots[pageURL]
	return snap, ok, nil
}

// fakeStore is an in-memory SeenStore.
type fakeStore struct {
	seen    map[string]bool
	marked  []string
	seenErr map[string]error
	markErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool), seenErr: make(map[string]error)}
}

func (f *fakeStore) SeenURL(_ context.Context, url string) (bool, error) {
	if err := f.seenErr[url]; err != nil {
		return false, err
	}
	return f.seen[url], nil
}

func (f *fakeStore) MarkURL(_ context.Context, url string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.seen[url] = true
	f.marked = append(f.marked, url)
	return nil
}
