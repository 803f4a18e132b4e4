package jobs

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tm-robinson/wallabag-tools/internal/logger"
	"github.com/tm-robinson/wallabag-tools/pkg/wallabag"
)

func paywalledEntry(id int, url string, readingTime *int) wallabag.Entry {
	return wallabag.Entry{
		ID:          id,
		URL:         url,
		CreatedAt:   wallabagTime(testNow.Add(-24 * time.Hour)),
		ReadingTime: readingTime,
	}
}

func newTestArchiver(client *fakeEntryClient, finder *fakeFinder, dryRun bool) *Archiver {
	arc := NewArchiver(client, finder, ArchiverConfig{
		PaywalledHosts: []string{"wsj.com", "ft.com"},
		MaxReadingTime: 2,
		DryRun:         dryRun,
	}, logger.NopLogger())
	arc.now = func() time.Time { return testNow }
	return arc
}

func TestArchiverReplacesShortPaywalledArticle(t *testing.T) {
	teaser := "https://www.wsj.com/articles/short-teaser"
	snapshot := "https://archive.ph/AbCdE"

	read := paywalledEntry(6, "https://www.wsj.com/articles/done", intp(1))
	read.IsArchived = 1

	client := newFakeEntryClient(
		paywalledEntry(1, teaser, intp(1)),
		paywalledEntry(2, "https://www.ft.com/content/long", intp(10)),
		paywalledEntry(3, "https://example.com/free", intp(1)),
		paywalledEntry(4, "https://wsj.com/articles/unknown-length", nil),
		paywalledEntry(5, "https://notwsj.com/lookalike", intp(1)),
		read,
	)
	client.createResp[snapshot] = &wallabag.Entry{ID: 2001, URL: snapshot, ReadingTime: intp(8)}
	finder := &fakeFinder{snapshots: map[string]string{teaser: snapshot}}

	arc := newTestArchiver(client, finder, false)
	sum, err := arc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 5 || sum.Changed != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if !reflect.DeepEqual(finder.calls, []string{teaser}) {
		t.Fatalf("lookups = %v, only the short paywalled entry qualifies", finder.calls)
	}
	if got := client.createdTags[snapshot]; !reflect.DeepEqual(got, []string{"archived"}) {
		t.Fatalf("created tags = %v", got)
	}
	if !reflect.DeepEqual(client.ops, []string{"create:" + snapshot, "delete:1"}) {
		t.Fatalf("ops = %v, want create before delete", client.ops)
	}
}

func TestArchiverCreateFailureSkipsDelete(t *testing.T) {
	teaser := "https://www.wsj.com/articles/short-teaser"
	snapshot := "https://archive.ph/AbCdE"

	client := newFakeEntryClient(paywalledEntry(1, teaser, intp(1)))
	client.createErr[snapshot] = errors.New("502")
	finder := &fakeFinder{snapshots: map[string]string{teaser: snapshot}}

	arc := newTestArchiver(client, finder, false)
	sum, err := arc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Changed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(client.deleted) != 0 {
		t.Fatalf("delete must not run after a failed create: %v", client.deleted)
	}
}

func TestArchiverThinCopyKeepsOriginal(t *testing.T) {
	teaser := "https://www.wsj.com/articles/short-teaser"
	snapshot := "https://archive.ph/AbCdE"

	client := newFakeEntryClient(paywalledEntry(1, teaser, intp(1)))
	client.createResp[snapshot] = &wallabag.Entry{ID: 2001, URL: snapshot, ReadingTime: intp(1)}
	finder := &fakeFinder{snapshots: map[string]string{teaser: snapshot}}

	arc := newTestArchiver(client, finder, false)
	sum, err := arc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Changed != 0 || sum.Skipped != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(client.deleted) != 0 {
		t.Fatalf("thin copy must keep the original: %v", client.deleted)
	}
	if len(sum.Notes) == 0 || !strings.Contains(sum.Notes[0], "keeping both") {
		t.Fatalf("notes = %v", sum.Notes)
	}
}

func TestArchiverUnknownCopyLengthKeepsOriginal(t *testing.T) {
	teaser := "https://www.wsj.com/articles/short-teaser"
	snapshot := "https://archive.ph/AbCdE"

	client := newFakeEntryClient(paywalledEntry(1, teaser, intp(1)))
	client.createResp[snapshot] = &wallabag.Entry{ID: 2001, URL: snapshot}
	finder := &fakeFinder{snapshots: map[string]string{teaser: snapshot}}

	arc := newTestArchiver(client, finder, false)
	if _, err := arc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(client.deleted) != 0 {
		t.Fatalf("missing reading time on the copy must keep the original")
	}
}

func TestArchiverNoSnapshotSkips(t *testing.T) {
	client := newFakeEntryClient(paywalledEntry(1, "https://www.wsj.com/articles/x", intp(1)))
	finder := &fakeFinder{}

	arc := newTestArchiver(client, finder, false)
	sum, err := arc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 1 || sum.Changed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(client.createdURLs) != 0 {
		t.Fatalf("nothing should be created without a snapshot")
	}
}

func TestArchiverDryRunReportsOnly(t *testing.T) {
	teaser := "https://www.wsj.com/articles/short-teaser"
	snapshot := "https://archive.ph/AbCdE"

	client := newFakeEntryClient(paywalledEntry(1, teaser, intp(1)))
	finder := &fakeFinder{snapshots: map[string]string{teaser: snapshot}}

	arc := newTestArchiver(client, finder, true)
	sum, err := arc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Changed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(client.ops) != 0 {
		t.Fatalf("dry-run wrote: %v", client.ops)
	}
	if len(sum.Notes) == 0 || !strings.Contains(sum.Notes[0], "would replace") {
		t.Fatalf("notes = %v", sum.Notes)
	}
}

func TestArchiverLookupFailureContinues(t *testing.T) {
	flaky := "https://www.wsj.com/articles/flaky"
	fine := "https://www.ft.com/content/fine"
	snapshot := "https://archive.ph/XyZ01"

	client := newFakeEntryClient(
		paywalledEntry(1, flaky, intp(1)),
		paywalledEntry(2, fine, intp(2)),
	)
	client.createResp[snapshot] = &wallabag.Entry{ID: 2002, URL: snapshot, ReadingTime: intp(9)}
	finder := &fakeFinder{
		snapshots: map[string]string{fine: snapshot},
		errs:      map[string]error{flaky: errors.New("timeout")},
	}

	arc := newTestArchiver(client, finder, false)
	sum, err := arc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 || sum.Changed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if !reflect.DeepEqual(client.deleted, []int{2}) {
		t.Fatalf("deleted = %v", client.deleted)
	}
}

func TestArchiverRequiresHosts(t *testing.T) {
	arc := NewArchiver(newFakeEntryClient(), &fakeFinder{}, ArchiverConfig{}, logger.NopLogger())
	if _, err := arc.Run(context.Background()); err == nil {
		t.Fatalf("expected error with no paywalled hosts")
	}
}
