package storage

import (
	"context"
	"testing"
	"time"
)

func TestBoltStoreMarksAndExpiresURLs(t *testing.T) {
	ctx := context.Background()
	opts := Options{
		URLTTL:          200 * time.Millisecond,
		CleanupInterval: 200 * time.Millisecond,
	}

	storeRaw, err := openBolt(t.TempDir()+"/state.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	const url = "https://blog.example/first"

	seen, err := store.SeenURL(ctx, url)
	if err != nil || seen {
		t.Fatalf("expected unseen url, seen=%v err=%v", seen, err)
	}

	if err := store.MarkURL(ctx, url); err != nil {
		t.Fatalf("MarkURL: %v", err)
	}

	seen, err = store.SeenURL(ctx, url)
	if err != nil || !seen {
		t.Fatalf("expected url marked as seen, got seen=%v err=%v", seen, err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-time.Second).Unix())
	time.Sleep(250 * time.Millisecond)

	seen, err = store.SeenURL(ctx, url)
	if err != nil {
		t.Fatalf("SeenURL after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	for _, typ := range []string{"", "none", "disabled"} {
		store, err := NewStore(typ, "", Options{})
		if err != nil {
			t.Fatalf("NewStore %q: %v", typ, err)
		}
		if err := store.MarkURL(context.Background(), "x"); err != nil {
			t.Fatalf("noop store MarkURL: %v", err)
		}
		seen, err := store.SeenURL(context.Background(), "x")
		if err != nil || seen {
			t.Fatalf("noop store SeenURL = (%v, %v)", seen, err)
		}
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatal("NewStore accepted an unsupported type")
	}
}

func TestNewStoreRequiresPath(t *testing.T) {
	for _, typ := range []string{"bbolt", "sqlite"} {
		if _, err := NewStore(typ, "  ", Options{}); err == nil {
			t.Fatalf("NewStore %q accepted a blank path", typ)
		}
	}
}
