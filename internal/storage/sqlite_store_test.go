package storage

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStoreMarksAndExpiresURLs(t *testing.T) {
	ctx := context.Background()
	opts := Options{
		URLTTL:          200 * time.Millisecond,
		CleanupInterval: time.Hour,
	}

	storeRaw, err := openSQLite(t.TempDir()+"/state.db", opts)
	if err != nil {
		t.Fatalf("openSQLite: %v", err)
	}
	store := storeRaw.(*sqliteStore)
	defer store.Close()

	const url = "https://blog.example/first"

	seen, err := store.SeenURL(ctx, url)
	if err != nil || seen {
		t.Fatalf("expected unseen url, seen=%v err=%v", seen, err)
	}

	if err := store.MarkURL(ctx, url); err != nil {
		t.Fatalf("MarkURL: %v", err)
	}

	// Marking again refreshes instead of failing on the primary key.
	if err := store.MarkURL(ctx, url); err != nil {
		t.Fatalf("MarkURL again: %v", err)
	}

	seen, err = store.SeenURL(ctx, url)
	if err != nil || !seen {
		t.Fatalf("expected url marked as seen, got seen=%v err=%v", seen, err)
	}

	time.Sleep(250 * time.Millisecond)

	seen, err = store.SeenURL(ctx, url)
	if err != nil {
		t.Fatalf("SeenURL after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to lapse once its TTL passed")
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/state.db"

	store, err := NewStore("sqlite", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.MarkURL(ctx, "https://blog.example/kept"); err != nil {
		t.Fatalf("MarkURL: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = NewStore("sqlite", path, Options{})
	if err != nil {
		t.Fatalf("NewStore reopen: %v", err)
	}
	defer store.Close()

	seen, err := store.SeenURL(ctx, "https://blog.example/kept")
	if err != nil || !seen {
		t.Fatalf("expected url to survive reopen, seen=%v err=%v", seen, err)
	}
}
