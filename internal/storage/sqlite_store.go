package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS imported_urls (
	url        TEXT PRIMARY KEY,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_imported_urls_expires ON imported_urls(expires_at);
`

// sqliteStore implements a Store on a local SQLite file via the pure Go
// driver, for setups that want the run state inspectable with sqlite3.
type sqliteStore struct {
	db              *sql.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	urlTTL          time.Duration
	cleanupInterval time.Duration
}

// openSQLite initializes a SQLite-backed Store.
func openSQLite(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	store := &sqliteStore{
		db:              db,
		urlTTL:          opts.URLTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the SQLite store.
func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SeenURL checks whether the URL was marked and is still within its TTL.
func (s *sqliteStore) SeenURL(ctx context.Context, url string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}

	now := time.Now()
	if err := s.maybeCleanupExpired(ctx, now); err != nil {
		return false, err
	}

	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `SELECT expires_at FROM imported_urls WHERE url = ?`, url).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query imported url: %w", err)
	}
	if expiresAt <= now.Unix() {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM imported_urls WHERE url = ?`, url); err != nil {
			return false, fmt.Errorf("drop expired url: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// MarkURL records the URL as imported, refreshing its TTL.
func (s *sqliteStore) MarkURL(ctx context.Context, url string) error {
	if s == nil || s.db == nil {
		return nil
	}

	now := time.Now()
	if err := s.maybeCleanupExpired(ctx, now); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imported_urls (url, expires_at) VALUES (?, ?)
		 ON CONFLICT(url) DO UPDATE SET expires_at = excluded.expires_at`,
		url, now.Add(s.urlTTL).Unix())
	if err != nil {
		return fmt.Errorf("mark imported url: %w", err)
	}
	return nil
}

// maybeCleanupExpired removes expired URLs on a fixed cadence to avoid unbounded growth.
func (s *sqliteStore) maybeCleanupExpired(ctx context.Context, now time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}

	last := time.Unix(s.lastCleanup.Load(), 0)
	if now.Sub(last) < s.cleanupInterval {
		return nil
	}

	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()

	last = time.Unix(s.lastCleanup.Load(), 0)
	if now.Sub(last) < s.cleanupInterval {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM imported_urls WHERE expires_at <= ?`, now.Unix()); err != nil {
		return fmt.Errorf("cleanup expired urls: %w", err)
	}
	s.lastCleanup.Store(now.Unix())
	return nil
}
