// Package storage remembers which URLs were already imported, so feed
// items do not come back after their wallabag entries get read and
// archived away.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store answers whether a normalized URL was imported recently.
type Store interface {
	Close() error
	SeenURL(ctx context.Context, url string) (bool, error)
	MarkURL(ctx context.Context, url string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	URLTTL          time.Duration
	CleanupInterval time.Duration
}

const (
	defaultURLTTL          = 90 * 24 * time.Hour
	defaultCleanupInterval = 24 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case "sqlite":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.URLTTL <= 0 {
		opts.URLTTL = defaultURLTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                  { return nil }
func (noopStore) SeenURL(context.Context, string) (bool, error) { return false, nil }
func (noopStore) MarkURL(context.Context, string) error         { return nil }
