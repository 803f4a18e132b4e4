// Package feeds loads the feed subscription registry (YAML/JSON), fetches
// and parses the feeds, and filters their items down to the ones worth
// importing.
package feeds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Feed is one configured subscription.
type Feed struct {
	ID   string   `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`
	URL  string   `json:"url" yaml:"url"`
	// Tags are attached to every entry imported from this feed, on top of
	// the rss marker every import gets.
	Tags []string `json:"tags" yaml:"tags"`
}

type registry struct {
	Feeds []Feed `json:"feeds" yaml:"feeds"`
}

// Load reads the feed registry from a YAML or JSON file. Every feed is
// sanitized and validated; duplicate ids fail the whole load so a typo
// cannot quietly shadow a subscription.
func Load(path string) ([]Feed, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("feeds file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(reg.Feeds) == 0 {
		return nil, errors.New("feeds file contains no feeds entries")
	}

	seen := make(map[string]struct{}, len(reg.Feeds))
	for i := range reg.Feeds {
		f := sanitizeFeed(reg.Feeds[i])
		if err := validateFeed(f); err != nil {
			return nil, fmt.Errorf("feed[%d]: %w", i, err)
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate feed id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
		reg.Feeds[i] = f
	}
	return reg.Feeds, nil
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (registry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registry
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registry{}, errors.New("feeds file format not recognized (expected YAML or JSON)")
}

func sanitizeFeed(f Feed) Feed {
	f.ID = strings.TrimSpace(f.ID)
	f.Name = strings.TrimSpace(f.Name)
	f.URL = strings.TrimSpace(f.URL)
	if f.Name == "" {
		f.Name = f.ID
	}

	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	f.Tags = tags
	return f
}

func validateFeed(f Feed) error {
	if f.ID == "" {
		return errors.New("id is required")
	}
	if f.URL == "" {
		return fmt.Errorf("url is required for feed %q", f.ID)
	}
	if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
		return fmt.Errorf("feed %q url %q must be http(s)", f.ID, f.URL)
	}
	return nil
}
