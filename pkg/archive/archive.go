// Package archive locates archive.today snapshots of paywalled articles
// and submits pages the archive has not captured yet.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://archive.is"
	defaultTimeout = 15 * time.Second
	userAgent      = "wallabag-tools/1.0 (+https://github.com/tm-robinson/wallabag-tools)"
)

// Config tunes the snapshot finder.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Finder probes archive.today for existing snapshots and submits pages
// that have none. Replies are read without following redirects because
// the redirect target is the answer.
type Finder struct {
	base   string
	client *resty.Client
}

// NewFinder builds a Finder against cfg.BaseURL, archive.is by default.
func NewFinder(cfg Config) *Finder {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	return &Finder{base: base, client: client}
}

// FindSnapshot returns the newest archived copy of pageURL, or ok=false
// when the archive has none. A bounce back under /newest/ means the
// archive is still resolving the page and has nothing to serve.
func (f *Finder) FindSnapshot(ctx context.Context, pageURL string) (string, bool, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", false, fmt.Errorf("page URL is empty")
	}
	resp, err := f.client.R().SetContext(ctx).Get(f.base + "/newest/" + pageURL)
	if err != nil {
		return "", false, fmt.Errorf("probe newest snapshot: %w", err)
	}
	if loc := redirectLocation(resp); loc != "" {
		if strings.HasPrefix(loc, "/newest/") {
			return "", false, nil
		}
		return f.absolute(loc), true, nil
	}
	if target := f.snapshotFromReply(resp); target != "" {
		return target, true, nil
	}
	return "", false, nil
}

// Submit asks the archive to capture pageURL and returns the snapshot URL
// when the reply carries one. Fresh submissions usually answer with a
// work-in-progress URL that serves the capture once it finishes.
func (f *Finder) Submit(ctx context.Context, pageURL string) (string, bool, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", false, fmt.Errorf("page URL is empty")
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"url": pageURL}).
		Post(f.base + "/submit/")
	if err != nil {
		return "", false, fmt.Errorf("submit to archive: %w", err)
	}
	if loc := redirectLocation(resp); loc != "" {
		return f.absolute(loc), true, nil
	}
	if target := f.snapshotFromReply(resp); target != "" {
		return target, true, nil
	}
	return "", false, nil
}

func redirectLocation(resp *resty.Response) string {
	code := resp.StatusCode()
	if code != http.StatusMovedPermanently && code != http.StatusFound {
		return ""
	}
	return strings.TrimSpace(resp.Header().Get("Location"))
}

// snapshotFromReply digs the snapshot URL out of a 200 reply. The archive
// answers some requests with a Refresh header or an HTML interstitial
// holding a meta refresh instead of a proper redirect.
func (f *Finder) snapshotFromReply(resp *resty.Response) string {
	if resp.StatusCode() != http.StatusOK {
		return ""
	}
	if target := refreshTarget(resp.Header().Get("Refresh")); target != "" {
		return f.absolute(target)
	}
	if target := metaRefreshTarget(resp.Body()); target != "" {
		return f.absolute(target)
	}
	return ""
}

func metaRefreshTarget(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var target string
	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		equiv, _ := s.Attr("http-equiv")
		if !strings.EqualFold(equiv, "refresh") {
			return true
		}
		content, _ := s.Attr("content")
		if t := refreshTarget(content); t != "" {
			target = t
			return false
		}
		return true
	})
	return target
}

// refreshTarget pulls the url= portion out of a refresh directive like
// "0; url=https://archive.is/abc12".
func refreshTarget(content string) string {
	for _, part := range strings.Split(content, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "url=") {
			return strings.Trim(strings.TrimSpace(part[4:]), `'"`)
		}
	}
	return ""
}

func (f *Finder) absolute(loc string) string {
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return loc
	}
	baseURL, err := url.Parse(f.base)
	if err != nil {
		return loc
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return loc
	}
	return baseURL.ResolveReference(ref).String()
}
