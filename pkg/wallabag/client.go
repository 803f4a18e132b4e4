package wallabag

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	userAgent      = "wallabag-tools/1.0 (+https://github.com/tm-robinson/wallabag-tools)"
	defaultTimeout = 30 * time.Second

	// perPage is the page size requested from the entries listing.
	perPage = 50

	// tokenSlack renews the access token this long before the server
	// would expire it, so in-flight requests never race the expiry.
	tokenSlack = 30 * time.Second

	snippetLimit = 200
)

// Config carries the wallabag endpoint and OAuth password grant credentials.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
}

func (c *Config) sanitize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.Username = strings.TrimSpace(c.Username)
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("wallabag: base URL is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("wallabag: base URL %q must start with http:// or https://", c.BaseURL)
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("wallabag: client credentials are required")
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("wallabag: username and password are required")
	}
	return nil
}

// APIError reports a non-2xx wallabag response.
type APIError struct {
	StatusCode int
	Snippet    string
}

func (e *APIError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Snippet)
}

func apiError(resp *resty.Response) error {
	snippet := strings.TrimSpace(string(resp.Body()))
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return &APIError{StatusCode: resp.StatusCode(), Snippet: snippet}
}

// Client is an authenticated wallabag API client. The OAuth token is
// acquired lazily on first use and renewed when it nears expiry.
type Client struct {
	cfg    Config
	client *resty.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClient validates cfg and builds a Client. No network traffic happens
// until the first API call.
func NewClient(cfg Config) (*Client, error) {
	cfg.sanitize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Client{cfg: cfg, client: rc}, nil
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires) {
		return c.token, nil
	}

	var tok tokenResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "password",
			"client_id":     c.cfg.ClientID,
			"client_secret": c.cfg.ClientSecret,
			"username":      c.cfg.Username,
			"password":      c.cfg.Password,
		}).
		SetResult(&tok).
		Post("/oauth/v2/token")
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("request token: %w", apiError(resp))
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("request token: reply carries no access token")
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl > tokenSlack {
		ttl -= tokenSlack
	}
	c.token = tok.AccessToken
	c.expires = time.Now().Add(ttl)
	return c.token, nil
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.client.R().SetContext(ctx).SetAuthToken(token), nil
}

// ListEntries walks every page of the entry listing and returns the
// combined items. The walk follows the page count the server reports.
func (c *Client) ListEntries(ctx context.Context, opts ListOptions) ([]Entry, error) {
	var all []Entry
	for page := 1; ; page++ {
		req, err := c.request(ctx)
		if err != nil {
			return nil, err
		}
		params := map[string]string{
			"page":    strconv.Itoa(page),
			"perPage": strconv.Itoa(perPage),
		}
		if opts.Unread {
			params["archive"] = "0"
		}
		var envelope entriesPage
		resp, err := req.
			SetQueryParams(params).
			SetResult(&envelope).
			Get("/api/entries.json")
		if err != nil {
			return nil, fmt.Errorf("list entries page %d: %w", page, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("list entries page %d: %w", page, apiError(resp))
		}
		all = append(all, envelope.Embedded.Items...)
		if page >= envelope.Pages {
			break
		}
	}
	return all, nil
}

// GetEntry fetches a single entry by id.
func (c *Client) GetEntry(ctx context.Context, id int) (*Entry, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var entry Entry
	resp, err := req.
		SetResult(&entry).
		Get(fmt.Sprintf("/api/entries/%d.json", id))
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get entry %d: %w", id, apiError(resp))
	}
	return &entry, nil
}

// AddTags attaches tags to an entry. Wallabag takes a comma separated
// list and quietly skips tags the entry already carries.
func (c *Client) AddTags(ctx context.Context, id int, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"tags": strings.Join(tags, ",")}).
		Post(fmt.Sprintf("/api/entries/%d/tags.json", id))
	if err != nil {
		return fmt.Errorf("add tags to entry %d: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("add tags to entry %d: %w", id, apiError(resp))
	}
	return nil
}

// RemoveTag detaches a tag by label. Wallabag addresses removals by
// numeric tag id, so the entry is fetched first to resolve the label.
// A label the entry does not carry is a no-op.
func (c *Client) RemoveTag(ctx context.Context, id int, label string) error {
	entry, err := c.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve tag %q: %w", label, err)
	}
	tagID := -1
	for _, t := range entry.Tags {
		if strings.EqualFold(t.Label, label) {
			tagID = t.ID
			break
		}
	}
	if tagID < 0 {
		return nil
	}
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.Delete(fmt.Sprintf("/api/entries/%d/tags/%d.json", id, tagID))
	if err != nil {
		return fmt.Errorf("remove tag %q from entry %d: %w", label, id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("remove tag %q from entry %d: %w", label, id, apiError(resp))
	}
	return nil
}

// CreateEntry saves a URL as a new entry and returns the entry wallabag
// built for it, including the server side quality fields.
func (c *Client) CreateEntry(ctx context.Context, rawURL string, tags []string) (*Entry, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]string{"url": rawURL}
	if len(tags) > 0 {
		body["tags"] = strings.Join(tags, ",")
	}
	var entry Entry
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&entry).
		Post("/api/entries.json")
	if err != nil {
		return nil, fmt.Errorf("create entry for %s: %w", rawURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create entry for %s: %w", rawURL, apiError(resp))
	}
	return &entry, nil
}

// DeleteEntry removes an entry permanently.
func (c *Client) DeleteEntry(ctx context.Context, id int) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.Delete(fmt.Sprintf("/api/entries/%d.json", id))
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete entry %d: %w", id, apiError(resp))
	}
	return nil
}

// EntryExists reports whether the URL is already saved, and the id of the
// existing entry when it is.
func (c *Client) EntryExists(ctx context.Context, rawURL string) (bool, int, error) {
	req, err := c.request(ctx)
	if err != nil {
		return false, 0, err
	}
	var reply existsResponse
	resp, err := req.
		SetQueryParams(map[string]string{"url": rawURL, "return_id": "1"}).
		SetResult(&reply).
		Get("/api/entries/exists.json")
	if err != nil {
		return false, 0, fmt.Errorf("check entry exists: %w", err)
	}
	if resp.IsError() {
		return false, 0, fmt.Errorf("check entry exists: %w", apiError(resp))
	}
	if reply.Exists == nil {
		return false, 0, nil
	}
	return true, *reply.Exists, nil
}
