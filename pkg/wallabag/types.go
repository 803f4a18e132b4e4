// Package wallabag speaks the wallabag v2 REST API: OAuth password grant,
// paginated entry listing, tagging, and entry lifecycle calls.
package wallabag

// Entry is one wallabag entry as returned by the API. Numeric quality
// fields decode into pointers so a missing field stays distinguishable
// from a reported zero.
type Entry struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	GivenURL    string `json:"given_url"`
	OriginURL   string `json:"origin_url"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
	Pages       *int   `json:"pages"`
	Size        *int   `json:"size"`
	ReadingTime *int   `json:"reading_time"`
	IsArchived  int    `json:"is_archived"`
	Tags        []Tag  `json:"tags"`
}

// Tag is a wallabag tag object. Removal calls address tags by ID, so the
// numeric id travels with the label.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// entriesPage is the paginated envelope wrapping entry listings.
type entriesPage struct {
	Page     int `json:"page"`
	Pages    int `json:"pages"`
	Total    int `json:"total"`
	Embedded struct {
		Items []Entry `json:"items"`
	} `json:"_embedded"`
}

// tokenResponse is the OAuth token grant reply.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// existsResponse is the reply of /api/entries/exists.json with return_id=1:
// exists carries the entry id, or null when the URL is unknown.
type existsResponse struct {
	Exists *int `json:"exists"`
}

// ListOptions narrows an entry listing.
type ListOptions struct {
	// Unread restricts the listing to entries not yet archived (read).
	Unread bool
}
