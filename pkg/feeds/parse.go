package feeds

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/net/html/charset"
)

// Item is one entry of a fetched feed, reduced to what the importer needs.
type Item struct {
	FeedID    string
	Title     string
	URL       string
	GUID      string
	Published time.Time // zero when the feed gave no parseable date
}

type rssDocument struct {
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    string `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Date    string `xml:"date"` // dublin core fallback some feeds carry
}

type atomDocument struct {
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string     `xml:"title"`
	Links     []atomLink `xml:"link"`
	ID        string     `xml:"id"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// Parse decodes an RSS 2.0 or Atom document into items. Documents
// declaring a non-UTF-8 charset are transcoded while decoding. An item
// whose date fields do not parse keeps a zero Published time; the
// deduplicator drops those later rather than importing blind.
func Parse(data []byte) ([]Item, error) {
	root, err := rootName(data)
	if err != nil {
		return nil, fmt.Errorf("inspect feed document: %w", err)
	}
	switch root {
	case "rss":
		return parseRSS(data)
	case "feed":
		return parseAtom(data)
	default:
		return nil, fmt.Errorf("unsupported feed root element %q", root)
	}
}

func newDecoder(data []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

func rootName(data []byte) (string, error) {
	dec := newDecoder(data)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func parseRSS(data []byte) ([]Item, error) {
	var doc rssDocument
	if err := newDecoder(data).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rss feed: %w", err)
	}
	items := make([]Item, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		items = append(items, Item{
			Title:     strings.TrimSpace(it.Title),
			URL:       link,
			GUID:      strings.TrimSpace(it.GUID),
			Published: parseWhen(it.PubDate, it.Date),
		})
	}
	return items, nil
}

func parseAtom(data []byte) ([]Item, error) {
	var doc atomDocument
	if err := newDecoder(data).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode atom feed: %w", err)
	}
	items := make([]Item, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		link := pickAtomLink(entry.Links)
		if link == "" {
			continue
		}
		items = append(items, Item{
			Title:     strings.TrimSpace(entry.Title),
			URL:       link,
			GUID:      strings.TrimSpace(entry.ID),
			Published: parseWhen(entry.Published, entry.Updated),
		})
	}
	return items, nil
}

// pickAtomLink prefers the alternate link, the Atom name for the
// human-facing page, over API self links.
func pickAtomLink(links []atomLink) string {
	var fallback string
	for _, l := range links {
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	return fallback
}

func parseWhen(values ...string) time.Time {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
