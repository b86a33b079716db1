package opengraph

import (
	"strconv"
	"strings"
)

// Page carries the page-level metadata Open Graph tags are derived from.
type Page struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	Type        string // "website" or "article"
	SiteName    string
	Locale      string

	Image       string
	ImageWidth  int
	ImageHeight int

	PublishedTime string // article:published_time, YYYY-MM-DD
	Author        string
	Tags          []string
}

// FromPage returns the Open Graph tags for p. Empty fields are omitted,
// except og:type which defaults to "website".
func FromPage(p Page) *TagSet {
	ts := NewTagSet()
	typ := p.Type
	if typ == "" {
		typ = "website"
	}
	ts.Set("og:type", typ)
	setIf(ts, "og:title", p.Title)
	setIf(ts, "og:url", p.URL)
	setIf(ts, "og:description", p.Description)
	setIf(ts, "og:site_name", p.SiteName)
	setIf(ts, "og:locale", p.Locale)
	if p.Image != "" {
		ts.Set("og:image", p.Image)
		if p.ImageWidth > 0 && p.ImageHeight > 0 {
			ts.Set("og:image:width", strconv.Itoa(p.ImageWidth))
			ts.Set("og:image:height", strconv.Itoa(p.ImageHeight))
		}
	}
	if typ == "article" {
		setIf(ts, "article:published_time", p.PublishedTime)
		setIf(ts, "article:author", p.Author)
		// Keys are unique, so repeated article:tag entries collapse into one.
		if len(p.Tags) > 0 {
			ts.Set("article:tag", strings.Join(p.Tags, ", "))
		}
	}
	return ts
}

func setIf(ts *TagSet, key, value string) {
	if value != "" {
		ts.Set(key, value)
	}
}
