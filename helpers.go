package pubcards

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AssetURL joins a base URL with path segments for a file, without a trailing slash.
func AssetURL(base string, pathSegments ...string) string {
	return strings.TrimSuffix(BuildURL(base, pathSegments...), "/")
}

// Domain returns the host of a site URL, or "" if it cannot be parsed.
func Domain(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// IsAbsoluteURL reports whether s is an http(s) URL.
func IsAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// StripTags returns the text content of s with all HTML markup removed.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// ldThing is a schema.org node referenced by type and name.
type ldThing struct {
	Type string `json:"@type"`
	Name string `json:"name,omitempty"`
	ID   string `json:"@id,omitempty"`
}

type websiteLD struct {
	Context     string   `json:"@context"`
	Type        string   `json:"@type"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	Author      *ldThing `json:"author,omitempty"`
}

type blogPostingLD struct {
	Context          string   `json:"@context"`
	Type             string   `json:"@type"`
	Headline         string   `json:"headline"`
	Description      string   `json:"description,omitempty"`
	DatePublished    string   `json:"datePublished"`
	URL              string   `json:"url"`
	MainEntityOfPage ldThing  `json:"mainEntityOfPage"`
	Author           *ldThing `json:"author,omitempty"`
	Publisher        *ldThing `json:"publisher,omitempty"`
	Image            string   `json:"image,omitempty"`
	Keywords         string   `json:"keywords,omitempty"`
}

// WebsiteJsonLD returns the schema.org WebSite description of the site.
func WebsiteJsonLD(cfg SiteConfig) string {
	return marshalJsonLD(websiteLD{
		Context:     "https://schema.org",
		Type:        "WebSite",
		Name:        cfg.Name,
		URL:         BuildURL(cfg.URL),
		Description: cfg.Description,
		Author:      named("Person", cfg.Author),
	})
}

// BlogPostingJsonLD returns the schema.org BlogPosting description of a post.
// The image is taken from meta so search results and cards show the same
// picture. Protected posts get neither description nor image.
func BlogPostingJsonLD(post BlogPost, cfg SiteConfig, meta PageMeta) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	ld := blogPostingLD{
		Context:          "https://schema.org",
		Type:             "BlogPosting",
		Headline:         post.Title,
		DatePublished:    post.Date,
		URL:              postURL,
		MainEntityOfPage: ldThing{Type: "WebPage", ID: postURL},
		Author:           named("Person", postAuthor(post, cfg)),
		Publisher:        named("Organization", cfg.Name),
		Keywords:         strings.Join(post.Tags, ", "),
	}
	if !post.Protected() {
		ld.Description = post.Summary
		ld.Image = meta.Tags.Value("og:image")
	}
	return marshalJsonLD(ld)
}

func named(typ, name string) *ldThing {
	if name == "" {
		return nil
	}
	return &ldThing{Type: typ, Name: name}
}

func marshalJsonLD(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// postAuthor returns the post's byline, defaulting to the site author.
func postAuthor(post BlogPost, cfg SiteConfig) string {
	if post.Author != "" {
		return post.Author
	}
	return cfg.Author
}
