package pubcards

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubcards/opengraph"
	"github.com/eringen/pubcards/twittercards"
)

// BlogPost is the core content type stored in SQLite and rendered by templates.
type BlogPost struct {
	Title     string
	Date      string
	Tags      []string
	Summary   string
	Link      string
	Slug      string
	Content   string
	Published bool

	Author       string // byline; empty means SiteConfig.Author
	AuthorHandle string // author's Twitter handle, credited as twitter:creator
	Image        string // featured image: upload filename or absolute URL
	Password     string // non-empty protects the post until unlocked
}

// Protected reports whether the post requires a password.
func (p BlogPost) Protected() bool {
	return p.Password != ""
}

// Image is the metadata of an uploaded image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// Settings are the site options editable from the admin dashboard.
type Settings struct {
	TwitterSite string // site's Twitter handle, stored without "@"
	SiteIcon    string // upload filename used as the fallback card image
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Tags        *opengraph.TagSet
	JSONLD      string // schema.org description, rendered after the meta tags
}

// Head renders the page's meta tags followed by its JSON-LD script. Twitter
// tags are emitted with the name attribute, everything else with property.
func (m PageMeta) Head() templ.Component {
	tags := opengraph.Render(m.Tags, twittercards.RewriteOutputKey)
	if m.JSONLD == "" {
		return tags
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := tags.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<script type="application/ld+json">`+m.JSONLD+"</script>\n")
		return err
	})
}

// Card returns the Twitter Card type chosen for the page, or "".
func (m PageMeta) Card() string {
	return m.Tags.Value(twittercards.KeyCard)
}
