// Package twittercards extends a page's Open Graph tags with Twitter Card
// tags. The card type (summary, summary_large_image, photo or gallery) is
// derived from the post's featured image and embedded media.
//
// See https://dev.twitter.com/docs/cards for the tag vocabulary.
package twittercards

import (
	"strconv"
	"strings"

	"github.com/eringen/pubcards/media"
)

// CardType is a Twitter Card presentation mode.
type CardType string

const (
	// Summary is the default card with an optional small thumbnail.
	Summary CardType = "summary"
	// SummaryLargeImage is a summary card with a prominent image.
	SummaryLargeImage CardType = "summary_large_image"
	// Photo presents a single image.
	Photo CardType = "photo"
	// Gallery presents up to four images.
	Gallery CardType = "gallery"
)

// Tag keys written by the builder.
const (
	KeyCard        = "twitter:card"
	KeySite        = "twitter:site"
	KeyCreator     = "twitter:creator"
	KeyImage       = "twitter:image"
	KeyImageSrc    = "twitter:image:src"
	KeyDescription = "twitter:description"

	keyOGDescription = "og:description"
)

// Image widths requested from the image host, by use.
const (
	ThumbnailWidth  = 240
	LargeImageWidth = 640
	PhotoWidth      = 1400
)

// Minimum featured-image geometry for a summary_large_image card.
const (
	LargeImageMinWidth  = 280
	LargeImageMinHeight = 150
)

// MaxGalleryImages is the most images a gallery card may carry.
const MaxGalleryImages = 4

// Fallback site handles used when no handle is configured. They belong to the
// platform rather than to a person, so they never count as a post's creator.
const (
	DefaultSiteHandle = "@pubengine"
	HostedSiteHandle  = "@pubenginehq"
)

var reservedHandles = []string{DefaultSiteHandle, HostedSiteHandle}

// FeaturedImage is an editorially chosen image for a post. SrcWidth and
// SrcHeight are the original dimensions; Width and Height the size fitted
// into the requested box.
type FeaturedImage struct {
	Src       string
	SrcWidth  int
	SrcHeight int
	Width     int
	Height    int
}

// FeaturedSource looks up a post's featured image, fitted into maxW x maxH.
type FeaturedSource interface {
	FeaturedImage(postID string, maxW, maxH int) (FeaturedImage, bool)
}

// MediaSource returns the media summary of a post.
type MediaSource interface {
	MediaSummary(postID string) (media.Extract, bool)
}

// AuthorResolver returns the Twitter handle of a post's author, or "".
type AuthorResolver interface {
	AuthorHandle(postID string) string
}

// AvatarSource returns a site-level fallback image for domain at size pixels.
type AvatarSource interface {
	AvatarURL(domain string, size int) (string, bool)
}

// SanitizeHandle normalizes a Twitter handle to carry exactly one leading "@".
func SanitizeHandle(s string) string {
	return "@" + strings.TrimPrefix(s, "@")
}

// IsReservedHandle reports whether handle is one of the platform fallback
// handles. The leading "@" is optional.
func IsReservedHandle(handle string) bool {
	h := SanitizeHandle(handle)
	for _, r := range reservedHandles {
		if strings.EqualFold(h, r) {
			return true
		}
	}
	return false
}

// FallbackSiteHandle returns the handle used when a site has none configured.
func FallbackSiteHandle(hosted bool) string {
	if hosted {
		return HostedSiteHandle
	}
	return DefaultSiteHandle
}

// WithWidth sets the "w" query parameter of rawURL to width, replacing any
// existing value. The other parameters keep their order and encoding, so
// signed image URLs stay valid. The image is not fetched.
func WithWidth(rawURL string, width int) string {
	w := "w=" + strconv.Itoa(width)
	rest, fragment, hasFragment := strings.Cut(rawURL, "#")
	path, query, _ := strings.Cut(rest, "?")

	var params []string
	replaced := false
	if query != "" {
		for _, param := range strings.Split(query, "&") {
			if key, _, _ := strings.Cut(param, "="); key == "w" {
				if !replaced {
					params = append(params, w)
					replaced = true
				}
				continue
			}
			params = append(params, param)
		}
	}
	if !replaced {
		params = append(params, w)
	}

	out := path + "?" + strings.Join(params, "&")
	if hasFragment {
		out += "#" + fragment
	}
	return out
}
