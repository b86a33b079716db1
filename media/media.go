// Package media summarizes the images and videos embedded in a post's
// content so pages can pick a matching social card.
package media

// Type classifies a post by its dominant media.
type Type string

const (
	// TypeImage is a post with exactly one image.
	TypeImage Type = "image"
	// TypeGallery is a post with two or more images.
	TypeGallery Type = "gallery"
	// TypeVideo is a post embedding at least one video.
	TypeVideo Type = "video"
	// TypeOther is a post without embedded media.
	TypeOther Type = "other"
)

// Image is one embedded image. Width and Height are zero when unknown.
type Image struct {
	URL    string
	Width  int
	Height int
}

// Count holds per-kind media totals.
type Count struct {
	Image int
	Video int
}

// Extract is the media summary of a single post.
type Extract struct {
	Type   Type
	Image  string // representative image: first image, or the video poster frame
	Images []Image
	Video  string // first video source
	Count  Count
}

// FirstImageURL returns the URL of the first listed image, falling back to Image.
func (e Extract) FirstImageURL() string {
	if len(e.Images) > 0 && e.Images[0].URL != "" {
		return e.Images[0].URL
	}
	return e.Image
}
