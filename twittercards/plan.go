package twittercards

import (
	"strconv"

	"github.com/eringen/pubcards/media"
	"github.com/eringen/pubcards/opengraph"
)

// PlannedImage is an image tag the plan will write.
type PlannedImage struct {
	Key string
	URL string
}

// Plan is the outcome of the card decision: the card type and the image tags
// that go with it. ExtractType records the media type of the extract the
// decision consulted, or "" when none was consulted.
type Plan struct {
	Card        CardType
	Images      []PlannedImage
	ExtractType media.Type
}

// Apply writes the plan's image tags and card type into tags.
func (p Plan) Apply(tags *opengraph.TagSet) {
	for _, img := range p.Images {
		tags.Set(img.Key, img.URL)
	}
	tags.Set(KeyCard, string(p.Card))
}

// Decide picks the card for a post. A featured image, when present, takes
// priority and the extract is not looked at. avatar is only called when the
// extract carries no images; it may be nil.
func Decide(featured *FeaturedImage, extract *media.Extract, avatar func() string) Plan {
	if featured != nil && featured.Src != "" {
		return planFeatured(*featured)
	}
	if extract == nil {
		return Plan{Card: Summary}
	}
	if extract.Type == media.TypeVideo {
		return planVideo(*extract)
	}
	return planImageCount(*extract, avatar)
}

func planFeatured(f FeaturedImage) Plan {
	if f.SrcWidth >= LargeImageMinWidth && f.SrcHeight >= LargeImageMinHeight {
		return Plan{
			Card:   SummaryLargeImage,
			Images: []PlannedImage{{Key: KeyImageSrc, URL: WithWidth(f.Src, LargeImageWidth)}},
		}
	}
	return Plan{
		Card:   Summary,
		Images: []PlannedImage{{Key: KeyImage, URL: WithWidth(f.Src, ThumbnailWidth)}},
	}
}

// planVideo uses the poster frame, which is always large enough for a
// summary_large_image card.
func planVideo(e media.Extract) Plan {
	p := Plan{Card: Summary, ExtractType: media.TypeVideo}
	if e.Image == "" {
		return p
	}
	p.Card = SummaryLargeImage
	p.Images = []PlannedImage{{Key: KeyImageSrc, URL: WithWidth(e.Image, LargeImageWidth)}}
	return p
}

func planImageCount(e media.Extract, avatar func() string) Plan {
	p := Plan{Card: Summary, ExtractType: e.Type}
	n := e.Count.Image
	switch {
	case n <= 0:
		// No images: the site avatar stands in as the summary thumbnail.
		if avatar != nil {
			if u := avatar(); u != "" {
				p.Images = []PlannedImage{{Key: KeyImage, URL: u}}
			}
		}
	case n == 1 && (e.Type == media.TypeImage || e.Type == media.TypeGallery):
		// Restricted to image and gallery posts so a stray fallback image is
		// never presented as a photo post.
		if u := e.FirstImageURL(); u != "" {
			p.Card = Photo
			p.Images = []PlannedImage{{Key: KeyImage, URL: WithWidth(u, PhotoWidth)}}
		}
	case n <= 3:
		if u := e.FirstImageURL(); u != "" {
			p.Images = []PlannedImage{{Key: KeyImage, URL: WithWidth(u, ThumbnailWidth)}}
		}
	default:
		gallery := galleryImages(e.Images)
		if len(gallery) < MaxGalleryImages {
			// The count promised a gallery but too few usable URLs came
			// with it; show the first one as a summary thumbnail instead.
			if len(gallery) > 0 {
				p.Images = []PlannedImage{{Key: KeyImage, URL: WithWidth(gallery[0], ThumbnailWidth)}}
			}
			break
		}
		p.Card = Gallery
		for i, u := range gallery {
			p.Images = append(p.Images, PlannedImage{
				Key: KeyImage + strconv.Itoa(i),
				URL: WithWidth(u, LargeImageWidth),
			})
		}
	}
	return p
}

// galleryImages returns up to MaxGalleryImages non-empty image URLs.
func galleryImages(images []media.Image) []string {
	var urls []string
	for _, img := range images {
		if len(urls) == MaxGalleryImages {
			break
		}
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
