package pubcards

import (
	"github.com/eringen/pubcards/media"
	"github.com/eringen/pubcards/opengraph"
	"github.com/eringen/pubcards/twittercards"
)

// cardSources adapts the App's cache, store and settings to the
// collaborators the card builder consults. Post IDs are slugs.
type cardSources struct {
	a *App
}

var (
	_ twittercards.FeaturedSource = cardSources{}
	_ twittercards.MediaSource    = cardSources{}
	_ twittercards.AuthorResolver = cardSources{}
	_ twittercards.AvatarSource   = cardSources{}
)

func (s cardSources) post(slug string) (BlogPost, bool) {
	p, err := s.a.Cache.GetPost(slug)
	return p, err == nil
}

// FeaturedImage resolves the post's Image field. Uploads carry their stored
// geometry; absolute URLs have unknown dimensions and so only make a
// summary card.
func (s cardSources) FeaturedImage(slug string, maxW, maxH int) (twittercards.FeaturedImage, bool) {
	p, ok := s.post(slug)
	if !ok || p.Image == "" {
		return twittercards.FeaturedImage{}, false
	}
	if IsAbsoluteURL(p.Image) {
		return twittercards.FeaturedImage{Src: p.Image}, true
	}
	img, err := s.a.Store.GetImage(p.Image)
	if err != nil {
		return twittercards.FeaturedImage{}, false
	}
	w, h := fitInside(img.Width, img.Height, maxW, maxH)
	return twittercards.FeaturedImage{
		Src:       s.a.uploadURL(img.Filename),
		SrcWidth:  img.Width,
		SrcHeight: img.Height,
		Width:     w,
		Height:    h,
	}, true
}

func (s cardSources) MediaSummary(slug string) (media.Extract, bool) {
	e, err := s.a.Cache.MediaSummary(slug, s.a.Config.URL)
	return e, err == nil
}

func (s cardSources) AuthorHandle(slug string) string {
	p, ok := s.post(slug)
	if !ok {
		return ""
	}
	if s.a.authorHandle != nil {
		return s.a.authorHandle(p)
	}
	return p.AuthorHandle
}

// AvatarURL serves the site icon setting at the requested width. The site
// is single-domain, so domain is ignored.
func (s cardSources) AvatarURL(_ string, size int) (string, bool) {
	icon, err := s.a.Store.GetSetting(settingSiteIcon)
	if err != nil || icon == "" {
		return "", false
	}
	return twittercards.WithWidth(s.a.uploadURL(icon), size), true
}

func (a *App) newCardBuilder() *twittercards.Builder {
	src := cardSources{a: a}
	b := &twittercards.Builder{
		Featured: src,
		Media:    src,
		Authors:  src,
		Avatars:  src,
	}
	if a.avatars != nil {
		b.Avatars = a.avatars
	}
	return b
}

func (a *App) uploadURL(filename string) string {
	return AssetURL(a.Config.URL, "public", uploadsSubdir, filename)
}

// PostMeta builds the head metadata of a single post page. unlocked reports
// whether the visitor has entered the password of a protected post; until
// then the page carries neither description nor image.
func (a *App) PostMeta(post BlogPost, unlocked bool) PageMeta {
	locked := post.Protected() && !unlocked
	page := opengraph.Page{
		Title:         post.Title,
		URL:           BuildURL(a.Config.URL, "blog", post.Slug),
		Type:          "article",
		SiteName:      a.Config.Name,
		Locale:        a.Config.Locale,
		PublishedTime: post.Date,
		Author:        postAuthor(post, a.Config),
		Tags:          post.Tags,
	}
	if !locked {
		page.Description = post.Summary
		if f, ok := (cardSources{a: a}).FeaturedImage(post.Slug, 0, 0); ok {
			page.Image = f.Src
			page.ImageWidth, page.ImageHeight = f.SrcWidth, f.SrcHeight
		}
	}
	tags := opengraph.FromPage(page)
	for _, fn := range a.tagFilters {
		fn(tags, &post)
	}
	tags = a.Cards.Build(tags, twittercards.Input{
		Singular:          true,
		PasswordProtected: locked,
		Disabled:          a.Config.DisableTwitterCards,
		Post:              twittercards.Post{ID: post.Slug, Author: page.Author},
		SiteHandle:        a.siteHandle(),
		Domain:            Domain(a.Config.URL),
	})
	card := tags.Value(twittercards.KeyCard)
	a.metrics.observeCard(card)
	a.Echo.Logger.Debugf("cards: %s -> %q", post.Slug, card)
	meta := PageMeta{
		Title:       post.Title,
		Description: page.Description,
		URL:         page.URL,
		OGType:      page.Type,
		Tags:        tags,
	}
	meta.JSONLD = BlogPostingJsonLD(post, a.Config, meta)
	return meta
}

// HomeMeta builds the head metadata of the listing page. Listing pages are
// not singular and only get twitter:site.
func (a *App) HomeMeta() PageMeta {
	page := opengraph.Page{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL) + "/",
		Type:        "website",
		SiteName:    a.Config.Name,
		Locale:      a.Config.Locale,
	}
	tags := opengraph.FromPage(page)
	for _, fn := range a.tagFilters {
		fn(tags, nil)
	}
	tags = a.Cards.Build(tags, twittercards.Input{
		Disabled:   a.Config.DisableTwitterCards,
		SiteHandle: a.siteHandle(),
		Domain:     Domain(a.Config.URL),
	})
	return PageMeta{
		Title:       page.Title,
		Description: page.Description,
		URL:         page.URL,
		OGType:      page.Type,
		Tags:        tags,
		JSONLD:      WebsiteJsonLD(a.Config),
	}
}

// fitInside scales w x h down to fit maxW x maxH, keeping the aspect ratio.
// A zero bound is unconstrained; images are never scaled up.
func fitInside(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if maxW > 0 && w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if maxH > 0 && h > maxH {
		w = w * maxH / h
		h = maxH
	}
	return w, h
}
