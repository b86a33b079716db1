package twittercards

import (
	"fmt"
	"strings"

	"github.com/eringen/pubcards/media"
	"github.com/eringen/pubcards/opengraph"
)

// Featured images are requested at this size; only the original dimensions
// decide the card.
const (
	featuredMaxWidth  = 240
	featuredMaxHeight = 240
)

// Post identifies the post a card is built for.
type Post struct {
	ID     string
	Author string
}

// Input is the per-render context of a Build call.
type Input struct {
	Singular          bool
	PasswordProtected bool
	Disabled          bool

	Post       Post
	SiteHandle string // configured site handle; blank falls back to DefaultSiteHandle
	Domain     string // site domain passed to the avatar source
}

// Builder derives Twitter Card tags. Every source is optional; a nil source
// behaves as if it had nothing to offer. A Builder is safe for concurrent use.
type Builder struct {
	Featured FeaturedSource
	Media    MediaSource
	Authors  AuthorResolver
	Avatars  AvatarSource
}

// Build returns a copy of tags extended with Twitter Card tags. tags itself
// is never modified.
//
// Protected posts and disabled builds get the tags back unchanged. Every
// other page gets twitter:site. Only singular pages without an explicit
// twitter:card go on to get a card, images, creator and description.
func (b *Builder) Build(tags *opengraph.TagSet, in Input) *opengraph.TagSet {
	out := tags.Clone()
	if in.PasswordProtected || in.Disabled {
		return out
	}

	site := in.SiteHandle
	if strings.TrimSpace(site) == "" {
		site = DefaultSiteHandle
	}
	out.Set(KeySite, SanitizeHandle(site))

	if !in.Singular || out.Value(KeyCard) != "" {
		return out
	}

	featured := b.featured(in.Post.ID)
	var extract *media.Extract
	if featured == nil {
		extract = b.extract(in.Post.ID)
	}
	plan := Decide(featured, extract, func() string { return b.avatar(in.Domain) })
	plan.Apply(out)

	if in.Post.Author != "" && b.Authors != nil {
		handle := strings.TrimSpace(b.Authors.AuthorHandle(in.Post.ID))
		if handle != "" && !IsReservedHandle(handle) {
			out.Set(KeyCreator, SanitizeHandle(handle))
		}
	}

	if strings.TrimSpace(out.Value(keyOGDescription)) == "" {
		out.Set(KeyDescription, Description(plan, out.Value(KeyCreator)))
	}
	return out
}

// Description returns the fallback card description for plan. Twitter's
// validator rejects cards without one. creator is the twitter:creator value,
// which is credited unless it is blank or a platform handle.
func Description(plan Plan, creator string) string {
	var kind string
	switch {
	case plan.Card == Photo:
		kind = "Photo post"
	case plan.ExtractType == media.TypeVideo:
		// Video posts may carry a summary card, so the extract decides.
		kind = "Video post"
	case plan.Card == Gallery:
		kind = "Gallery post"
	default:
		kind = "New post"
	}
	if creator == "" || IsReservedHandle(creator) {
		return kind + "."
	}
	return fmt.Sprintf("%s by %s.", kind, creator)
}

func (b *Builder) featured(postID string) *FeaturedImage {
	if b.Featured == nil {
		return nil
	}
	f, ok := b.Featured.FeaturedImage(postID, featuredMaxWidth, featuredMaxHeight)
	if !ok || f.Src == "" {
		return nil
	}
	return &f
}

func (b *Builder) extract(postID string) *media.Extract {
	if b.Media == nil {
		return nil
	}
	e, ok := b.Media.MediaSummary(postID)
	if !ok {
		return nil
	}
	return &e
}

func (b *Builder) avatar(domain string) string {
	if b.Avatars == nil {
		return ""
	}
	u, ok := b.Avatars.AvatarURL(domain, ThumbnailWidth)
	if !ok {
		return ""
	}
	return u
}
