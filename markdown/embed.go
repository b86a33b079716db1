package markdown

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// FrameHosts are the only hosts an embedded iframe may load from.
var FrameHosts = []string{"www.youtube-nocookie.com", "www.youtube.com", "player.vimeo.com"}

var (
	reYouTubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	reVimeoID   = regexp.MustCompile(`^/(\d+)/?$`)
)

var videoExts = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
}

// embedURL turns a line holding a single YouTube, Vimeo or video file URL into
// its player markup. It returns "" for anything else.
func embedURL(line string) string {
	if strings.ContainsAny(line, " \t") {
		return ""
	}
	u, err := url.Parse(line)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch host {
	case "youtube.com", "m.youtube.com", "youtu.be":
		id := u.Query().Get("v")
		if host == "youtu.be" {
			id = strings.Trim(u.Path, "/")
		}
		if !reYouTubeID.MatchString(id) {
			return ""
		}
		return iframe("https://www.youtube-nocookie.com/embed/"+id, "YouTube video")
	case "vimeo.com":
		m := reVimeoID.FindStringSubmatch(u.Path)
		if m == nil {
			return ""
		}
		return iframe("https://player.vimeo.com/video/"+m[1], "Vimeo video")
	}

	typ, ok := videoExts[strings.ToLower(path.Ext(u.Path))]
	if !ok {
		return ""
	}
	src := html.EscapeString(u.String())
	return `<figure class="embed"><video controls preload="metadata"><source src="` + src + `" type="` + typ + `"></video></figure>`
}

func iframe(src, title string) string {
	return `<figure class="embed"><iframe src="` + src + `" title="` + title + `" loading="lazy" allowfullscreen></iframe></figure>`
}

// mediaAttrs lists the tags raw media markup may use and the attributes kept
// on each of them.
var mediaAttrs = map[string][]string{
	"p":          nil,
	"br":         nil,
	"figure":     nil,
	"figcaption": nil,
	"img":        {"src", "alt", "width", "height"},
	"video":      {"src", "poster", "width", "height", "controls", "loop", "muted", "playsinline"},
	"source":     {"src", "type"},
	"iframe":     {"src", "width", "height", "title", "allowfullscreen"},
}

var voidTags = map[string]bool{"img": true, "br": true, "source": true}

var booleanAttrs = map[string]bool{"controls": true, "loop": true, "muted": true, "playsinline": true, "allowfullscreen": true}

// isMediaMarkup reports whether line starts with a tag from mediaAttrs.
func isMediaMarkup(line string) bool {
	if !strings.HasPrefix(line, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(line))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
		name, _ := z.TagName()
		_, ok := mediaAttrs[string(name)]
		return ok
	}
	return false
}

// sanitizeMedia rewrites a line of raw media markup keeping only the tags and
// attributes in mediaAttrs. URLs go through SafeURL, iframes must point at one
// of FrameHosts, and text is escaped.
func sanitizeMedia(line string, imageCount *int) string {
	var b strings.Builder
	dropped := 0
	z := html.NewTokenizer(strings.NewReader(line))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.WriteString(html.EscapeString(string(z.Text())))
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "iframe" && dropped > 0 {
				dropped--
				continue
			}
			if _, ok := mediaAttrs[tok.Data]; ok && !voidTags[tok.Data] {
				b.WriteString("</" + tok.Data + ">")
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			allowed, ok := mediaAttrs[tok.Data]
			if !ok {
				continue
			}
			if tok.Data == "iframe" && !frameAllowed(attrValue(tok, "src")) {
				dropped++
				continue
			}
			b.WriteString("<" + tok.Data)
			if tok.Data == "img" {
				*imageCount++
				b.WriteString(" " + loadingAttr(*imageCount))
			}
			for _, name := range allowed {
				val, present := attrLookup(tok, name)
				switch {
				case !present:
				case booleanAttrs[name]:
					b.WriteString(" " + name)
				case name == "src" || name == "poster":
					if safe := SafeURL(html.EscapeString(val)); safe != "" {
						b.WriteString(" " + name + `="` + safe + `"`)
					}
				default:
					b.WriteString(" " + name + `="` + html.EscapeString(val) + `"`)
				}
			}
			if tok.Data == "img" {
				b.WriteString(` decoding="async"`)
			}
			b.WriteString(">")
		}
	}
}

func frameAllowed(src string) bool {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil || u.Scheme != "https" {
		return false
	}
	for _, h := range FrameHosts {
		if strings.EqualFold(u.Host, h) {
			return true
		}
	}
	return false
}

func attrLookup(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(tok html.Token, key string) string {
	v, _ := attrLookup(tok, key)
	return v
}
