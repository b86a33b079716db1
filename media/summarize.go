package media

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/eringen/pubcards/markdown"
)

var (
	reYouTube = regexp.MustCompile(`(?:youtube(?:-nocookie)?\.com/(?:embed/|watch\?v=)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	reVimeo   = regexp.MustCompile(`player\.vimeo\.com/video/(\d+)`)
)

// Summarize renders post content the way the post page does and returns the
// media summary of the result, so only media a reader actually sees is
// counted. Relative URLs are resolved against base when base is set.
func Summarize(content, base string) Extract {
	var buf bytes.Buffer
	markdown.RenderMarkdown(&buf, content)
	return SummarizeHTML(buf.String(), base)
}

// SummarizeHTML returns the media summary of rendered HTML. Markup inside
// code and pre elements is ignored, and images repeated under the same URL
// are counted once.
func SummarizeHTML(body, base string) Extract {
	s := &scanner{seen: make(map[string]bool)}
	if base != "" {
		if u, err := url.Parse(base); err == nil {
			s.base = u
		}
	}
	s.scan(body)

	e := Extract{
		Images: s.images,
		Count:  Count{Image: len(s.images), Video: len(s.videos)},
	}
	switch {
	case len(s.videos) > 0:
		e.Type = TypeVideo
		e.Video = s.videos[0].src
		e.Image = s.videos[0].poster
		if e.Image == "" && len(s.images) > 0 {
			e.Image = s.images[0].URL
		}
	case len(s.images) > 1:
		e.Type = TypeGallery
		e.Image = s.images[0].URL
	case len(s.images) == 1:
		e.Type = TypeImage
		e.Image = s.images[0].URL
	default:
		e.Type = TypeOther
	}
	return e
}

type video struct {
	src    string
	poster string
}

type scanner struct {
	base   *url.URL
	images []Image
	videos []video
	seen   map[string]bool

	inVideo bool
	inCode  int
}

func (s *scanner) scan(content string) {
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed trailing markup; keep what was found so far.
			return
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.Data == "code" || tok.Data == "pre":
				s.inCode++
			case s.inCode == 0:
				s.tag(tok, tt == html.SelfClosingTagToken)
			}
		case html.EndTagToken:
			switch z.Token().Data {
			case "code", "pre":
				if s.inCode > 0 {
					s.inCode--
				}
			case "video":
				s.inVideo = false
			}
		}
	}
}

func (s *scanner) tag(tok html.Token, selfClosing bool) {
	switch tok.Data {
	case "img":
		s.addImage(attr(tok, "src"), atoi(attr(tok, "width")), atoi(attr(tok, "height")))
	case "video":
		v := video{src: s.resolve(attr(tok, "src")), poster: s.resolve(attr(tok, "poster"))}
		s.videos = append(s.videos, v)
		s.inVideo = !selfClosing
	case "source":
		if s.inVideo && len(s.videos) > 0 && s.videos[len(s.videos)-1].src == "" {
			s.videos[len(s.videos)-1].src = s.resolve(attr(tok, "src"))
		}
	case "iframe":
		src := attr(tok, "src")
		if m := reYouTube.FindStringSubmatch(src); m != nil {
			s.videos = append(s.videos, video{
				src:    "https://www.youtube.com/watch?v=" + m[1],
				poster: "https://img.youtube.com/vi/" + m[1] + "/0.jpg",
			})
		} else if reVimeo.MatchString(src) {
			s.videos = append(s.videos, video{src: s.resolve(src)})
		}
	}
}

func (s *scanner) addImage(src string, width, height int) {
	src = s.resolve(src)
	if src == "" || s.seen[src] {
		return
	}
	s.seen[src] = true
	s.images = append(s.images, Image{URL: src, Width: width, Height: height})
}

func (s *scanner) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || s.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return s.base.ResolveReference(u).String()
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
