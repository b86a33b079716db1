package pubcards

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName    xml.Name     `xml:"urlset"`
	XMLNS      string       `xml:"xmlns,attr"`
	XMLNSImage string       `xml:"xmlns:image,attr"`
	URLs       []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string        `xml:"loc"`
	LastMod string        `xml:"lastmod,omitempty"`
	Image   *sitemapImage `xml:"image:image,omitempty"`
}

type sitemapImage struct {
	Loc string `xml:"image:loc"`
}

func (a *App) renderSitemap(c echo.Context, posts []BlogPost) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
	}
	for _, p := range posts {
		u := sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.Date,
		}
		if img := a.featuredURL(p); img != "" {
			u.Image = &sitemapImage{Loc: img}
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS:      "http://www.sitemaps.org/schemas/sitemap/0.9",
		XMLNSImage: "http://www.google.com/schemas/sitemap-image/1.1",
		URLs:       urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

// featuredURL returns the absolute URL of a post's featured image, or "" for
// posts without one and for protected posts.
func (a *App) featuredURL(p BlogPost) string {
	switch {
	case p.Image == "" || p.Protected():
		return ""
	case IsAbsoluteURL(p.Image):
		return p.Image
	default:
		return a.uploadURL(p.Image)
	}
}
