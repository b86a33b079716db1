package pubcards

import (
	"bytes"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubcards/markdown"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	DC      string     `xml:"xmlns:dc,attr"`
	Content string     `xml:"xmlns:content,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Body        string        `xml:"content:encoded,omitempty"`
	Author      string        `xml:"dc:creator,omitempty"`
	PubDate     string        `xml:"pubDate"`
	GUID        string        `xml:"guid"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int    `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

func (a *App) renderRSS(c echo.Context, posts []BlogPost) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		pubDate := ""
		if t, err := time.Parse("2006-01-02", p.Date); err == nil {
			pubDate = t.Format(time.RFC1123Z)
		}
		postURL := BuildURL(base, "blog", p.Slug)
		item := rssItem{
			Title:   p.Title,
			Link:    postURL,
			Author:  postAuthor(p, a.Config),
			PubDate: pubDate,
			GUID:    postURL,
		}
		// Protected posts keep their summary, body and image out of the feed.
		if !p.Protected() {
			item.Description = p.Summary
			item.Body = renderBody(p.Content)
			item.Enclosure = a.enclosure(p)
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		DC:      "http://purl.org/dc/elements/1.1/",
		Content: "http://purl.org/rss/1.0/modules/content/",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}

// enclosure describes an uploaded featured image. External images have no
// known length and are left out.
func (a *App) enclosure(p BlogPost) *rssEnclosure {
	if p.Image == "" || IsAbsoluteURL(p.Image) {
		return nil
	}
	img, err := a.Store.GetImage(p.Image)
	if err != nil {
		return nil
	}
	return &rssEnclosure{URL: a.uploadURL(img.Filename), Length: img.Size, Type: "image/jpeg"}
}

func renderBody(content string) string {
	if content == "" {
		return ""
	}
	var buf bytes.Buffer
	markdown.RenderMarkdown(&buf, content)
	return buf.String()
}
