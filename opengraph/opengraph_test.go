package opengraph

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTagSetKeepsInsertionOrder(t *testing.T) {
	ts := NewTagSet()
	ts.Set("og:title", "Hello")
	ts.Set("og:type", "article")
	ts.Set("og:title", "Hello again")

	want := []Tag{
		{Key: "og:title", Value: "Hello again"},
		{Key: "og:type", Value: "article"},
	}
	if diff := cmp.Diff(want, ts.Pairs()); diff != "" {
		t.Errorf("Pairs mismatch (-want +got):\n%s", diff)
	}
}

func TestTagSetDelete(t *testing.T) {
	ts := NewTagSet(Tag{"a", "1"}, Tag{"b", "2"}, Tag{"c", "3"})
	ts.Delete("b")
	ts.Delete("missing")

	if diff := cmp.Diff([]string{"a", "c"}, ts.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
	if ts.Has("b") {
		t.Error("b should be gone")
	}
	ts.Set("b", "again")
	if diff := cmp.Diff([]string{"a", "c", "b"}, ts.Keys()); diff != "" {
		t.Errorf("re-added key should go last (-want +got):\n%s", diff)
	}
}

func TestTagSetCloneIsIndependent(t *testing.T) {
	orig := NewTagSet(Tag{"og:title", "T"})
	clone := orig.Clone()
	clone.Set("twitter:card", "summary")
	clone.Set("og:title", "changed")

	if orig.Len() != 1 {
		t.Fatalf("original Len = %d, want 1", orig.Len())
	}
	if got := orig.Value("og:title"); got != "T" {
		t.Errorf("original og:title = %q, want %q", got, "T")
	}
}

func TestNilTagSet(t *testing.T) {
	var ts *TagSet
	if ts.Len() != 0 || ts.Has("x") || ts.Keys() != nil {
		t.Error("nil TagSet should behave as empty")
	}
	if ts.Clone().Len() != 0 {
		t.Error("clone of nil should be empty")
	}
	for range ts.All() {
		t.Error("nil TagSet should not yield")
	}
}

func TestFromPageArticle(t *testing.T) {
	ts := FromPage(Page{
		Title:         "Post",
		Description:   "About things",
		URL:           "https://example.com/blog/post/",
		Type:          "article",
		SiteName:      "Example",
		Image:         "https://example.com/public/uploads/a.jpg",
		ImageWidth:    800,
		ImageHeight:   600,
		PublishedTime: "2024-01-15",
		Author:        "Ada",
		Tags:          []string{"go", "web"},
	})

	want := []Tag{
		{"og:type", "article"},
		{"og:title", "Post"},
		{"og:url", "https://example.com/blog/post/"},
		{"og:description", "About things"},
		{"og:site_name", "Example"},
		{"og:image", "https://example.com/public/uploads/a.jpg"},
		{"og:image:width", "800"},
		{"og:image:height", "600"},
		{"article:published_time", "2024-01-15"},
		{"article:author", "Ada"},
		{"article:tag", "go, web"},
	}
	if diff := cmp.Diff(want, ts.Pairs()); diff != "" {
		t.Errorf("FromPage mismatch (-want +got):\n%s", diff)
	}
}

func TestFromPageDefaultsAndOmissions(t *testing.T) {
	ts := FromPage(Page{Title: "Home", PublishedTime: "2024-01-01"})
	if got := ts.Value("og:type"); got != "website" {
		t.Errorf("og:type = %q, want website", got)
	}
	for _, key := range []string{"og:description", "og:image", "article:published_time"} {
		if ts.Has(key) {
			t.Errorf("%s should be omitted", key)
		}
	}
}

func TestRenderEscapesAndFilters(t *testing.T) {
	ts := NewTagSet(
		Tag{"og:title", `Tom & "Jerry"`},
		Tag{"twitter:card", "summary"},
	)
	rename := func(tag string) string {
		if strings.Contains(tag, "twitter:") {
			return strings.Replace(tag, "property=", "name=", 1)
		}
		return tag
	}

	var buf bytes.Buffer
	if err := Render(ts, rename).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := `<meta property="og:title" content="Tom &amp; &#34;Jerry&#34;" />` + "\n" +
		`<meta name="twitter:card" content="summary" />` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
}
