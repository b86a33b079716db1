// Package markdown renders post bodies to HTML as a templ component. It
// covers the Markdown subset the admin editor writes, plus two ways to embed
// media: a line holding nothing but a YouTube, Vimeo or video file URL, and a
// line of raw media markup (img, video, iframe) which is sanitized before it
// is written out.
package markdown

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
)

var (
	reBold             = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBoldUnderscore   = regexp.MustCompile(`__(.+?)__`)
	reItalic           = regexp.MustCompile(`\*([^*]+)\*`)
	reItalicUnderscore = regexp.MustCompile(`_([^_]+)_`)
	reInlineCode       = regexp.MustCompile("`([^`]+)`")
	reLink             = regexp.MustCompile(`\[(.*?)\]\((.*?)\)(\^)?`)
	reOrderedItem      = regexp.MustCompile(`^\d+\.\s`)
	// ![alt](url){style} or ![alt](url){style|width|height}
	reImg = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)\{([^|}]*?)(?:\|(\d+)\|(\d+))?\}`)
)

const linkClass = `class="underline decoration-2 underline-offset-4"`

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderMarkdown(&buf, content)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderMarkdown writes the HTML representation of md to buf.
func RenderMarkdown(buf *bytes.Buffer, md string) {
	r := &renderer{buf: buf}
	for _, line := range strings.Split(md, "\n") {
		r.line(strings.TrimRight(line, "\r"))
	}
	r.closeBlock()
	r.closeCode()
}

type block int

const (
	blockNone block = iota
	blockPara
	blockList
	blockOrdered
	blockQuote
	blockTable
)

var blockEnd = map[block]string{
	blockPara:    "</p>",
	blockList:    "</ul>",
	blockOrdered: "</ol>",
	blockQuote:   "</blockquote>",
}

// renderer holds the state of one RenderMarkdown call. At most one block is
// open at a time; fenced code is tracked separately because its lines are
// written verbatim.
type renderer struct {
	buf *bytes.Buffer

	open      block
	tableBody bool

	code      bool
	codeBadge bool

	images int
}

func (r *renderer) write(s ...string) {
	for _, p := range s {
		r.buf.WriteString(p)
	}
}

func (r *renderer) inline(s string) string {
	return FormatInline(strings.TrimSpace(s), &r.images)
}

func (r *renderer) closeBlock() {
	switch r.open {
	case blockNone:
		return
	case blockTable:
		if r.tableBody {
			r.write("</tbody>")
		}
		r.write("</table>")
		r.tableBody = false
	default:
		r.write(blockEnd[r.open])
	}
	r.open = blockNone
}

// enter makes b the open block, writing startTag when it was not open yet.
// It reports whether b was newly opened.
func (r *renderer) enter(b block, startTag string) bool {
	if r.open == b {
		return false
	}
	r.closeBlock()
	r.write(startTag)
	r.open = b
	return true
}

func (r *renderer) closeCode() {
	if !r.code {
		return
	}
	r.write("</code></pre>")
	if r.codeBadge {
		r.write("</div>")
	}
	r.code, r.codeBadge = false, false
}

func (r *renderer) fence(lang string) {
	if r.code {
		r.closeCode()
		return
	}
	r.closeBlock()
	r.code = true
	if lang == "" {
		r.write(`<pre class="code-block"><code>`)
		return
	}
	r.codeBadge = true
	lang = html.EscapeString(lang)
	r.write(`<div class="code-block-wrapper"><span class="code-lang code-lang-`, lang, `">`, lang, `</span>`,
		`<pre class="code-block"><code class="language-`, lang, `">`)
}

func (r *renderer) line(line string) {
	if strings.HasPrefix(line, "```") {
		r.fence(strings.TrimSpace(line[3:]))
		return
	}
	if r.code {
		r.write(html.EscapeString(line), "\n")
		return
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		r.closeBlock()
		return
	}
	if embed := embedURL(trimmed); embed != "" {
		r.closeBlock()
		r.write(embed)
		return
	}
	if isMediaMarkup(trimmed) {
		r.closeBlock()
		r.write(sanitizeMedia(trimmed, &r.images))
		return
	}

	switch {
	case strings.HasPrefix(line, "---"):
		r.closeBlock()
		r.write("<hr/>")
	case headingLevel(line) > 0:
		n := headingLevel(line)
		tag := "h" + strconv.Itoa(n)
		r.closeBlock()
		r.write("<", tag, ">", r.inline(line[n+1:]), "</", tag, ">")
	case strings.HasPrefix(line, "|"):
		r.tableRow(line)
	case strings.HasPrefix(line, "- "):
		r.enter(blockList, "<ul>")
		r.write("<li>", r.inline(line[2:]), "</li>")
	case reOrderedItem.MatchString(line):
		r.enter(blockOrdered, "<ol>")
		r.write("<li>", r.inline(reOrderedItem.ReplaceAllString(line, "")), "</li>")
	case strings.HasPrefix(line, "> "):
		r.enter(blockQuote, "<blockquote>")
		r.write(r.inline(line[2:]))
	default:
		if !r.enter(blockPara, "<p>") {
			r.write(" ")
		}
		r.write(r.inline(line), "\n")
	}
}

// headingLevel returns 1-3 for "# ", "## " and "### " lines, 0 otherwise.
func headingLevel(line string) int {
	for n := 1; n <= 3; n++ {
		if strings.HasPrefix(line, strings.Repeat("#", n)+" ") {
			return n
		}
	}
	return 0
}

// tableRow writes one pipe-delimited row. The first row of a table is its
// header; a |---|---| separator only starts the body.
func (r *renderer) tableRow(line string) {
	if r.enter(blockTable, "<table>") {
		r.write("<thead><tr>")
		for _, cell := range tableCells(line) {
			r.write("<th>", r.inline(cell), "</th>")
		}
		r.write("</tr></thead>")
		return
	}
	if !r.tableBody {
		r.write("<tbody>")
		r.tableBody = true
	}
	if isTableSeparator(line) {
		return
	}
	r.write("<tr>")
	for _, cell := range tableCells(line) {
		r.write("<td>", r.inline(cell), "</td>")
	}
	r.write("</tr>")
}

func tableCells(line string) []string {
	cells := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func isTableSeparator(line string) bool {
	for _, cell := range tableCells(line) {
		if strings.Trim(cell, "-:") != "" {
			return false
		}
	}
	return true
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags, so
// emphasis never rewrites a URL inside an href or src attribute.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var b strings.Builder
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(fn(s))
			break
		}
		b.WriteString(fn(s[:lt]))
		gt := strings.IndexByte(s[lt:], '>')
		if gt < 0 {
			b.WriteString(s[lt:])
			break
		}
		b.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return b.String()
}

// FormatInline applies inline formatting to s: code spans, images, links,
// bold and italic. imageCount is shared across a document so only its first
// image is fetched with high priority.
func FormatInline(s string, imageCount *int) string {
	out := html.EscapeString(s)

	// Code spans go first and are held out as placeholders, so nothing inside
	// backticks is turned into an image, a link or emphasis.
	var spans []string
	out = reInlineCode.ReplaceAllStringFunc(out, func(m string) string {
		spans = append(spans, "<code>"+reInlineCode.FindStringSubmatch(m)[1]+"</code>")
		return "\x00IC" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	out = reImg.ReplaceAllStringFunc(out, func(m string) string {
		g := reImg.FindStringSubmatch(m)
		src := SafeURL(g[2])
		if src == "" {
			return g[1]
		}
		*imageCount++
		size := ""
		if g[4] != "" && g[5] != "" {
			size = ` width="` + g[4] + `" height="` + g[5] + `"`
		}
		return `<img ` + loadingAttr(*imageCount) + size + ` alt="` + g[1] + `" src="` + src + `" style="` + g[3] + `" decoding="async"/>`
	})
	out = reLink.ReplaceAllStringFunc(out, func(m string) string {
		g := reLink.FindStringSubmatch(m)
		href := SafeURL(g[2])
		if href == "" {
			return g[1]
		}
		attrs := linkClass
		if g[3] == "^" {
			attrs += ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `" ` + attrs + `>` + g[1] + `</a>`
	})
	out = ApplyOutsideTags(out, func(seg string) string {
		seg = reBold.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reBoldUnderscore.ReplaceAllString(seg, "<strong>$1</strong>")
		seg = reItalic.ReplaceAllString(seg, "<em>$1</em>")
		return reItalicUnderscore.ReplaceAllString(seg, "<em>$1</em>")
	})

	for i, span := range spans {
		out = strings.Replace(out, "\x00IC"+strconv.Itoa(i)+"\x00", span, 1)
	}
	return out
}

func loadingAttr(n int) string {
	if n == 1 {
		return `fetchpriority="high"`
	}
	return `loading="eager"`
}

// SafeURL validates raw for use in an HTML attribute and returns it escaped,
// or "" when its scheme is not allowed.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	u, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	}
	return ""
}
