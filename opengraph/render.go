package opengraph

import (
	"bytes"
	"context"
	"html"
	"io"

	"github.com/a-h/templ"
)

// OutputFilter rewrites one serialized <meta> element before it is written.
type OutputFilter func(tag string) string

// Render returns a templ.Component that writes one <meta property="..."> element
// per tag, in order, passing each through filters.
func Render(ts *TagSet, filters ...OutputFilter) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		WriteTags(&buf, ts, filters...)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// WriteTags writes the serialized tags of ts to buf.
func WriteTags(buf *bytes.Buffer, ts *TagSet, filters ...OutputFilter) {
	for key, value := range ts.All() {
		tag := `<meta property="` + html.EscapeString(key) + `" content="` + html.EscapeString(value) + `" />`
		for _, f := range filters {
			tag = f(tag)
		}
		buf.WriteString(tag)
		buf.WriteString("\n")
	}
}
