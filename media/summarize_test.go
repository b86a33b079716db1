package media

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSummarizeNoMedia(t *testing.T) {
	got := Summarize("# Title\n\nJust words, no pictures.", "https://example.com")
	want := Extract{Type: TypeOther}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeSingleMarkdownImage(t *testing.T) {
	got := Summarize("Intro\n\n![a cat](/public/uploads/cat.jpg){float:left|800|600}\n", "https://example.com")
	want := Extract{
		Type:   TypeImage,
		Image:  "https://example.com/public/uploads/cat.jpg",
		Images: []Image{{URL: "https://example.com/public/uploads/cat.jpg", Width: 800, Height: 600}},
		Count:  Count{Image: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeGalleryMixedSyntax(t *testing.T) {
	content := `![one](https://cdn.example.com/1.jpg){}
<p><img src="/public/uploads/2.jpg" width="640" height="480"></p>
![three](https://cdn.example.com/3.jpg){width:50%}
![again](https://cdn.example.com/1.jpg){}`

	got := Summarize(content, "https://example.com/")
	if got.Type != TypeGallery {
		t.Errorf("Type = %q, want gallery", got.Type)
	}
	wantImages := []Image{
		{URL: "https://cdn.example.com/1.jpg"},
		{URL: "https://example.com/public/uploads/2.jpg", Width: 640, Height: 480},
		{URL: "https://cdn.example.com/3.jpg"},
	}
	if diff := cmp.Diff(wantImages, got.Images); diff != "" {
		t.Errorf("Images mismatch (-want +got):\n%s", diff)
	}
	if got.Count.Image != 3 {
		t.Errorf("Count.Image = %d, want 3 (duplicates counted once)", got.Count.Image)
	}
	if got.Image != "https://cdn.example.com/1.jpg" {
		t.Errorf("Image = %q, want first image", got.Image)
	}
}

func TestSummarizeVideoWithPoster(t *testing.T) {
	content := `![still](/a.jpg){}
<video poster="/posters/clip.jpg" controls><source src="/clips/clip.mp4" type="video/mp4"></video>`

	got := Summarize(content, "https://example.com")
	if got.Type != TypeVideo {
		t.Fatalf("Type = %q, want video", got.Type)
	}
	if got.Image != "https://example.com/posters/clip.jpg" {
		t.Errorf("Image = %q, want poster frame", got.Image)
	}
	if got.Video != "https://example.com/clips/clip.mp4" {
		t.Errorf("Video = %q, want source src", got.Video)
	}
	if got.Count.Video != 1 || got.Count.Image != 1 {
		t.Errorf("Count = %+v, want 1 image and 1 video", got.Count)
	}
}

func TestSummarizeYouTubeEmbed(t *testing.T) {
	got := Summarize(`<iframe src="https://www.youtube.com/embed/dQw4w9WgXcQ" allowfullscreen></iframe>`, "")
	if got.Type != TypeVideo {
		t.Fatalf("Type = %q, want video", got.Type)
	}
	if got.Image != "https://img.youtube.com/vi/dQw4w9WgXcQ/0.jpg" {
		t.Errorf("Image = %q, want youtube thumbnail", got.Image)
	}
}

func TestSummarizeVideoWithoutPosterFallsBackToImage(t *testing.T) {
	got := Summarize("<video src=\"https://example.com/v.mp4\"></video>\n\n![x](https://example.com/x.jpg){}", "")
	if got.Image != "https://example.com/x.jpg" {
		t.Errorf("Image = %q, want first image as fallback", got.Image)
	}
}

func TestSummarizeIgnoresCodeFences(t *testing.T) {
	content := "Example:\n\n```html\n<img src=\"/nope.jpg\">\n![nope](/nope2.jpg)\n```\n"
	got := Summarize(content, "https://example.com")
	if got.Count.Image != 0 || got.Type != TypeOther {
		t.Errorf("got %+v, want no media", got)
	}
}

func TestSummarizeIgnoresInlineCode(t *testing.T) {
	got := Summarize("To embed a picture write `![alt](https://example.com/cat.jpg){}` in your post.", "")
	if got.Type != TypeOther || got.Count.Image != 0 {
		t.Errorf("got %+v, want no media", got)
	}
}

func TestSummarizeNeedsRenderableImageSyntax(t *testing.T) {
	// Without the {style} suffix the page shows a link, not an image.
	got := Summarize("![alt](https://example.com/cat.jpg)", "")
	if got.Count.Image != 0 {
		t.Errorf("Count.Image = %d, want 0", got.Count.Image)
	}
}

func TestSummarizeBareVideoURLs(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantVideo string
		wantImage string
	}{
		{"youtube", "Watch this:\n\nhttps://www.youtube.com/watch?v=dQw4w9WgXcQ\n", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://img.youtube.com/vi/dQw4w9WgXcQ/0.jpg"},
		{"youtu.be", "https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://img.youtube.com/vi/dQw4w9WgXcQ/0.jpg"},
		{"vimeo", "https://vimeo.com/76979871", "https://player.vimeo.com/video/76979871", ""},
		{"relative path is plain text", "/public/uploads/clip.mp4", "", ""},
		{"hosted file", "https://cdn.example.com/clip.webm", "https://cdn.example.com/clip.webm", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.content, "")
			if tt.wantVideo == "" {
				if got.Count.Video != 0 {
					t.Fatalf("got %+v, want no video", got)
				}
				return
			}
			if got.Type != TypeVideo || got.Video != tt.wantVideo || got.Image != tt.wantImage {
				t.Errorf("got %+v, want video %q with image %q", got, tt.wantVideo, tt.wantImage)
			}
		})
	}
}

func TestSummarizeDropsForeignIframes(t *testing.T) {
	got := Summarize(`<iframe src="https://evil.example.com/embed/dQw4w9WgXcQ"></iframe>`, "")
	if got.Count.Video != 0 {
		t.Errorf("got %+v, want the frame ignored", got)
	}
}

func TestSummarizeHTMLSkipsPreformattedMarkup(t *testing.T) {
	body := `<p>Markup:</p><pre><code>&lt;img src="/no.jpg"&gt;</code></pre><pre><img src="/still-no.jpg"></pre><img src="/yes.jpg">`
	got := SummarizeHTML(body, "https://example.com")
	want := []Image{{URL: "https://example.com/yes.jpg"}}
	if diff := cmp.Diff(want, got.Images); diff != "" {
		t.Errorf("Images mismatch (-want +got):\n%s", diff)
	}
}

func TestFirstImageURL(t *testing.T) {
	tests := []struct {
		name string
		e    Extract
		want string
	}{
		{"images preferred", Extract{Image: "b", Images: []Image{{URL: "a"}}}, "a"},
		{"image fallback", Extract{Image: "b"}, "b"},
		{"empty first entry", Extract{Image: "b", Images: []Image{{}}}, "b"},
		{"nothing", Extract{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.FirstImageURL(); got != tt.want {
				t.Errorf("FirstImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
