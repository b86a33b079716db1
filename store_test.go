package pubcards

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func savePosts(t *testing.T, s *Store, posts ...BlogPost) {
	t.Helper()
	for _, p := range posts {
		if err := s.SavePost(p); err != nil {
			t.Fatalf("SavePost(%s) failed: %v", p.Slug, err)
		}
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)

	post := BlogPost{
		Slug:         "test-post",
		Title:        "Test Post",
		Date:         "2024-01-15",
		Tags:         []string{"go", "testing"},
		Summary:      "A test post summary",
		Content:      "# Test Content\n\nThis is test content.",
		Published:    true,
		Author:       "Ada",
		AuthorHandle: "ada",
		Image:        "cover.jpg",
		Password:     "hunter2",
	}
	savePosts(t, s, post)

	got, err := s.GetPost("test-post")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	want := post
	want.Link = "/blog/test-post"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetPost mismatch (-want +got):\n%s", diff)
	}
	if !got.Protected() {
		t.Error("post with a password should be protected")
	}
}

func TestSavePostUpdate(t *testing.T) {
	s := setupTestStore(t)

	post := BlogPost{Slug: "update-test", Title: "Original Title", Date: "2024-01-01", Tags: []string{"original"}, Published: true}
	savePosts(t, s, post)

	post.Title = "Updated Title"
	post.Tags = []string{"updated", "modified"}
	post.Password = ""
	savePosts(t, s, post)

	got, err := s.GetPost("update-test")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
	}
	if diff := cmp.Diff([]string{"updated", "modified"}, got.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.GetPost("nonexistent"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetPostUnpublished(t *testing.T) {
	s := setupTestStore(t)
	savePosts(t, s, BlogPost{Slug: "draft", Title: "Draft", Date: "2024-01-01", Published: false})

	if _, err := s.GetPost("draft"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPost should return ErrNoRows for unpublished, got %v", err)
	}
	got, err := s.GetPostAny("draft")
	if err != nil {
		t.Fatalf("GetPostAny failed: %v", err)
	}
	if got.Published {
		t.Error("Published should be false")
	}
}

func TestListPosts(t *testing.T) {
	s := setupTestStore(t)
	savePosts(t, s,
		BlogPost{Slug: "post-1", Title: "Post 1", Date: "2024-01-01", Tags: []string{"go"}, Published: true},
		BlogPost{Slug: "post-2", Title: "Post 2", Date: "2024-01-02", Tags: []string{"go", "web"}, Published: true},
		BlogPost{Slug: "post-3", Title: "Post 3", Date: "2024-01-03", Tags: []string{"rust"}, Published: true},
		BlogPost{Slug: "post-4", Title: "Post 4", Date: "2024-01-04", Tags: []string{"go"}, Published: false},
	)

	tests := []struct {
		tag  string
		want []string
	}{
		{"", []string{"post-3", "post-2", "post-1"}},
		{"go", []string{"post-2", "post-1"}},
		{"GO", []string{"post-2", "post-1"}},
		{"rust", []string{"post-3"}},
		{"nonexistent", nil},
	}
	for _, tt := range tests {
		got, err := s.ListPosts(tt.tag)
		if err != nil {
			t.Fatalf("ListPosts(%q) failed: %v", tt.tag, err)
		}
		var slugs []string
		for _, p := range got {
			slugs = append(slugs, p.Slug)
		}
		if diff := cmp.Diff(tt.want, slugs); diff != "" {
			t.Errorf("ListPosts(%q) mismatch (-want +got):\n%s", tt.tag, diff)
		}
	}
}

func TestListAllPosts(t *testing.T) {
	s := setupTestStore(t)
	savePosts(t, s,
		BlogPost{Slug: "published", Title: "Published", Date: "2024-01-01", Published: true},
		BlogPost{Slug: "unpublished", Title: "Unpublished", Date: "2024-01-02", Published: false},
	)

	got, err := s.ListAllPosts()
	if err != nil {
		t.Fatalf("ListAllPosts failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ListAllPosts count = %d, want 2 (including unpublished)", len(got))
	}
}

func TestListTags(t *testing.T) {
	s := setupTestStore(t)
	savePosts(t, s,
		BlogPost{Slug: "p1", Title: "P1", Date: "2024-01-01", Tags: []string{"Go", "Web"}, Published: true},
		BlogPost{Slug: "p2", Title: "P2", Date: "2024-01-02", Tags: []string{"go", "api"}, Published: true},
		BlogPost{Slug: "p3", Title: "P3", Date: "2024-01-03", Tags: []string{"rust"}, Published: false},
	)

	got, err := s.ListTags()
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if diff := cmp.Diff([]string{"api", "go", "web"}, got); diff != "" {
		t.Errorf("ListTags mismatch (-want +got):\n%s", diff)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	savePosts(t, s, BlogPost{Slug: "to-delete", Title: "To Delete", Date: "2024-01-01", Published: true})

	if err := s.DeletePost("to-delete"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost("to-delete"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Post should not exist after delete, got err: %v", err)
	}
	if err := s.DeletePost("nonexistent"); err != nil {
		t.Errorf("DeletePost on nonexistent should not error, got: %v", err)
	}
}

func TestImages(t *testing.T) {
	s := setupTestStore(t)

	older := Image{Filename: "a.jpg", OriginalName: "A.png", Width: 800, Height: 600, Size: 1234, UploadedAt: "2024-01-01T00:00:00Z"}
	newer := Image{Filename: "b.jpg", OriginalName: "B.png", Width: 100, Height: 100, Size: 99, UploadedAt: "2024-02-01T00:00:00Z"}
	for _, img := range []Image{older, newer} {
		if err := s.SaveImage(img); err != nil {
			t.Fatalf("SaveImage failed: %v", err)
		}
	}

	got, err := s.GetImage("a.jpg")
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if diff := cmp.Diff(older, got); diff != "" {
		t.Errorf("GetImage mismatch (-want +got):\n%s", diff)
	}

	list, err := s.ListImages()
	if err != nil {
		t.Fatalf("ListImages failed: %v", err)
	}
	if diff := cmp.Diff([]Image{newer, older}, list); diff != "" {
		t.Errorf("ListImages mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteImage("a.jpg"); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if _, err := s.GetImage("a.jpg"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetImage after delete: got %v, want sql.ErrNoRows", err)
	}
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)

	got, err := s.GetSetting("twitter_site")
	if err != nil {
		t.Fatalf("GetSetting on unset key failed: %v", err)
	}
	if got != "" {
		t.Errorf("unset setting = %q, want empty", got)
	}

	for _, v := range []string{"first", "second"} {
		if err := s.SetSetting("twitter_site", v); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
	}
	got, err = s.GetSetting("twitter_site")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if got != "second" {
		t.Errorf("GetSetting = %q, want %q", got, "second")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	savePosts(t, s, BlogPost{Slug: "kept", Title: "Kept", Date: "2024-01-01", Published: true, AuthorHandle: "ada"})
	s.Close()

	// Migrations run again on open and must tolerate existing columns.
	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	got, err := s.GetPost("kept")
	if err != nil {
		t.Fatalf("GetPost after reopen failed: %v", err)
	}
	if got.AuthorHandle != "ada" {
		t.Errorf("AuthorHandle = %q, want %q", got.AuthorHandle, "ada")
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{",", nil},
		{",go,", []string{"go"}},
		{",go,web,", []string{"go", "web"}},
		{",go, web ,rust,", []string{"go", "web", "rust"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseTags(tt.input)); diff != "" {
			t.Errorf("ParseTags(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}
