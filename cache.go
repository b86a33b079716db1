package pubcards

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/eringen/pubcards/media"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// snapshot is one load of the published posts. Media summaries are filled in
// lazily and live exactly as long as the posts they were computed from.
type snapshot struct {
	posts   []BlogPost
	tags    []string
	extract map[string]media.Extract
	loaded  time.Time
}

// PostCache keeps published posts, their tags and their media summaries in
// memory for ttl. Saving or deleting content drops all three at once.
type PostCache struct {
	store *Store
	ttl   time.Duration

	mu   sync.RWMutex
	snap *snapshot
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

// Invalidate forces the next read to reload from the store.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *PostCache) fresh(s *snapshot) bool {
	return s != nil && time.Since(s.loaded) < c.ttl
}

// current returns a fresh snapshot, reloading under the write lock when the
// cached one is missing or expired.
func (c *PostCache) current() (*snapshot, error) {
	c.mu.RLock()
	s := c.snap
	c.mu.RUnlock()
	if c.fresh(s) {
		return s, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh(c.snap) {
		return c.snap, nil
	}
	posts, err := c.store.ListPosts("")
	if err != nil {
		return nil, err
	}
	tags, err := c.store.ListTags()
	if err != nil {
		return nil, err
	}
	c.snap = &snapshot{
		posts:   posts,
		tags:    tags,
		extract: make(map[string]media.Extract),
		loaded:  time.Now(),
	}
	return c.snap, nil
}

// ListPosts returns published posts, optionally only those tagged tag.
// Tags match case-insensitively.
func (c *PostCache) ListPosts(tag string) ([]BlogPost, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	want := normalizeTag(tag)
	if want == "" {
		return s.posts, nil
	}
	var out []BlogPost
	for _, p := range s.posts {
		if hasTag(p, want) {
			out = append(out, p)
		}
	}
	return out, nil
}

func hasTag(p BlogPost, normalized string) bool {
	for _, t := range p.Tags {
		if normalizeTag(t) == normalized {
			return true
		}
	}
	return false
}

// ListTags returns all unique tags from published posts.
func (c *PostCache) ListTags() ([]string, error) {
	s, err := c.current()
	if err != nil {
		return nil, err
	}
	return s.tags, nil
}

// GetPost returns a published post by slug, or ErrNotFound.
func (c *PostCache) GetPost(slug string) (BlogPost, error) {
	s, err := c.current()
	if err != nil {
		return BlogPost{}, err
	}
	return s.post(slug)
}

func (s *snapshot) post(slug string) (BlogPost, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return BlogPost{}, ErrNotFound
}

// MediaSummary returns the media summary of a published post, computing it
// on first use. Relative media URLs are resolved against baseURL.
func (c *PostCache) MediaSummary(slug, baseURL string) (media.Extract, error) {
	s, err := c.current()
	if err != nil {
		return media.Extract{}, err
	}
	post, err := s.post(slug)
	if err != nil {
		return media.Extract{}, err
	}

	c.mu.RLock()
	e, ok := s.extract[slug]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}
	e = media.Summarize(post.Content, baseURL)
	// Memoized into the snapshot the post came from; if that was invalidated
	// meanwhile the entry is simply dropped with it.
	c.mu.Lock()
	s.extract[slug] = e
	c.mu.Unlock()
	return e, nil
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
