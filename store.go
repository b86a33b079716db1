package pubcards

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// SettingsStore is a key/value store for site options.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Store wraps a SQLite database and provides CRUD operations for blog posts,
// uploaded images and site settings.
type Store struct {
	db *sql.DB
}

var _ SettingsStore = (*Store)(nil)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers wait
	// instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// postColumns are added after the initial posts table; each migration is
// skipped when the column already exists.
var postColumns = []string{
	`ALTER TABLE posts ADD COLUMN published INTEGER NOT NULL DEFAULT 1;`,
	`ALTER TABLE posts ADD COLUMN author TEXT NOT NULL DEFAULT '';`,
	`ALTER TABLE posts ADD COLUMN author_handle TEXT NOT NULL DEFAULT '';`,
	`ALTER TABLE posts ADD COLUMN image TEXT NOT NULL DEFAULT '';`,
	`ALTER TABLE posts ADD COLUMN password TEXT NOT NULL DEFAULT '';`,
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    tags TEXT NOT NULL,
    summary TEXT NOT NULL,
    content TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	if err != nil {
		return err
	}
	for _, stmt := range postColumns {
		if _, err := s.db.Exec(stmt); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
				continue
			}
			return err
		}
	}
	return nil
}

const postSelect = `SELECT slug, title, date, tags, summary, content, published, author, author_handle, image, password FROM posts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (BlogPost, error) {
	var p BlogPost
	var tags string
	var published int
	if err := row.Scan(&p.Slug, &p.Title, &p.Date, &tags, &p.Summary, &p.Content, &published,
		&p.Author, &p.AuthorHandle, &p.Image, &p.Password); err != nil {
		return BlogPost{}, err
	}
	p.Tags = ParseTags(tags)
	p.Link = "/blog/" + p.Slug
	p.Published = published == 1
	return p, nil
}

func (s *Store) queryPosts(query string, args ...any) ([]BlogPost, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns all published posts ordered by date descending.
// If tag is non-empty, results are filtered to posts containing that tag.
func (s *Store) ListPosts(tag string) ([]BlogPost, error) {
	if tag == "" {
		return s.queryPosts(postSelect + ` WHERE published = 1 ORDER BY date DESC`)
	}
	normalizedTag := strings.ToLower(strings.TrimSpace(tag))
	return s.queryPosts(postSelect+` WHERE published = 1 AND instr(lower(tags), ',' || ? || ',') > 0 ORDER BY date DESC`, normalizedTag)
}

// ListTags returns a sorted, deduplicated slice of all tags from published posts.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags FROM posts WHERE published = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var result []string
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a single published post by slug.
func (s *Store) GetPost(slug string) (BlogPost, error) {
	return scanPost(s.db.QueryRow(postSelect+` WHERE slug = ? AND published = 1`, slug))
}

// GetPostAny returns a post by slug regardless of published status (for admin).
func (s *Store) GetPostAny(slug string) (BlogPost, error) {
	return scanPost(s.db.QueryRow(postSelect+` WHERE slug = ?`, slug))
}

// ListAllPosts returns every post (published and drafts) ordered by date descending.
func (s *Store) ListAllPosts() ([]BlogPost, error) {
	return s.queryPosts(postSelect + ` ORDER BY date DESC`)
}

// SavePost upserts a blog post. Tags are normalized to lowercase.
func (s *Store) SavePost(p BlogPost) error {
	normalizedTags := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		normalizedTags[i] = strings.ToLower(strings.TrimSpace(t))
	}
	tagString := "," + strings.Join(normalizedTags, ",") + ","
	published := 0
	if p.Published {
		published = 1
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO posts (slug, title, date, tags, summary, content, published, author, author_handle, image, password) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Date, tagString, p.Summary, p.Content, published,
		p.Author, p.AuthorHandle, p.Image, p.Password)
	return err
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(slug string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

// SaveImage upserts uploaded image metadata.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// GetImage returns the metadata of one uploaded image.
func (s *Store) GetImage(filename string) (Image, error) {
	var img Image
	err := s.db.QueryRow(`SELECT filename, original_name, width, height, size, uploaded_at FROM images WHERE filename = ?`, filename).
		Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt)
	if err != nil {
		return Image{}, err
	}
	return img, nil
}

// ListImages returns all uploaded images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, width, height, size, uploaded_at FROM images ORDER BY uploaded_at DESC, filename`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes image metadata by filename.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// GetSetting returns the value stored under key, or "" if unset.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSetting stores value under key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ParseTags splits a comma-delimited tag string (e.g. ",go,web,") into a slice.
func ParseTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
