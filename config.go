package pubcards

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pubcards/opengraph"
	"github.com/eringen/pubcards/twittercards"
)

// SiteConfig holds all configuration for a pubcards site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Blog")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD and post bylines
	Locale      string `yaml:"locale"`      // og:locale, e.g. "en_US"

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/blog.db")

	AdminPassword string `yaml:"admin_password"` // Required: admin login password
	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	TwitterSite         string `yaml:"twitter_site"`          // Site handle; the admin setting takes precedence
	DisableTwitterCards bool   `yaml:"disable_twitter_cards"` // Emit Open Graph tags only
	Hosted              bool   `yaml:"hosted"`                // Selects the hosted fallback site handle

	MetricsEnabled bool   `yaml:"metrics_enabled"` // Serve Prometheus metrics on /metrics
	LogLevel       string `yaml:"log_level"`       // debug, info, warn, error (default info)

	PostCacheTTL time.Duration `yaml:"post_cache_ttl"` // Post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// LoadConfig reads a YAML config file, then applies environment overrides.
// An empty path skips the file.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("pubcards: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("pubcards: parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg, nil
}

// ConfigFromEnv builds a SiteConfig from environment variables alone.
func ConfigFromEnv() SiteConfig {
	var cfg SiteConfig
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

func (c *SiteConfig) applyEnv() {
	envString(&c.Name, "SITE_NAME")
	envString(&c.URL, "SITE_URL")
	envString(&c.Description, "SITE_DESCRIPTION")
	envString(&c.Author, "SITE_AUTHOR")
	envString(&c.Locale, "SITE_LOCALE")
	envString(&c.Addr, "ADDR")
	envString(&c.DatabasePath, "DATABASE_PATH")
	envString(&c.AdminPassword, "ADMIN_PASSWORD")
	envString(&c.SessionSecret, "ADMIN_SESSION_SECRET")
	envString(&c.TwitterSite, "TWITTER_SITE")
	envString(&c.LogLevel, "LOG_LEVEL")
	envBool(&c.CookieSecure, "COOKIE_SECURE")
	envBool(&c.DisableTwitterCards, "TWITTER_CARDS_DISABLED")
	envBool(&c.Hosted, "HOSTED")
	envBool(&c.MetricsEnabled, "METRICS_ENABLED")
	if v := os.Getenv("POST_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostCacheTTL = d
		}
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// TagFilter adjusts a page's Open Graph tags before Twitter Card tags are
// derived. post is nil on listing pages. A filter that sets a non-empty
// twitter:card keeps the card builder from choosing one.
type TagFilter func(tags *opengraph.TagSet, post *BlogPost)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the Echo instance before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithTagFilter adds a filter run on every page's Open Graph tags.
func WithTagFilter(fn TagFilter) Option {
	return func(a *App) {
		a.tagFilters = append(a.tagFilters, fn)
	}
}

// WithAuthorHandleResolver replaces the default author handle lookup, which
// returns the post's AuthorHandle field.
func WithAuthorHandleResolver(fn func(post BlogPost) string) Option {
	return func(a *App) {
		a.authorHandle = fn
	}
}

// WithAvatarSource replaces the site-icon avatar used for image-less posts.
func WithAvatarSource(src twittercards.AvatarSource) Option {
	return func(a *App) {
		a.avatars = src
	}
}
