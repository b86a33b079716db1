// Package pubcards is a blog publishing engine built with Go, Echo, and templ.
// Every post page carries Open Graph and Twitter Card tags chosen from the
// post's featured image and the media in its content.
//
// Users provide their own templ templates via the ViewFuncs struct,
// and pubcards handles all the handler logic, middleware, and database operations.
package pubcards

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"

	"github.com/eringen/pubcards/twittercards"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. Page views receive a PageMeta whose Head method
// renders the page's meta tags.
type ViewFuncs struct {
	Home             func(posts []BlogPost, activeTag string, tags []string, meta PageMeta) templ.Component
	HomePartial      func(posts []BlogPost, activeTag string, tags []string, meta PageMeta) templ.Component
	BlogSection      func(posts []BlogPost, activeTag string, tags []string) templ.Component
	Post             func(post BlogPost, posts []BlogPost, meta PageMeta) templ.Component
	PostPartial      func(post BlogPost, posts []BlogPost, meta PageMeta) templ.Component
	PostLocked       func(post BlogPost, meta PageMeta, showError bool, csrfToken string) templ.Component
	AdminLogin       func(showError bool, csrfToken string) templ.Component
	AdminDashboard   func(posts []BlogPost, message string, csrfToken string) templ.Component
	AdminFormPartial func(post BlogPost, csrfToken string) templ.Component
	AdminImages      func(images []Image, csrfToken string) templ.Component
	AdminSettings    func(settings Settings, images []Image, message string, csrfToken string) templ.Component
	NotFound         func() templ.Component
	ServerError      func() templ.Component
}

// App is the central pubcards application. It wires together the store,
// cache, card builder, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Cards  *twittercards.Builder
	Views  ViewFuncs

	loginLimiter *LoginLimiter
	metrics      *appMetrics
	customRoutes []func(*App)
	tagFilters   []TagFilter
	authorHandle func(BlogPost) string
	avatars      twittercards.AvatarSource
	staticDir    string
}

// New creates a new pubcards App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		metrics:   newAppMetrics(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(parseLogLevel(cfg.LogLevel))

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the database and sets up the cache, card builder, middleware
// and routes without starting the server.
func (a *App) Init() error {
	if a.Config.AdminPassword == "" {
		return errors.New("pubcards: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("pubcards: SessionSecret is required")
	}

	if err := a.Open(); err != nil {
		return err
	}
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Open opens the database and builds the cache and card builder. It is all
// Init needs beyond HTTP wiring, and enough to compute page metadata.
func (a *App) Open() error {
	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("pubcards: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.Cards = a.newCardBuilder()
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Uploads are served by the resizing handler; the rest of /public is static.
	e.GET("/public/uploads/:filename", a.handleUploadedImage)
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	if a.Config.MetricsEnabled {
		e.GET("/metrics", a.metrics.handler())
	}

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.POST("/blog/:slug/unlock/", a.handlePostUnlock)

	// Admin routes. The dashboard doubles as the login page.
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/post/:slug/", a.handleAdminPost, requireAdmin)
	e.POST("/admin/save/", a.handleAdminSave, requireAdmin)
	e.DELETE("/admin/post/:slug/", a.handleAdminDelete, requireAdmin)
	e.GET("/admin/images/", a.renderImageList, requireAdmin)
	e.POST("/admin/images/upload/", a.handleImageUpload, requireAdmin)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete, requireAdmin)
	e.GET("/admin/settings/", a.handleSettings, requireAdmin)
	e.POST("/admin/settings/", a.handleSettingsSave, requireAdmin)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func parseLogLevel(s string) glog.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return glog.DEBUG
	case "warn", "warning":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pubcards: required environment variable %s is not set", key)
	}
	return v
}
