package pubcards

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/pubcards/markdown"
)

const (
	sessionName       = "admin_session"
	accessSessionName = "post_access"

	sessionMaxAge = 12 * 60 * 60
)

// rootFiles are served at fixed, slash-less paths.
var rootFiles = map[string]bool{
	"/sitemap.xml": true,
	"/feed.xml":    true,
	"/robots.txt":  true,
	"/favicon.svg": true,
	"/metrics":     true,
}

func isUploadPath(path string) bool { return strings.HasPrefix(path, "/public/") }

func (a *App) setupMiddleware() {
	e := a.Echo
	e.HTTPErrorHandler = a.httpErrorHandler
	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.Pre(middleware.NonWWWRedirect())
	e.Use(requestLogger(), middleware.Recover())
	if a.Config.MetricsEnabled {
		e.Use(a.metrics.middleware())
	}
	e.Use(
		// Uploads are already-compressed JPEGs.
		middleware.GzipWithConfig(middleware.GzipConfig{
			Level:   5,
			Skipper: func(c echo.Context) bool { return isUploadPath(c.Request().URL.Path) },
		}),
		middleware.SecureWithConfig(middleware.SecureConfig{
			ContentTypeNosniff:    "nosniff",
			XFrameOptions:         "DENY",
			ReferrerPolicy:        "strict-origin-when-cross-origin",
			ContentSecurityPolicy: contentSecurityPolicy(),
			HSTSMaxAge:            365 * 24 * 60 * 60,
		}),
		session.Middleware(a.newSessionStore()),
		a.csrf(),
		middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
			RedirectCode: http.StatusMovedPermanently,
			Skipper: func(c echo.Context) bool {
				path := c.Request().URL.Path
				return strings.HasPrefix(path, "/public") || rootFiles[path]
			},
		}),
		cacheControlMiddleware,
	)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Status >= http.StatusInternalServerError {
				c.Logger().Warnf("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
				return nil
			}
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	})
}

func (a *App) csrf() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	})
}

// contentSecurityPolicy allows post images from any https host, since posts
// may hot-link them, but frames only from the players the Markdown renderer
// embeds. Nothing on the site needs plugins, workers or remote scripts.
func contentSecurityPolicy() string {
	frames := make([]string, 0, len(markdown.FrameHosts))
	for _, h := range markdown.FrameHosts {
		frames = append(frames, "https://"+h)
	}
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' https: data:",
		"media-src 'self' https:",
		"frame-src " + strings.Join(frames, " "),
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", cacheControlFor(c.Request().URL.Path))
		return next(c)
	}
}

// cacheControlFor is the default policy per path. Handlers for protected
// posts override it.
func cacheControlFor(path string) string {
	switch {
	case isUploadPath(path):
		return "public, max-age=31536000, immutable"
	case strings.HasPrefix(path, "/admin"), path == "/metrics", strings.HasSuffix(path, "/unlock/"):
		return "no-store"
	case rootFiles[path]:
		return "public, max-age=86400"
	}
	return "public, max-age=3600"
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   sessionMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// sessionFlag reads a boolean stored under key in the named session.
func sessionFlag(c echo.Context, name, key string) bool {
	sess, err := session.Get(name, c)
	if err != nil {
		return false
	}
	v, _ := sess.Values[key].(bool)
	return v
}

func setSessionFlag(c echo.Context, name, key string) error {
	sess, err := session.Get(name, c)
	if err != nil {
		return err
	}
	sess.Values[key] = true
	return sess.Save(c.Request(), c.Response())
}

// IsAdmin reports whether the request carries a logged-in admin session.
func IsAdmin(c echo.Context) bool { return sessionFlag(c, sessionName, "authenticated") }

// requireAdmin sends visitors without an admin session to the login page.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return c.Redirect(http.StatusSeeOther, "/admin/")
		}
		return next(c)
	}
}

func setAdminSession(c echo.Context) error { return setSessionFlag(c, sessionName, "authenticated") }

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CsrfToken returns the request's CSRF token for forms.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// Unlocks are remembered per visitor and per post, so one password never
// opens another protected post.
func isPostUnlocked(c echo.Context, slug string) bool {
	return sessionFlag(c, accessSessionName, "unlocked:"+slug)
}

func setPostUnlocked(c echo.Context, slug string) error {
	return setSessionFlag(c, accessSessionName, "unlocked:"+slug)
}
