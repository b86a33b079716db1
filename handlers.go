package pubcards

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	tag := c.QueryParam("tag")
	posts, err := a.Cache.ListPosts(tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags()
	if err != nil {
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" {
		partial := c.QueryParam("partial")
		switch partial {
		case "blog":
			return Render(c, a.Views.BlogSection(posts, tag, tags))
		case "home":
			return Render(c, a.Views.HomePartial(posts, tag, tags, a.HomeMeta()))
		}
	}
	return Render(c, a.Views.Home(posts, tag, tags, a.HomeMeta()))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}

	unlocked := !post.Protected() || isPostUnlocked(c, slug)
	if post.Protected() {
		c.Response().Header().Set("Cache-Control", "private, no-store")
	}
	meta := a.PostMeta(post, unlocked)
	// Views never need the password, locked or not.
	post.Password = ""
	if !unlocked {
		post.Summary = ""
		post.Content = ""
		return Render(c, a.Views.PostLocked(post, meta, c.QueryParam("error") != "", CsrfToken(c)))
	}

	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	if c.Request().Header.Get("HX-Request") == "true" && c.QueryParam("partial") == "post" {
		return Render(c, a.Views.PostPartial(post, posts, meta))
	}
	return Render(c, a.Views.Post(post, posts, meta))
}

// handlePostUnlock checks a protected post's password and remembers the
// unlock in the visitor's session. Failures count against the login limiter.
func (a *App) handlePostUnlock(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many attempts. Try again later.")
	}
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	target := "/blog/" + PathEscape(slug) + "/"
	if !post.Protected() {
		return c.Redirect(http.StatusSeeOther, target)
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(post.Password)) != 1 {
		a.loginLimiter.Record(ip)
		return c.Redirect(http.StatusSeeOther, target+"?error=1")
	}
	if err := setPostUnlocked(c, slug); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, target)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
