package pubcards

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

// handleAdmin shows the dashboard, or the login form without a session.
func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	if subtle.ConstantTimeCompare([]byte(c.FormValue("password")), []byte(a.Config.AdminPassword)) != 1 {
		return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminPost loads a post, drafts included, into the editor form.
func (a *App) handleAdminPost(c echo.Context) error {
	post, err := a.Store.GetPostAny(c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return c.NoContent(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminFormPartial(post, CsrfToken(c)))
}

func (a *App) handleAdminSave(c echo.Context) error {
	post, problem, err := a.postFromForm(c)
	if err != nil {
		return err
	}
	if problem != "" {
		return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(problem))
	}
	if err := a.Store.SavePost(post); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "saved")
}

// postFromForm builds a post from the editor form. problem is a message for
// the admin when the form does not describe a valid post.
func (a *App) postFromForm(c echo.Context) (post BlogPost, problem string, err error) {
	if err := c.Request().ParseForm(); err != nil {
		return BlogPost{}, "", err
	}
	field := func(name string) string { return strings.TrimSpace(c.FormValue(name)) }

	post = BlogPost{
		Title:        field("title"),
		Slug:         field("slug"),
		Date:         field("date"),
		Tags:         parseTags(c.FormValue("tags")),
		Summary:      c.FormValue("summary"),
		Content:      c.FormValue("content"),
		Published:    c.FormValue("published") != "",
		Author:       field("author"),
		AuthorHandle: CleanHandleInput(c.FormValue("author_handle")),
		Image:        field("image"),
		Password:     c.FormValue("password"),
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Slug == "" {
		return post, "Slug is required. Add a title or slug.", nil
	}
	if post.Date == "" {
		post.Date = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, post.Date); err != nil {
		return post, "Invalid date format. Use YYYY-MM-DD.", nil
	}
	// The featured image drives the card, so it must be something the card
	// code can size: an upload, or an absolute URL.
	if post.Image != "" && !IsAbsoluteURL(post.Image) {
		if _, err := a.Store.GetImage(post.Image); errors.Is(err, ErrNotFound) {
			return post, "Featured image must be an uploaded image or an http(s) URL.", nil
		} else if err != nil {
			return post, "", err
		}
	}
	return post, "", nil
}

// parseTags splits a comma separated tag field, dropping blanks.
func parseTags(field string) []string {
	var tags []string
	for _, t := range strings.Split(field, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if err := a.Store.DeletePost(c.Param("slug")); err != nil {
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, msg, CsrfToken(c)))
}

func (a *App) handleSettings(c echo.Context) error {
	return a.renderSettings(c, c.QueryParam("msg"))
}

func (a *App) handleSettingsSave(c echo.Context) error {
	settings := Settings{
		TwitterSite: c.FormValue("twitter_site"),
		SiteIcon:    strings.TrimSpace(c.FormValue("site_icon")),
	}
	if settings.SiteIcon != "" {
		_, err := a.Store.GetImage(settings.SiteIcon)
		if errors.Is(err, ErrNotFound) {
			return a.renderSettings(c, "Site icon must be an uploaded image.")
		}
		if err != nil {
			return err
		}
	}
	if err := SaveSettings(a.Store, settings); err != nil {
		return err
	}
	c.Logger().Infof("settings saved: twitter_site=%q site_icon=%q", CleanHandleInput(settings.TwitterSite), settings.SiteIcon)
	return a.renderSettings(c, "saved")
}

func (a *App) renderSettings(c echo.Context, msg string) error {
	settings, err := LoadSettings(a.Store)
	if err != nil {
		return err
	}
	images, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminSettings(settings, images, msg, CsrfToken(c)))
}
