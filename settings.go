package pubcards

import (
	"fmt"
	"strings"

	"github.com/eringen/pubcards/twittercards"
)

// Setting keys.
const (
	settingTwitterSite = "twitter_site"
	settingSiteIcon    = "site_icon"
)

// LoadSettings reads the admin-editable site options from s.
func LoadSettings(s SettingsStore) (Settings, error) {
	site, err := s.GetSetting(settingTwitterSite)
	if err != nil {
		return Settings{}, fmt.Errorf("pubcards: read %s: %w", settingTwitterSite, err)
	}
	icon, err := s.GetSetting(settingSiteIcon)
	if err != nil {
		return Settings{}, fmt.Errorf("pubcards: read %s: %w", settingSiteIcon, err)
	}
	return Settings{TwitterSite: site, SiteIcon: icon}, nil
}

// SaveSettings writes the site options to s. The Twitter handle is cleaned
// with CleanHandleInput first.
func SaveSettings(s SettingsStore, settings Settings) error {
	if err := s.SetSetting(settingTwitterSite, CleanHandleInput(settings.TwitterSite)); err != nil {
		return fmt.Errorf("pubcards: save %s: %w", settingTwitterSite, err)
	}
	if err := s.SetSetting(settingSiteIcon, strings.TrimSpace(settings.SiteIcon)); err != nil {
		return fmt.Errorf("pubcards: save %s: %w", settingSiteIcon, err)
	}
	return nil
}

// CleanHandleInput normalizes a handle typed into a form: markup is dropped,
// surrounding space trimmed and leading "@" characters removed.
func CleanHandleInput(s string) string {
	s = strings.TrimSpace(StripTags(s))
	return strings.TrimSpace(strings.TrimLeft(s, "@"))
}

// siteHandle resolves the site's Twitter handle: the admin setting first,
// then the configured handle, then the platform fallback.
func (a *App) siteHandle() string {
	if a.Store != nil {
		if v, err := a.Store.GetSetting(settingTwitterSite); err == nil && v != "" {
			return v
		}
	}
	if h := CleanHandleInput(a.Config.TwitterSite); h != "" {
		return h
	}
	return twittercards.FallbackSiteHandle(a.Config.Hosted)
}
